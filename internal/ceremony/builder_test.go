package ceremony_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/challenge"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
)

const registrationTemplate = `{
	"rp": {"id": "pawskey.example", "name": "Pawskey"},
	"user": {"id": "<userId>", "name": "<userName>", "displayName": "<userDisplayName>"},
	"challenge": "<challenge>",
	"pubKeyCredParams": [{"type": "public-key", "alg": -7}]
}`

func TestBuilder_BuildRegistration(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	req, err := builder.BuildRegistration(registrationTemplate, "ada")
	require.NoError(t, err)

	assert.NotContains(t, req.Payload, "<userId>")
	assert.NotContains(t, req.Payload, "<userName>")
	assert.NotContains(t, req.Payload, "<userDisplayName>")
	assert.NotContains(t, req.Payload, "<challenge>")

	assert.Contains(t, req.Payload, `"name": "ada"`)
	assert.Contains(t, req.Payload, `"displayName": "ada"`)
	assert.Contains(t, req.Payload, req.UserID)
	assert.Contains(t, req.Payload, req.Challenge)

	// Non-placeholder content survives substitution verbatim.
	assert.Contains(t, req.Payload, `"rp": {"id": "pawskey.example", "name": "Pawskey"}`)
	assert.Contains(t, req.Payload, `"pubKeyCredParams": [{"type": "public-key", "alg": -7}]`)
}

func TestBuilder_BuildRegistration_FreshMaterialPerAttempt(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	first, err := builder.BuildRegistration(registrationTemplate, "ada")
	require.NoError(t, err)
	second, err := builder.BuildRegistration(registrationTemplate, "ada")
	require.NoError(t, err)

	assert.NotEqual(t, first.Challenge, second.Challenge)
	assert.NotEqual(t, first.UserID, second.UserID)
}

func TestBuilder_BuildRegistration_EmptyUserName(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	for _, userName := range []string{"", "   ", "\t\n"} {
		_, err := builder.BuildRegistration(registrationTemplate, userName)
		assert.ErrorIs(t, err, serviceerr.ErrEmptyUserName)
	}
}

func TestBuilder_BuildRegistration_MalformedTemplate(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	// The replacer runs a single pass, so a placeholder produced by the
	// substitution itself is left in the payload and flagged.
	_, err := builder.BuildRegistration(registrationTemplate, "<challenge>")
	assert.ErrorIs(t, err, serviceerr.ErrMalformedTemplate)
}

func TestBuilder_BuildAssertion(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	template := `{"challenge": "fixed", "rpId": "pawskey.example"}`
	req, err := builder.BuildAssertion(template, true)
	require.NoError(t, err)

	assert.Equal(t, template, req.Payload)
	assert.True(t, req.RequireUserVerification)
}

func TestBuilder_BuildAssertion_MalformedTemplate(t *testing.T) {
	builder := ceremony.NewBuilder(challenge.Source{})

	_, err := builder.BuildAssertion(`{"challenge": "<challenge>"}`, true)
	require.ErrorIs(t, err, serviceerr.ErrMalformedTemplate)
	assert.True(t, strings.Contains(err.Error(), "<challenge>"))
}
