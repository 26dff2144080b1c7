package ceremony

import (
	"fmt"
	"strings"

	"github.com/pawskey/ceremony-manager/internal/challenge"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
)

// Placeholder tokens the registration template carries. The template
// is otherwise opaque; substitution is purely textual.
const (
	PlaceholderUserID          = "<userId>"
	PlaceholderUserName        = "<userName>"
	PlaceholderUserDisplayName = "<userDisplayName>"
	PlaceholderChallenge       = "<challenge>"
)

var placeholders = []string{
	PlaceholderUserID,
	PlaceholderUserName,
	PlaceholderUserDisplayName,
	PlaceholderChallenge,
}

// RegistrationRequest is the assembled payload for one registration
// attempt. It is owned by a single ceremony instance and dropped when
// that instance terminates.
type RegistrationRequest struct {
	UserID          string
	UserName        string
	UserDisplayName string
	Challenge       string
	// Payload is the template with every placeholder substituted.
	Payload string
}

// AssertionRequest is the assembled payload for one assertion attempt.
type AssertionRequest struct {
	Payload                 string
	RequireUserVerification bool
}

// Builder turns server-issued templates into concrete ceremony
// requests.
type Builder struct {
	source challenge.Source
}

func NewBuilder(source challenge.Source) Builder {
	return Builder{source: source}
}

// BuildRegistration validates the user name, draws fresh challenge
// material and substitutes it into the template. The name check runs
// before any entropy is consumed.
func (b Builder) BuildRegistration(template, userName string) (RegistrationRequest, error) {
	if strings.TrimSpace(userName) == "" {
		return RegistrationRequest{}, serviceerr.ErrEmptyUserName
	}

	material, err := b.source.Material()
	if err != nil {
		return RegistrationRequest{}, fmt.Errorf("generating challenge material: %w", err)
	}

	userID := b.source.Encode(material.UserHandle)
	encodedChallenge := b.source.Encode(material.Challenge)

	payload := strings.NewReplacer(
		PlaceholderUserID, userID,
		PlaceholderUserName, userName,
		PlaceholderUserDisplayName, userName,
		PlaceholderChallenge, encodedChallenge,
	).Replace(template)

	if leftover, ok := unresolvedPlaceholder(payload); ok {
		return RegistrationRequest{}, fmt.Errorf("placeholder %s unresolved: %w", leftover, serviceerr.ErrMalformedTemplate)
	}

	return RegistrationRequest{
		UserID:          userID,
		UserName:        userName,
		UserDisplayName: userName,
		Challenge:       encodedChallenge,
		Payload:         payload,
	}, nil
}

// BuildAssertion wraps the assertion template, which carries no
// per-call placeholders. A template that still contains one is broken
// on the server side.
func (b Builder) BuildAssertion(template string, requireUserVerification bool) (AssertionRequest, error) {
	if leftover, ok := unresolvedPlaceholder(template); ok {
		return AssertionRequest{}, fmt.Errorf("placeholder %s in assertion template: %w", leftover, serviceerr.ErrMalformedTemplate)
	}

	return AssertionRequest{
		Payload:                 template,
		RequireUserVerification: requireUserVerification,
	}, nil
}

func unresolvedPlaceholder(payload string) (string, bool) {
	for _, placeholder := range placeholders {
		if strings.Contains(payload, placeholder) {
			return placeholder, true
		}
	}

	return "", false
}
