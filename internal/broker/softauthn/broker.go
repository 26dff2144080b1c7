// Package softauthn implements the broker interface on top of an
// in-process software authenticator. It exists for local development
// and one-shot CLI ceremonies, where no platform credential manager is
// available.
package softauthn

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/descope/virtualwebauthn"
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/pawskey/ceremony-manager/internal/broker"
)

var _ = broker.Broker(&Broker{})

// Config describes the relying party the software authenticator
// answers for.
type Config struct {
	RPID   string
	RPName string
	Origin string
}

// Broker holds one software authenticator and the credentials it has
// minted so far. Credentials live for the lifetime of the process.
type Broker struct {
	rp   virtualwebauthn.RelyingParty
	auth virtualwebauthn.Authenticator

	mu          sync.Mutex
	credentials []virtualwebauthn.Credential
	decline     bool
}

type Option func(*Broker)

// WithDecline makes the broker behave as if the user dismissed every
// prompt.
func WithDecline() Option {
	return func(b *Broker) {
		b.decline = true
	}
}

func New(cfg Config, opts ...Option) *Broker {
	b := &Broker{
		rp: virtualwebauthn.RelyingParty{
			Name:   cfg.RPName,
			ID:     cfg.RPID,
			Origin: cfg.Origin,
		},
		auth: virtualwebauthn.NewAuthenticator(),
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Broker) CreateCredential(ctx context.Context, req broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
	if err := ctx.Err(); err != nil {
		return broker.CreateCredentialResponse{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.decline {
		return broker.CreateCredentialResponse{}, broker.NewError(broker.CategoryCancelled, "user dismissed the credential prompt")
	}

	var options protocol.PublicKeyCredentialCreationOptions
	if err := json.Unmarshal([]byte(req.RequestJSON), &options); err != nil {
		return broker.CreateCredentialResponse{}, broker.NewError(broker.CategoryDom, "creation options are not valid JSON: "+err.Error())
	}
	if options.RelyingParty.ID != b.rp.ID {
		return broker.CreateCredentialResponse{}, broker.NewError(broker.CategoryDom, "relying party mismatch: "+options.RelyingParty.ID)
	}

	parsed, err := virtualwebauthn.ParseAttestationOptions(req.RequestJSON)
	if err != nil {
		return broker.CreateCredentialResponse{}, broker.NewError(broker.CategoryDom, "unusable creation options: "+err.Error())
	}

	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attestation := virtualwebauthn.CreateAttestationResponse(b.rp, b.auth, credential, *parsed)

	b.auth.AddCredential(credential)
	b.credentials = append(b.credentials, credential)

	return broker.CreateCredentialResponse{
		Type:             broker.CredentialTypePublicKey,
		RegistrationJSON: attestation,
	}, nil
}

func (b *Broker) GetCredential(ctx context.Context, req broker.GetCredentialRequest) (broker.GetCredentialResponse, error) {
	if err := ctx.Err(); err != nil {
		return broker.GetCredentialResponse{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.decline {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryCancelled, "user dismissed the credential prompt")
	}
	if len(b.credentials) == 0 {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryDom, "no credential available for this relying party")
	}

	option, ok := publicKeyOption(req)
	if !ok {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryDom, "no public-key option in request")
	}

	var options protocol.PublicKeyCredentialRequestOptions
	if err := json.Unmarshal([]byte(option.RequestJSON), &options); err != nil {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryDom, "request options are not valid JSON: "+err.Error())
	}
	if options.RelyingPartyID != "" && options.RelyingPartyID != b.rp.ID {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryDom, "relying party mismatch: "+options.RelyingPartyID)
	}

	parsed, err := virtualwebauthn.ParseAssertionOptions(option.RequestJSON)
	if err != nil {
		return broker.GetCredentialResponse{}, broker.NewError(broker.CategoryDom, "unusable request options: "+err.Error())
	}

	credential := &b.credentials[len(b.credentials)-1]
	credential.Counter++
	assertion := virtualwebauthn.CreateAssertionResponse(b.rp, b.auth, *credential, *parsed)

	return broker.GetCredentialResponse{
		Credential: broker.Credential{
			Type:               broker.CredentialTypePublicKey,
			AuthenticationJSON: assertion,
		},
	}, nil
}

func publicKeyOption(req broker.GetCredentialRequest) (broker.GetCredentialOption, bool) {
	for _, option := range req.Options {
		if option.Type == broker.CredentialTypePublicKey {
			return option, true
		}
	}

	return broker.GetCredentialOption{}, false
}
