// Package broker defines the boundary to the platform credential broker:
// the component that owns the interactive credential creation and
// retrieval UX. The broker is opaque; it either returns a credential
// payload or reports a typed failure category.
package broker

import "context"

// CredentialType discriminates the credential variants a broker can
// return. The ceremony core only accepts the public-key variant.
type CredentialType string

const (
	CredentialTypePublicKey CredentialType = "public-key"
	CredentialTypePassword  CredentialType = "password"
)

// Category is the broker-reported failure category. The set mirrors the
// failure modes platform credential managers report for public-key
// ceremonies; anything not listed here is mapped to the unknown kind by
// the classifier.
type Category string

const (
	// CategoryDom is a WebAuthn protocol-level rejection.
	CategoryDom Category = "dom"
	// CategoryCancelled means the user dismissed the broker UI.
	CategoryCancelled Category = "cancelled"
	// CategoryInterrupted is a transient interruption; the caller may retry.
	CategoryInterrupted Category = "interrupted"
	// CategoryProviderConfiguration means a provider dependency is missing
	// on this device.
	CategoryProviderConfiguration Category = "provider-configuration"
	// CategoryCustom is an opaque failure raised by a third-party provider SDK.
	CategoryCustom Category = "custom"
)

// Error is a typed broker failure.
type Error struct {
	Category Category
	Reason   string
}

func (e *Error) Error() string {
	return "broker: " + string(e.Category) + ": " + e.Reason
}

// NewError builds a typed broker failure.
func NewError(category Category, reason string) *Error {
	return &Error{Category: category, Reason: reason}
}

// CreateCredentialRequest asks the broker to mint a new public-key
// credential from the given creation options document.
type CreateCredentialRequest struct {
	// RequestJSON is the substituted registration template.
	RequestJSON string
}

// CreateCredentialResponse carries the attestation payload produced by
// the broker. RegistrationJSON is opaque to the core and is forwarded
// to the relying party unchanged.
type CreateCredentialResponse struct {
	Type             CredentialType
	RegistrationJSON string
}

// GetCredentialOption is one credential variant the caller accepts.
type GetCredentialOption struct {
	Type CredentialType
	// RequestJSON is the assertion options document.
	RequestJSON string
	// ClientDataHash verifies the relying party identity; nil unless the
	// caller sets an explicit origin.
	ClientDataHash []byte
	// PreferImmediatelyAvailable asks the broker to fail fast when no
	// matching credential is locally available.
	PreferImmediatelyAvailable bool
	// RequireUserVerification insists the broker verify the user before
	// releasing an assertion.
	RequireUserVerification bool
}

// GetCredentialRequest asks the broker for an assertion over any of the
// listed options.
type GetCredentialRequest struct {
	Options []GetCredentialOption
}

// Credential is the broker's answer to a GetCredentialRequest.
type Credential struct {
	Type               CredentialType
	AuthenticationJSON string
}

// GetCredentialResponse wraps the returned credential.
type GetCredentialResponse struct {
	Credential Credential
}

// Broker is the platform credential broker. Implementations block until
// the (possibly user-interactive) operation completes or ctx is
// cancelled, and report failures as *Error.
type Broker interface {
	CreateCredential(ctx context.Context, req CreateCredentialRequest) (CreateCredentialResponse, error)
	GetCredential(ctx context.Context, req GetCredentialRequest) (GetCredentialResponse, error)
}
