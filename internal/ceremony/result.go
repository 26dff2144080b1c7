// Package ceremony drives passkey registration and assertion attempts:
// request construction, the single broker round-trip, failure
// classification, and the resulting sign-in state update.
package ceremony

// ErrorKind is the closed taxonomy of broker-phase failures. Every
// broker failure maps to exactly one kind; anything the classifier
// does not recognise lands on KindUnknownBroker.
type ErrorKind string

const (
	// KindDomProtocol is a protocol-level rejection, surfaced verbatim.
	KindDomProtocol ErrorKind = "dom_protocol_error"
	// KindUserCancelled means the user dismissed the prompt. Not treated
	// as an error; its message is never surfaced.
	KindUserCancelled ErrorKind = "user_cancelled"
	// KindProviderInterrupted is a transient interruption. The only
	// retryable kind.
	KindProviderInterrupted ErrorKind = "provider_interrupted"
	// KindProviderMisconfigured means a provider dependency is missing on
	// this device.
	KindProviderMisconfigured ErrorKind = "provider_misconfigured"
	// KindThirdPartyCredential is an opaque failure from a third-party
	// provider SDK.
	KindThirdPartyCredential ErrorKind = "third_party_credential_error"
	// KindUnknownBroker is the fallback for unrecognised failures.
	KindUnknownBroker ErrorKind = "unknown_broker_error"
)

// Failure is a classified broker-phase failure.
type Failure struct {
	Kind      ErrorKind
	Message   string
	Retryable bool
}

// Surfaced reports whether the failure message may be shown to the
// user. A dismissed prompt is an abort, not an error.
func (f Failure) Surfaced() bool {
	return f.Kind != KindUserCancelled
}

// Result is the immutable outcome of one ceremony attempt. Either
// Credential is set or Failure is non-nil, never both.
type Result struct {
	// Credential is the opaque payload returned by the broker. It is
	// authentication evidence for a relying party; this core never
	// interprets its contents.
	Credential string
	Failure    *Failure
}

// Succeeded reports whether the attempt produced a credential.
func (r Result) Succeeded() bool {
	return r.Failure == nil
}

// Success wraps a credential payload.
func Success(credential string) Result {
	return Result{Credential: credential}
}

// Failed wraps a classified failure.
func Failed(failure Failure) Result {
	return Result{Failure: &failure}
}
