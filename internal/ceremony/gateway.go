package ceremony

import (
	"context"
	"errors"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pawskey/ceremony-manager/internal/broker"
)

// Gateway is the single boundary between a ceremony and the credential
// broker. It performs exactly one round-trip per call, confirms the
// returned credential is public-key shaped, and classifies failures
// exactly once. It never touches sign-in state.
type Gateway struct {
	broker broker.Broker
}

func NewGateway(b broker.Broker) *Gateway {
	return &Gateway{broker: b}
}

// CreateCredential asks the broker to mint a credential for the given
// registration request.
func (g *Gateway) CreateCredential(ctx context.Context, req RegistrationRequest) Result {
	resp, err := g.broker.CreateCredential(ctx, broker.CreateCredentialRequest{
		RequestJSON: req.Payload,
	})
	if err != nil {
		return g.classify(ctx, err)
	}

	if resp.Type != broker.CredentialTypePublicKey {
		return g.unexpectedShape(ctx, resp.Type)
	}

	return Success(resp.RegistrationJSON)
}

// RequestCredential asks the broker for an assertion over the given
// request.
func (g *Gateway) RequestCredential(ctx context.Context, req AssertionRequest) Result {
	resp, err := g.broker.GetCredential(ctx, broker.GetCredentialRequest{
		Options: []broker.GetCredentialOption{{
			Type:                       broker.CredentialTypePublicKey,
			RequestJSON:                req.Payload,
			PreferImmediatelyAvailable: true,
			RequireUserVerification:    req.RequireUserVerification,
		}},
	})
	if err != nil {
		return g.classify(ctx, err)
	}

	if resp.Credential.Type != broker.CredentialTypePublicKey {
		return g.unexpectedShape(ctx, resp.Credential.Type)
	}

	return Success(resp.Credential.AuthenticationJSON)
}

// classify turns a broker error into a terminal failure. A cancelled
// or expired context means the caller tore down the awaited round-trip;
// that counts as an interruption the caller may retry.
func (g *Gateway) classify(ctx context.Context, err error) Result {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Failed(Failure{Kind: KindProviderInterrupted, Message: msgInterrupted, Retryable: true})
	}

	failure := Classify(err)
	if failure.Kind == KindUnknownBroker {
		slogctx.Warn(ctx, "unclassified broker failure", "error", err)
	}

	return Failed(failure)
}

func (g *Gateway) unexpectedShape(ctx context.Context, credentialType broker.CredentialType) Result {
	slogctx.Warn(ctx, "broker returned unexpected credential shape", "type", string(credentialType))

	return Failed(Failure{Kind: KindUnknownBroker, Message: msgUnknown})
}
