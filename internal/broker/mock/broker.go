// Package brokermock provides an in-memory broker for tests.
package brokermock

import (
	"context"

	"github.com/pawskey/ceremony-manager/internal/broker"
)

var _ = broker.Broker(&Broker{})

// Broker is a configurable fake. By default it answers every request
// with a well-formed public-key credential.
type Broker struct {
	createFunc func(ctx context.Context, req broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error)
	getFunc    func(ctx context.Context, req broker.GetCredentialRequest) (broker.GetCredentialResponse, error)
}

type Option func(*Broker)

// WithCreateCredential overrides the create behaviour.
func WithCreateCredential(fn func(ctx context.Context, req broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error)) Option {
	return func(b *Broker) {
		b.createFunc = fn
	}
}

// WithGetCredential overrides the get behaviour.
func WithGetCredential(fn func(ctx context.Context, req broker.GetCredentialRequest) (broker.GetCredentialResponse, error)) Option {
	return func(b *Broker) {
		b.getFunc = fn
	}
}

// WithCreateError makes every create call fail with the given error.
func WithCreateError(err error) Option {
	return WithCreateCredential(func(context.Context, broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
		return broker.CreateCredentialResponse{}, err
	})
}

// WithGetError makes every get call fail with the given error.
func WithGetError(err error) Option {
	return WithGetCredential(func(context.Context, broker.GetCredentialRequest) (broker.GetCredentialResponse, error) {
		return broker.GetCredentialResponse{}, err
	})
}

func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		createFunc: func(context.Context, broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
			return broker.CreateCredentialResponse{
				Type:             broker.CredentialTypePublicKey,
				RegistrationJSON: `{"id":"mock-credential"}`,
			}, nil
		},
		getFunc: func(context.Context, broker.GetCredentialRequest) (broker.GetCredentialResponse, error) {
			return broker.GetCredentialResponse{
				Credential: broker.Credential{
					Type:               broker.CredentialTypePublicKey,
					AuthenticationJSON: `{"id":"mock-credential"}`,
				},
			}, nil
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Broker) CreateCredential(ctx context.Context, req broker.CreateCredentialRequest) (broker.CreateCredentialResponse, error) {
	return b.createFunc(ctx, req)
}

func (b *Broker) GetCredential(ctx context.Context, req broker.GetCredentialRequest) (broker.GetCredentialResponse, error) {
	return b.getFunc(ctx, req)
}
