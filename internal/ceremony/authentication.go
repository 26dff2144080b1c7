package ceremony

import (
	"context"

	"github.com/pawskey/ceremony-manager/internal/session"
)

// Authentication is one credential assertion attempt. Like
// Registration, an instance runs at most once.
type Authentication struct {
	machine

	builder                 Builder
	gateway                 *Gateway
	session                 *session.State
	observer                Observer
	fingerprint             string
	requireUserVerification bool
}

func NewAuthentication(builder Builder, gateway *Gateway, sess *session.State, observer Observer, fingerprint string, requireUserVerification bool) *Authentication {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Authentication{
		builder:                 builder,
		gateway:                 gateway,
		session:                 sess,
		observer:                observer,
		fingerprint:             fingerprint,
		requireUserVerification: requireUserVerification,
	}
}

// Start assembles the assertion request and awaits the broker. The
// assertion template carries no user-supplied fields, so validation
// has nothing to check.
func (c *Authentication) Start(ctx context.Context, template string) (Result, error) {
	if err := c.begin(); err != nil {
		return Result{}, err
	}

	c.advance(StateBuilding)
	req, err := c.builder.BuildAssertion(template, c.requireUserVerification)
	if err != nil {
		c.advance(StateFailed)
		return Result{}, err
	}

	c.advance(StateAwaitingBroker)
	result := c.gateway.RequestCredential(ctx, req)

	return c.finish(ctx, c.session, c.observer, c.fingerprint, result), nil
}
