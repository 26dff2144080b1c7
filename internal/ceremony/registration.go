package ceremony

import (
	"context"
	"strings"

	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
)

// Registration is one credential registration attempt. An instance
// runs at most once; Start on a spent instance fails with
// ErrInvalidCeremonyState.
type Registration struct {
	machine

	builder     Builder
	gateway     *Gateway
	session     *session.State
	observer    Observer
	fingerprint string
}

func NewRegistration(builder Builder, gateway *Gateway, sess *session.State, observer Observer, fingerprint string) *Registration {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Registration{
		builder:     builder,
		gateway:     gateway,
		session:     sess,
		observer:    observer,
		fingerprint: fingerprint,
	}
}

// Start validates the user name, assembles the request from the
// template and awaits the broker. Local failures (validation,
// templating, entropy) terminate the ceremony before any broker
// contact and are returned as errors; broker-phase outcomes arrive as
// a Result.
func (c *Registration) Start(ctx context.Context, template, userName string) (Result, error) {
	if err := c.begin(); err != nil {
		return Result{}, err
	}

	if strings.TrimSpace(userName) == "" {
		c.advance(StateFailed)
		return Result{}, serviceerr.ErrEmptyUserName
	}

	c.advance(StateBuilding)
	req, err := c.builder.BuildRegistration(template, userName)
	if err != nil {
		c.advance(StateFailed)
		return Result{}, err
	}

	c.advance(StateAwaitingBroker)
	result := c.gateway.CreateCredential(ctx, req)

	return c.finish(ctx, c.session, c.observer, c.fingerprint, result), nil
}
