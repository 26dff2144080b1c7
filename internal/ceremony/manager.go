package ceremony

import (
	"context"
	"fmt"
	"sync"

	"github.com/pawskey/ceremony-manager/internal/broker"
	"github.com/pawskey/ceremony-manager/internal/challenge"
	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
	"github.com/pawskey/ceremony-manager/pkg/fingerprint"
)

// TemplateProvider hands out the server-issued ceremony templates.
type TemplateProvider interface {
	Registration(ctx context.Context) (string, error)
	Authentication(ctx context.Context) (string, error)
}

// Manager creates and runs ceremony instances against a shared sign-in
// state. At most one ceremony is in flight at a time; a second start
// fails fast with ErrCeremonyAlreadyInProgress instead of queueing.
type Manager struct {
	templates TemplateProvider
	gateway   *Gateway
	session   *session.State
	builder   Builder
	observer  Observer

	requireUserVerification bool

	mu       sync.Mutex
	inFlight bool
}

type ManagerOption func(*Manager)

// WithObserver registers a completion observer handed to every
// ceremony instance the manager creates.
func WithObserver(observer Observer) ManagerOption {
	return func(m *Manager) {
		if observer != nil {
			m.observer = observer
		}
	}
}

// WithRequireUserVerification controls whether assertions insist on
// user verification. On by default.
func WithRequireUserVerification(require bool) ManagerOption {
	return func(m *Manager) {
		m.requireUserVerification = require
	}
}

// WithChallengeSource swaps the entropy source used by the request
// builder.
func WithChallengeSource(source challenge.Source) ManagerOption {
	return func(m *Manager) {
		m.builder = NewBuilder(source)
	}
}

func NewManager(templates TemplateProvider, b broker.Broker, sess *session.State, opts ...ManagerOption) *Manager {
	m := &Manager{
		templates:               templates,
		gateway:                 NewGateway(b),
		session:                 sess,
		builder:                 NewBuilder(challenge.Source{}),
		observer:                NopObserver{},
		requireUserVerification: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// SignUp runs one registration ceremony for the given user name.
func (m *Manager) SignUp(ctx context.Context, userName string) (Result, error) {
	release, err := m.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	template, err := m.templates.Registration(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading registration template: %w", err)
	}

	c := NewRegistration(m.builder, m.gateway, m.session, m.observer, clientFingerprint(ctx))

	return c.Start(ctx, template, userName)
}

// SignIn runs one assertion ceremony.
func (m *Manager) SignIn(ctx context.Context) (Result, error) {
	release, err := m.acquire()
	if err != nil {
		return Result{}, err
	}
	defer release()

	template, err := m.templates.Authentication(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading authentication template: %w", err)
	}

	c := NewAuthentication(m.builder, m.gateway, m.session, m.observer, clientFingerprint(ctx), m.requireUserVerification)

	return c.Start(ctx, template)
}

// Logout clears the sign-in record. It serializes against a completing
// ceremony through the session state's own write lock.
func (m *Manager) Logout(ctx context.Context) error {
	return m.session.Clear(ctx)
}

func (m *Manager) acquire() (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return nil, serviceerr.ErrCeremonyAlreadyInProgress
	}
	m.inFlight = true

	return func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}, nil
}

// clientFingerprint is best-effort: CLI ceremonies carry none.
func clientFingerprint(ctx context.Context) string {
	fp, err := fingerprint.ExtractFingerprint(ctx)
	if err != nil {
		return ""
	}

	return fp
}
