package sessionmock

import (
	"context"
	"sync"

	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
)

type RepositoryOption func(*Repository)

// Repository is an in-memory sign-in store for tests and one-shot CLI
// runs.
type Repository struct {
	mu     sync.Mutex
	signIn *session.SignIn

	loadErr, storeErr, deleteErr error
}

func WithSignIn(signIn session.SignIn) RepositoryOption {
	return func(r *Repository) { r.signIn = &signIn }
}

func WithLoadError(err error) RepositoryOption {
	return func(r *Repository) { r.loadErr = err }
}

func WithStoreError(err error) RepositoryOption {
	return func(r *Repository) { r.storeErr = err }
}

func WithDeleteError(err error) RepositoryOption {
	return func(r *Repository) { r.deleteErr = err }
}

var _ = session.Repository(&Repository{})

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *Repository) LoadSignIn(_ context.Context) (session.SignIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadErr != nil {
		return session.SignIn{}, r.loadErr
	}
	if r.signIn == nil {
		return session.SignIn{}, serviceerr.ErrNotFound
	}

	return *r.signIn, nil
}

func (r *Repository) StoreSignIn(_ context.Context, signIn session.SignIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storeErr != nil {
		return r.storeErr
	}
	r.signIn = &signIn

	return nil
}

func (r *Repository) DeleteSignIn(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	if r.signIn == nil {
		return serviceerr.ErrNotFound
	}
	r.signIn = nil

	return nil
}
