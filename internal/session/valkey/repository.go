// Package sessionvalkey persists the sign-in record in a Valkey
// instance, keyed under a configurable prefix.
package sessionvalkey

import (
	"context"
	"errors"

	"github.com/valkey-io/valkey-go"

	"github.com/pawskey/ceremony-manager/internal/session"
)

const (
	objectTypeSignIn = "signIn"
	// A deployment holds exactly one sign-in record.
	signInObjectID = "current"
)

var (
	ErrGetSignIn    = errors.New("getting sign-in record from store")
	ErrStoreSignIn  = errors.New("setting sign-in record into storage")
	ErrDeleteSignIn = errors.New("deleting sign-in record from store")
)

type Repository struct {
	store *store
}

var _ = session.Repository(&Repository{})

func NewRepository(valkeyClient valkey.Client, prefix string) *Repository {
	return &Repository{
		store: newStore(valkeyClient, prefix),
	}
}

func (r *Repository) LoadSignIn(ctx context.Context) (session.SignIn, error) {
	var signIn session.SignIn
	if err := r.store.Get(ctx, objectTypeSignIn, signInObjectID, &signIn); err != nil {
		return session.SignIn{}, errors.Join(ErrGetSignIn, err)
	}

	return signIn, nil
}

func (r *Repository) StoreSignIn(ctx context.Context, signIn session.SignIn) error {
	if err := r.store.Set(ctx, objectTypeSignIn, signInObjectID, signIn); err != nil {
		return errors.Join(ErrStoreSignIn, err)
	}

	return nil
}

func (r *Repository) DeleteSignIn(ctx context.Context) error {
	if err := r.store.Destroy(ctx, objectTypeSignIn, signInObjectID); err != nil {
		return errors.Join(ErrDeleteSignIn, err)
	}

	return nil
}
