package session

import "context"

type Repository interface {
	// LoadSignIn returns the persisted record, or serviceerr.ErrNotFound
	// when nothing has been stored yet.
	LoadSignIn(ctx context.Context) (SignIn, error)
	StoreSignIn(ctx context.Context, signIn SignIn) error
	DeleteSignIn(ctx context.Context) error
}
