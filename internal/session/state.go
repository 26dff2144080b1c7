package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawskey/ceremony-manager/internal/serviceerr"
)

// State is the in-process view of the sign-in record, backed by a
// Repository. Reads are concurrent; writes are serialized so a
// completing ceremony and a logout can never interleave.
type State struct {
	repo Repository

	mu      sync.RWMutex
	current SignIn
}

func NewState(repo Repository) *State {
	return &State{repo: repo}
}

// Load initializes the in-process view from the persisted record. A
// missing record means signed out; that is the state of a fresh
// deployment, not an error.
func (s *State) Load(ctx context.Context) error {
	signIn, err := s.repo.LoadSignIn(ctx)
	if err != nil {
		if errors.Is(err, serviceerr.ErrNotFound) {
			signIn = SignIn{Method: MethodNone}
		} else {
			return fmt.Errorf("loading sign-in record: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = signIn

	return nil
}

func (s *State) IsSignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current.SignedIn
}

func (s *State) CurrentMethod() Method {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.current.SignedIn {
		return MethodNone
	}

	return s.current.Method
}

// Snapshot returns a copy of the current record.
func (s *State) Snapshot() SignIn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// MarkSignedIn records a successful ceremony. The in-process view is
// updated under the write lock before the record is persisted; a
// persistence failure is returned alongside the already-applied
// record so the caller can decide whether it is fatal.
func (s *State) MarkSignedIn(ctx context.Context, method Method, fingerprint string) (SignIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	signIn := SignIn{
		SignedIn:    true,
		Method:      method,
		SessionID:   uuid.NewString(),
		Fingerprint: fingerprint,
		UpdatedAt:   time.Now().UTC(),
	}
	s.current = signIn

	if err := s.repo.StoreSignIn(ctx, signIn); err != nil {
		return signIn, fmt.Errorf("persisting sign-in record: %w", err)
	}

	return signIn, nil
}

// Clear signs the user out and removes the persisted record. A record
// that was never stored clears cleanly.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = SignIn{Method: MethodNone}

	if err := s.repo.DeleteSignIn(ctx); err != nil && !errors.Is(err, serviceerr.ErrNotFound) {
		return fmt.Errorf("deleting sign-in record: %w", err)
	}

	return nil
}
