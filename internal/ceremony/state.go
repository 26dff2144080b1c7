package ceremony

import (
	"context"
	"fmt"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/pawskey/ceremony-manager/internal/serviceerr"
	"github.com/pawskey/ceremony-manager/internal/session"
)

// State is the lifecycle position of one ceremony instance.
type State string

const (
	StateIdle           State = "idle"
	StateValidating     State = "validating"
	StateBuilding       State = "building"
	StateAwaitingBroker State = "awaiting_broker"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// machine holds the state shared by both ceremony variants. Succeeded
// and Failed are terminal: a retry is always a fresh instance, so the
// caller makes the retry decision explicitly.
type machine struct {
	mu    sync.Mutex
	state State
}

// State returns the current lifecycle position.
func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == "" {
		return StateIdle
	}

	return m.state
}

// begin moves Idle to Validating. Any other starting position means
// the instance already ran.
func (m *machine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != "" && m.state != StateIdle {
		return fmt.Errorf("ceremony is %s: %w", m.state, serviceerr.ErrInvalidCeremonyState)
	}
	m.state = StateValidating

	return nil
}

func (m *machine) advance(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// finish applies the broker outcome. On success the sign-in record is
// updated under the same lock that publishes the Succeeded state, so
// no reader observes Succeeded without the session update. A failed
// persist is logged but does not undo the ceremony; the credential
// exists either way.
func (m *machine) finish(ctx context.Context, sess *session.State, observer Observer, fingerprint string, result Result) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.Succeeded() {
		if _, err := sess.MarkSignedIn(ctx, session.MethodPasskey, fingerprint); err != nil {
			slogctx.Warn(ctx, "sign-in record was not persisted", "error", err)
		}
		m.state = StateSucceeded
		observer.OnSucceeded(ctx, result)

		return result
	}

	m.state = StateFailed
	observer.OnFailed(ctx, *result.Failure)

	return result
}
