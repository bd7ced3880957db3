package session

import (
	"context"
	"fmt"
	"time"

	"coreemu"
	"coreemu/internal/bus"
)

// State returns the session's current lifecycle state.
func (s *Session) State() coreemu.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsActive reports whether the session is in RUNTIME or DATACOLLECT,
// the two states in which link/node mutation is meaningful to an
// external caller such as an RPC façade.
func (s *Session) IsActive() bool {
	st := s.State()
	return st == coreemu.StateRuntime || st == coreemu.StateDataCollect
}

// Runtime returns how long the session has been in StateRuntime. Zero
// outside that state.
func (s *Session) Runtime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != coreemu.StateRuntime || s.runtimeSince.IsZero() {
		return 0
	}
	return time.Since(s.runtimeSince)
}

// SetState transitions the session to next: it persists the on-disk
// state marker, runs every script hook registered for next, then every
// callback hook, and finally, only if sendEvent is true, publishes a
// lifecycle event on the Bus. Calling SetState with the state the
// session is already in is a no-op — it neither rewrites the state
// file, fires hooks, nor publishes an event. SetState does not enforce an
// order between states, except that once the session is in StateNone it
// refuses every further transition. Clear returns a session to
// StateDefinition.
func (s *Session) SetState(ctx context.Context, next coreemu.State, sendEvent bool) error {
	s.mu.Lock()
	if s.state == coreemu.StateNone {
		s.mu.Unlock()
		return fmt.Errorf("session: cannot leave terminal state none")
	}
	if s.state == next {
		s.mu.Unlock()
		return nil
	}
	s.state = next
	if next == coreemu.StateRuntime {
		s.runtimeSince = time.Now()
	} else {
		s.runtimeSince = time.Time{}
	}
	s.mu.Unlock()

	if err := s.writeStateFile(next); err != nil {
		s.Exception("error", "session", fmt.Sprintf("write state file: %v", err), nil)
	}

	err := s.hooks.Fire(ctx, next)

	if sendEvent {
		s.Bus.PublishEvent(bus.GenericEvent{
			Name: "state",
			Data: map[string]string{"state": next.String()},
		})
	}

	return err
}
