// Package hook implements the two hook kinds a session fires on lifecycle
// transitions: script hooks (a file written to the session directory and
// executed) and callback hooks (an in-process function). Both are keyed
// by the state they fire on.
package hook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"sync"

	"coreemu"

	"github.com/google/uuid"
)

// ScriptHook is a hook script materialized to disk before execution.
// Filename follows the session directory convention
// "<state>_<name>". LogPath, if set, receives the script's combined
// stdout/stderr after it runs, whether it succeeds or fails.
type ScriptHook struct {
	State    coreemu.State
	Filename string
	LogPath  string
	Body     []byte
}

// Callback is an in-process state hook. Registering the same function
// twice for the same state is an error; Go funcs compare by identity via
// reflect, matching how the original implementation rejected duplicate
// registrations.
type Callback func(state coreemu.State)

// Runner executes a materialized script hook. Session supplies the
// implementation that actually writes the file and runs it with the
// session's environment; tests can inject a fake.
type Runner interface {
	Run(ctx context.Context, h ScriptHook) error
}

// ExecRunner runs a script hook with os/exec, treating Filename as
// already written to disk at dir.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, h ScriptHook) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", h.Filename)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()

	if h.LogPath != "" {
		if logErr := os.WriteFile(h.LogPath, out, 0o644); logErr != nil && err == nil {
			err = fmt.Errorf("write log %s: %w", h.LogPath, logErr)
		}
	}

	if err != nil {
		return fmt.Errorf("hook %s: %w: %s", h.Filename, err, out)
	}
	return nil
}

// Registry holds every registered script and callback hook, grouped by
// the state they fire on.
type Registry struct {
	mu        sync.Mutex
	scripts   map[coreemu.State][]ScriptHook
	callbacks map[coreemu.State][]Callback
	runner    Runner
}

// NewRegistry returns a Registry that executes script hooks via runner.
func NewRegistry(runner Runner) *Registry {
	return &Registry{
		scripts:   make(map[coreemu.State][]ScriptHook),
		callbacks: make(map[coreemu.State][]Callback),
		runner:    runner,
	}
}

// AddScript registers a script hook for h.State.
func (r *Registry) AddScript(h ScriptHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[h.State] = append(r.scripts[h.State], h)
}

// AddCallback registers fn for state. currentState is the session's state
// at registration time: per the original behavior, a callback registered
// for the state the session is already in fires immediately, in addition
// to on every future entry to that state.
func (r *Registry) AddCallback(state coreemu.State, fn Callback, currentState coreemu.State) error {
	r.mu.Lock()
	for _, existing := range r.callbacks[state] {
		if reflect.ValueOf(existing).Pointer() == reflect.ValueOf(fn).Pointer() {
			r.mu.Unlock()
			return fmt.Errorf("hook: callback already registered for state %s", state)
		}
	}
	r.callbacks[state] = append(r.callbacks[state], fn)
	r.mu.Unlock()

	if state == currentState {
		fn(state)
	}
	return nil
}

// RemoveCallback deregisters fn for state, if present.
func (r *Registry) RemoveCallback(state coreemu.State, fn Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := r.callbacks[state]
	target := reflect.ValueOf(fn).Pointer()
	for i, existing := range hooks {
		if reflect.ValueOf(existing).Pointer() == target {
			r.callbacks[state] = append(hooks[:i], hooks[i+1:]...)
			return
		}
	}
}

// Fire runs every script hook registered for state, then every callback,
// in registration order. Script hooks run first so a callback that
// depends on a script's output (e.g. the built-in RUNTIME callback
// reading files a script hook just wrote) sees it. Script hook failures
// are collected and returned joined; callbacks do not return errors, but
// a callback that panics is recovered and reported in the joined error
// as a *coreemu.HookFailureError, and the remaining callbacks still run.
func (r *Registry) Fire(ctx context.Context, state coreemu.State) error {
	r.mu.Lock()
	callbacks := append([]Callback(nil), r.callbacks[state]...)
	scripts := append([]ScriptHook(nil), r.scripts[state]...)
	r.mu.Unlock()

	var errs []error
	for _, h := range scripts {
		correlation := uuid.NewString()
		if err := r.runner.Run(ctx, h); err != nil {
			errs = append(errs, &coreemu.HookFailureError{
				State:    state.String(),
				Filename: h.Filename + " [" + correlation + "]",
				Err:      err,
			})
		}
	}

	for _, fn := range callbacks {
		func() {
			defer func() {
				if p := recover(); p != nil {
					errs = append(errs, &coreemu.HookFailureError{
						State:    state.String(),
						Filename: "callback",
						Err:      fmt.Errorf("panic: %v", p),
					})
				}
			}()
			fn(state)
		}()
	}

	return errors.Join(errs...)
}
