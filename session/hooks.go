package session

import (
	"context"
	"fmt"
	"os"

	"coreemu"
	"coreemu/internal/hook"
)

// SetHookScript materializes a script hook to disk for the given state
// and registers it to run on every future entry to that state (and
// immediately, if the session is already in that state).
func (s *Session) SetHookScript(state coreemu.State, name string, body []byte) error {
	path := s.hookScriptPath(state, name)
	if err := os.WriteFile(path, body, 0o755); err != nil {
		return fmt.Errorf("session: write hook script %s: %w", path, err)
	}
	s.publishFile(0, path, body)

	h := hook.ScriptHook{State: state, Filename: path, LogPath: s.hookLogPath(state, name), Body: body}
	s.hooks.AddScript(h)

	if s.State() == state {
		if err := (hook.ExecRunner{Dir: s.dataDir}).Run(context.Background(), h); err != nil {
			return &coreemu.HookFailureError{State: state.String(), Filename: path, Err: err}
		}
	}
	return nil
}

// AddStateHook registers an in-process callback to run on every future
// entry to state (and immediately, if the session is already in that
// state). Registering the same function twice for the same state is an
// error.
func (s *Session) AddStateHook(state coreemu.State, fn func(coreemu.State)) error {
	return s.hooks.AddCallback(state, hook.Callback(fn), s.State())
}

// RemoveStateHook deregisters a previously added callback.
func (s *Session) RemoveStateHook(state coreemu.State, fn func(coreemu.State)) {
	s.hooks.RemoveCallback(state, hook.Callback(fn))
}

// registerRuntimeHook installs the session's own built-in RUNTIME
// callback: once every node has booted and the session reaches RUNTIME,
// kick the wireless engine's post-startup hook and write the deployed
// scenario XML. This mirrors the original controller's always-on
// runtime hook rather than something a caller has to remember to wire.
func (s *Session) registerRuntimeHook() {
	_ = s.AddStateHook(coreemu.StateRuntime, func(coreemu.State) {
		if s.wireless != nil {
			if err := s.wireless.PostStartup(context.Background()); err != nil {
				s.Exception("error", "session", fmt.Sprintf("wireless post-startup: %v", err), nil)
			}
		}
		if err := s.WriteDeployedXML(); err != nil {
			s.Exception("error", "session", fmt.Sprintf("write deployed xml: %v", err), nil)
		}
	})
}
