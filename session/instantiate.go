package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"coreemu"
	"coreemu/internal/bus"
	"coreemu/internal/hook"

	"golang.org/x/sync/errgroup"
)

// Instantiate transitions the session through INSTANTIATION into
// RUNTIME, following the original sequence: write the node list, ensure
// ctrl0, start distributed tunnels, ask the wireless engine to start,
// boot every bootable host, and — once booting is done — publish
// INSTANTIATION_COMPLETE and enter RUNTIME. If any node's service boot
// fails, the session still reaches RUNTIME with the failures reported
// through the exception sink rather than aborting the whole session — a
// single misconfigured node's service shouldn't keep every other node
// from running. If the wireless engine reports NOT_READY, Instantiate
// returns early without advancing past INSTANTIATION; the wireless
// engine is expected to re-invoke Instantiate once it becomes ready.
func (s *Session) Instantiate(ctx context.Context) error {
	if err := s.SetState(ctx, coreemu.StateInstantiation, false); err != nil {
		return fmt.Errorf("session: enter instantiation: %w", err)
	}

	if err := s.WriteNodes(); err != nil {
		return fmt.Errorf("session: write nodes: %w", err)
	}

	if err := s.EnsureControlNet(ctx, 0, true); err != nil {
		return fmt.Errorf("session: ensure control net 0: %w", err)
	}

	if s.distributed != nil {
		if err := s.distributed.Start(ctx); err != nil {
			return fmt.Errorf("session: start distributed tunnels: %w", err)
		}
	}

	if s.wireless != nil {
		ready, err := s.wireless.Startup(ctx)
		if err != nil {
			return fmt.Errorf("session: wireless engine startup: %w", err)
		}
		if !ready {
			return nil
		}
	}

	bootErr := s.bootNodes(ctx)
	if bootErr != nil {
		s.Exception("error", "session", fmt.Sprintf("service boot: %v", bootErr), nil)
	} else {
		s.Bus.PublishEvent(bus.GenericEvent{Name: "INSTANTIATION_COMPLETE"})
	}

	return s.checkRuntime(ctx)
}

// checkRuntime transitions to RUNTIME once every bootable node has gone
// through its boot attempt (successful or not), starting the timed event
// loop on entry. Session.Instantiate calls this directly; it is also
// safe to call again, e.g. after a node is added while the session is
// already active.
func (s *Session) checkRuntime(ctx context.Context) error {
	alreadyRuntime := s.State() == coreemu.StateRuntime
	if err := s.SetState(ctx, coreemu.StateRuntime, false); err != nil {
		return err
	}
	if !alreadyRuntime {
		s.timer.Start(context.Background())
	}
	return nil
}

func (s *Session) bootNodes(ctx context.Context) error {
	if s.serviceBooter == nil {
		return nil
	}
	parallel := s.Options.Int("bootparallelism", 8)

	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	g.SetLimit(parallel)
	for _, n := range s.registry.All() {
		n := n
		if !n.Class.IsBootable() {
			continue
		}
		g.Go(func() error {
			if err := s.serviceBooter.Boot(ctx, n.ID); err != nil {
				mu.Lock()
				errs = append(errs, &coreemu.ServiceBootError{NodeID: n.ID, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// DataCollect transitions to DATACOLLECT, leaving nodes and links in
// place so a caller can gather final state (logs, captures) before
// Shutdown tears everything down. It only changes the state: it does not
// stop node services, stop the timed event loop, or remove control-net
// bridges.
func (s *Session) DataCollect(ctx context.Context) error {
	return s.SetState(ctx, coreemu.StateDataCollect, false)
}

// Shutdown tears down every node and control-net bridge, transitions to
// SHUTDOWN, stops the timed event loop, and removes the session
// directory unless Options' "preservedir" is true. The session object
// itself remains usable afterward only via Clear.
func (s *Session) Shutdown(ctx context.Context) error {
	if err := s.SetState(ctx, coreemu.StateShutdown, false); err != nil {
		return err
	}

	var errs []error
	if err := s.controlnet.RemoveAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.DeleteAllNodes(ctx); err != nil {
		errs = append(errs, err)
	}
	s.timer.Stop()

	if !s.Options.Bool("preservedir", false) {
		if err := os.RemoveAll(s.dataDir); err != nil {
			errs = append(errs, fmt.Errorf("session: remove session dir: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Clear returns the session to DEFINITION: every node, link, hook and
// control-net bridge is removed (the built-in RUNTIME callback is then
// registered again) and the id generator resets. Clear
// always leaves the session directory on disk afterward (recreating it
// if Shutdown removed it), regardless of "preservedir", since a cleared
// session is still usable.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.Shutdown(ctx); err != nil {
		s.Exception("warning", "session", fmt.Sprintf("shutdown during clear: %v", err), nil)
	}
	s.ids.Reset()
	s.hooks = hook.NewRegistry(hook.ExecRunner{Dir: s.dataDir})

	s.mu.Lock()
	s.state = coreemu.StateDefinition
	s.mu.Unlock()
	s.registerRuntimeHook()

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("session: recreate data dir: %w", err)
	}
	return s.writeStateFile(coreemu.StateDefinition)
}
