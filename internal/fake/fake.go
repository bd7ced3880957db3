// Package fake provides no-op implementations of the session's external
// collaborator ports (wireless engine, distributed controller, node
// runtime), for use as defaults and in tests. They mirror the small
// hand-rolled fakes the rest of this module's test suite uses in place
// of a mocking library.
package fake

import (
	"context"
	"net/netip"

	"coreemu"
)

// WirelessEngine answers LinkUp with its Up field (false unless set) and
// starts ready unless NotReady is set, so tests can exercise the
// NOT_READY instantiate path.
type WirelessEngine struct {
	Up           bool
	NotReady     bool
	StartupCalls int
}

func (f *WirelessEngine) Startup(context.Context) (bool, error) {
	f.StartupCalls++
	return !f.NotReady, nil
}

func (f *WirelessEngine) LinkUp(coreemu.NodeID, coreemu.NodeID, coreemu.NodeID) bool {
	return f.Up
}

func (f *WirelessEngine) PostStartup(context.Context) error { return nil }

// DistributedController has no peers: every TunnelFor call fails, which
// is correct for a single-instance session.
type DistributedController struct {
	StartCalls int
}

func (d *DistributedController) Start(context.Context) error {
	d.StartCalls++
	return nil
}

func (*DistributedController) TunnelFor(context.Context, coreemu.NodeID) (coreemu.NodeID, error) {
	return 0, coreemu.ErrUnknownNode
}

// Runtime records calls instead of doing anything to the host, so tests
// can assert on what the session asked of it.
type Runtime struct {
	ShutdownCalls int
	Commands      []string
	Adopted       []int
}

func (r *Runtime) Shutdown(context.Context) error {
	r.ShutdownCalls++
	return nil
}

func (r *Runtime) Cmd(_ context.Context, command string, _ bool) (string, error) {
	r.Commands = append(r.Commands, command)
	return "", nil
}

func (r *Runtime) AdoptTunnel(_ context.Context, ifindex int, _ string, _ []netip.Prefix) error {
	r.Adopted = append(r.Adopted, ifindex)
	return nil
}

// ServiceBooter records which node ids it was asked to boot and returns
// Err for any node id present in Fail.
type ServiceBooter struct {
	Booted []coreemu.NodeID
	Fail   map[coreemu.NodeID]error
}

func (s *ServiceBooter) Boot(_ context.Context, id coreemu.NodeID) error {
	s.Booted = append(s.Booted, id)
	if s.Fail != nil {
		if err, ok := s.Fail[id]; ok {
			return err
		}
	}
	return nil
}
