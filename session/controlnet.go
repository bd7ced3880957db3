package session

import (
	"context"
	"net/netip"

	"coreemu"
	"coreemu/internal/controlnet"
	"coreemu/internal/node"
)

func (s *Session) createControlNetNode(ctx context.Context, id coreemu.NodeID, name string) (*node.Node, error) {
	return s.AddNode(AddNodeRequest{ID: id, Class: coreemu.NodeControlNet, Name: name})
}

func (s *Session) removeControlNetNode(ctx context.Context, id coreemu.NodeID) error {
	return s.DeleteNode(ctx, id)
}

// EnsureControlNet brings up the ctrl<index> bridge and attaches every
// currently-registered host-class node to it, publishing the resulting
// addresses into /etc/hosts unless Options' "update_etc_hosts" is
// false. When confRequired is true, the bridge is only created if its
// prefix is actually configured; otherwise EnsureControlNet is a no-op.
func (s *Session) EnsureControlNet(ctx context.Context, index int, confRequired bool) error {
	ctrl, err := s.controlnet.Ensure(ctx, index, confRequired)
	if err != nil {
		return err
	}
	if ctrl == nil {
		return nil
	}
	prefix, err := s.controlnet.Prefix(index)
	if err != nil {
		return err
	}

	entries := make(map[string]netip.Addr)
	for _, n := range s.registry.All() {
		if n.ID == ctrl.ID || !n.Class.IsHostClass() {
			continue
		}
		addr, err := controlnet.DeriveAddress(prefix, n.ID)
		if err != nil {
			return err
		}
		n.Lock()
		s.attach(n, ctrl.ID, []string{addr.String() + "/32"}, "", coreemu.LinkParams{}, coreemu.LinkParams{})
		n.Unlock()
		entries[n.Name] = addr
	}

	if s.Options.Bool("update_etc_hosts", true) {
		return s.updateControlHosts(entries, false)
	}
	return nil
}

// RemoveControlNet tears down ctrl<index>.
func (s *Session) RemoveControlNet(ctx context.Context, index int) error {
	if err := s.controlnet.Remove(ctx, index); err != nil {
		return err
	}
	if s.Options.Bool("update_etc_hosts", true) {
		return s.updateControlHosts(nil, true)
	}
	return nil
}

func (s *Session) updateControlHosts(entries map[string]netip.Addr, remove bool) error {
	path := s.Options.String("etchostspath", "/etc/hosts")
	return controlnet.PublishHosts(path, s.ID, entries, remove)
}
