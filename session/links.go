package session

import (
	"context"
	"fmt"

	"coreemu"
	"coreemu/internal/bus"
	"coreemu/internal/linkres"
	"coreemu/internal/node"
)

// LinkRequest describes one endpoint's interface configuration for a
// link create/update. Addrs are CIDR strings (net/netip.Prefix at the
// edges so callers needn't import netip for the common case).
type LinkRequest struct {
	Node1ID, Node2ID           coreemu.NodeID
	Iface1Addrs, Iface2Addrs   []string
	Iface1MAC, Iface2MAC       string
	Up, Down                   coreemu.LinkParams
}

// AddLink resolves node1/node2 into one of the six link shapes and
// creates the interfaces and parameters it implies. See linkres.Shape
// for the shapes and internal/linkres for the classification rules.
func (s *Session) AddLink(ctx context.Context, req LinkRequest) (linkres.Shape, error) {
	ep, err := linkres.Classify(s.registry, req.Node1ID, req.Node2ID, s.distributed)
	if err != nil {
		return 0, err
	}
	ep.LockHosts()
	defer ep.UnlockHosts()

	switch ep.Shape {
	case linkres.ShapeHostHost:
		s.attach(ep.Node1, req.Node2ID, req.Iface1Addrs, req.Iface1MAC, req.Up, req.Down)
		s.attach(ep.Node2, req.Node1ID, req.Iface2Addrs, req.Iface2MAC, req.Down, req.Up)
	case linkres.ShapeHostNet:
		s.attach(ep.Node1, req.Node2ID, req.Iface1Addrs, req.Iface1MAC, req.Up, req.Down)
	case linkres.ShapeNetHost:
		s.attach(ep.Node2, req.Node1ID, req.Iface2Addrs, req.Iface2MAC, req.Down, req.Up)
	case linkres.ShapeNetNet:
		s.attach(ep.Node1, req.Node2ID, nil, "", req.Up, req.Down)
	case linkres.ShapeHostTunnel:
		s.attach(ep.Node1, ep.Tunnel.ID, req.Iface1Addrs, req.Iface1MAC, req.Up, req.Down)
		if err := ep.Tunnel.Runtime.AdoptTunnel(ctx, 0, req.Iface1MAC, nil); err != nil {
			return ep.Shape, fmt.Errorf("session: adopt tunnel: %w", err)
		}
	case linkres.ShapeWireless:
		if !req.Up.IsZero() || !req.Down.IsZero() {
			return ep.Shape, coreemu.ErrCannotUpdateWireless
		}
		s.attach(ep.Node1, req.Node2ID, req.Iface1Addrs, req.Iface1MAC, coreemu.LinkParams{}, coreemu.LinkParams{})
	}

	netID := ep.Node2.ID
	s.Bus.PublishLink(bus.LinkEvent{
		Node1: req.Node1ID, Node2: req.Node2ID, NetID: &netID,
		Up: req.Up, Down: req.Down,
	})
	return ep.Shape, nil
}

// UpdateLink re-applies Up/Down parameters to an existing link. Wireless
// links reject static parameters: link quality there comes from the
// wireless engine, not from caller-supplied numbers.
func (s *Session) UpdateLink(ctx context.Context, req LinkRequest) error {
	ep, err := linkres.Classify(s.registry, req.Node1ID, req.Node2ID, s.distributed)
	if err != nil {
		return err
	}
	if ep.Shape == linkres.ShapeWireless {
		return coreemu.ErrCannotUpdateWireless
	}
	ep.LockHosts()
	defer ep.UnlockHosts()

	ifc1 := s.findAttachment(ep.Node1, req.Node2ID)
	if ifc1 == nil {
		return fmt.Errorf("session: update link %d-%d: %w", req.Node1ID, req.Node2ID, coreemu.ErrNoCommonNetwork)
	}
	ifc1.Up, ifc1.Down = req.Up, req.Down

	if ep.Shape == linkres.ShapeHostHost {
		if ifc2 := s.findAttachment(ep.Node2, req.Node1ID); ifc2 != nil {
			ifc2.Up, ifc2.Down = req.Down, req.Up
		}
	}

	netID := ep.Node2.ID
	s.Bus.PublishLink(bus.LinkEvent{Node1: req.Node1ID, Node2: req.Node2ID, NetID: &netID, Up: req.Up, Down: req.Down})
	return nil
}

// DeleteLink removes the interface(s) implementing the link between
// node1 and node2. When a node has more than one interface wired to the
// other endpoint, the lowest interface index is the deterministic
// tie-break for which attachment is removed (see findAttachment).
func (s *Session) DeleteLink(ctx context.Context, node1ID, node2ID coreemu.NodeID) error {
	ep, err := linkres.Classify(s.registry, node1ID, node2ID, s.distributed)
	if err != nil {
		return err
	}
	ep.LockHosts()
	defer ep.UnlockHosts()

	removed := false
	if ifc := s.findAttachment(ep.Node1, node2ID); ifc != nil {
		ep.Node1.DelInterface(ifc.Index)
		removed = true
	}
	if ifc := s.findAttachment(ep.Node2, node1ID); ifc != nil {
		ep.Node2.DelInterface(ifc.Index)
		removed = true
	}
	if !removed {
		return fmt.Errorf("session: delete link %d-%d: %w", node1ID, node2ID, coreemu.ErrNoCommonNetwork)
	}

	netID := node2ID
	s.Bus.PublishLink(bus.LinkEvent{Node1: node1ID, Node2: node2ID, NetID: &netID, Deleted: true})
	return nil
}

// attach creates a new interface on host, wired to peerID, with the
// given addresses/mac/params. Caller must hold host's lock.
func (s *Session) attach(host *node.Node, peerID coreemu.NodeID, addrs []string, mac string, up, down coreemu.LinkParams) *node.Interface {
	ifc := host.NewInterface()
	ifc.NetID = &peerID
	ifc.Addrs = append([]string(nil), addrs...)
	ifc.MAC = mac
	ifc.Up, ifc.Down = up, down
	return ifc
}

// findAttachment returns host's interface wired to peerID. If more than
// one such interface exists, the lowest interface index is the
// deterministic tie-break.
func (s *Session) findAttachment(host *node.Node, peerID coreemu.NodeID) *node.Interface {
	var best *node.Interface
	for _, ifc := range host.Interfaces {
		if ifc.NetID == nil || *ifc.NetID != peerID {
			continue
		}
		if best == nil || ifc.Index < best.Index {
			best = ifc
		}
	}
	return best
}
