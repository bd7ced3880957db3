// Package linkres resolves a (node1, node2) link request into one of six
// shapes and the concrete endpoints involved. It never mutates state: it
// only classifies and locks/unlocks; the session package performs the
// actual interface creation and parameter application once it has a
// resolved Endpoints value.
package linkres

import (
	"context"
	"fmt"

	"coreemu"
	"coreemu/internal/check"
	"coreemu/internal/node"
)

// Shape names the six link topologies the core resolves a link request
// into.
type Shape int

const (
	// ShapeHostHost is a direct veth pair between two host-class nodes.
	ShapeHostHost Shape = iota
	// ShapeHostNet attaches a host-class node1 to network-class node2.
	ShapeHostNet
	// ShapeNetHost attaches a host-class node2 to network-class node1.
	ShapeNetHost
	// ShapeNetNet bridges two network-class nodes with a pseudo-interface.
	ShapeNetNet
	// ShapeHostTunnel links a host-class node to a remote peer through a
	// distributed-controller-resolved tunnel node.
	ShapeHostTunnel
	// ShapeWireless is a link in which at least one endpoint is a
	// wireless/EMANE network node; a link between two host-class nodes is
	// always ShapeHostHost.
	ShapeWireless
)

func (s Shape) String() string {
	switch s {
	case ShapeHostHost:
		return "host-host"
	case ShapeHostNet:
		return "host-net"
	case ShapeNetHost:
		return "net-host"
	case ShapeNetNet:
		return "net-net"
	case ShapeHostTunnel:
		return "host-tunnel"
	case ShapeWireless:
		return "wireless"
	default:
		return "unknown"
	}
}

// Endpoints holds the resolved nodes for a link request. Node1/Node2
// mirror the request's node1/node2 order; Tunnel is set only for
// ShapeHostTunnel.
type Endpoints struct {
	Shape  Shape
	Node1  *node.Node
	Node2  *node.Node
	Tunnel *node.Node
}

// LockHosts locks every host-class endpoint (Node1/Node2 when
// host-class, and Tunnel) in a fixed order (lowest id first) to avoid
// lock-order deadlocks when two link requests touch the same pair of
// nodes in opposite order.
func (e Endpoints) LockHosts() {
	for _, n := range e.lockOrder() {
		n.Lock()
	}
}

// UnlockHosts reverses LockHosts.
func (e Endpoints) UnlockHosts() {
	order := e.lockOrder()
	for i := len(order) - 1; i >= 0; i-- {
		order[i].Unlock()
	}
}

func (e Endpoints) lockOrder() []*node.Node {
	var hosts []*node.Node
	if e.Node1.Class.IsLinkHostEndpoint() {
		hosts = append(hosts, e.Node1)
	}
	if e.Node2.Class.IsLinkHostEndpoint() {
		hosts = append(hosts, e.Node2)
	}
	if e.Tunnel != nil {
		hosts = append(hosts, e.Tunnel)
	}
	if len(hosts) == 2 && hosts[0].ID > hosts[1].ID {
		hosts[0], hosts[1] = hosts[1], hosts[0]
	}
	if len(hosts) == 2 {
		check.Assertf(hosts[0].ID < hosts[1].ID, "lockOrder: %d and %d not strictly ordered", hosts[0].ID, hosts[1].ID)
	}
	return hosts
}

// Registry is the subset of node.Registry classify needs.
type Registry interface {
	Get(id coreemu.NodeID) (*node.Node, error)
}

// Classify resolves node1Id/node2Id into Endpoints. distributed may be
// nil; it is only consulted when exactly one of the two nodes is found
// locally, which signals a cross-session (tunneled) link. When neither
// node is found, Classify fails with coreemu.ErrUnknownNode.
func Classify(reg Registry, node1ID, node2ID coreemu.NodeID, distributed node.DistributedController) (Endpoints, error) {
	n1, err1 := reg.Get(node1ID)
	n2, err2 := reg.Get(node2ID)

	switch {
	case err1 == nil && err2 == nil:
		return classifyLocal(n1, n2)
	case err1 == nil && err2 != nil:
		return classifyTunnel(reg, n1, node2ID, distributed)
	case err1 != nil && err2 == nil:
		return classifyTunnel(reg, n2, node1ID, distributed)
	default:
		return Endpoints{}, fmt.Errorf("link %d-%d: %w", node1ID, node2ID, coreemu.ErrUnknownNode)
	}
}

func classifyLocal(n1, n2 *node.Node) (Endpoints, error) {
	h1, h2 := n1.Class.IsHostClass(), n2.Class.IsHostClass()
	w1, w2 := n1.Class.IsWireless(), n2.Class.IsWireless()

	switch {
	case h1 && h2:
		return Endpoints{Shape: ShapeHostHost, Node1: n1, Node2: n2}, nil
	case w1 || w2:
		return Endpoints{Shape: ShapeWireless, Node1: n1, Node2: n2}, nil
	case n1.Class.IsLinkHostEndpoint() && n2.Class.IsNetworkClass():
		return Endpoints{Shape: ShapeHostNet, Node1: n1, Node2: n2}, nil
	case n1.Class.IsNetworkClass() && n2.Class.IsLinkHostEndpoint():
		return Endpoints{Shape: ShapeNetHost, Node1: n1, Node2: n2}, nil
	case n1.Class.IsNetworkClass() && n2.Class.IsNetworkClass():
		return Endpoints{Shape: ShapeNetNet, Node1: n1, Node2: n2}, nil
	default:
		return Endpoints{}, &coreemu.InvalidArgumentError{
			Field:   "node1,node2",
			Message: fmt.Sprintf("unsupported link shape between %s and %s", n1.Class, n2.Class),
		}
	}
}

func classifyTunnel(reg Registry, local *node.Node, remoteID coreemu.NodeID, distributed node.DistributedController) (Endpoints, error) {
	if !local.Class.IsHostClass() {
		return Endpoints{}, &coreemu.InvalidArgumentError{
			Field:   "node1,node2",
			Message: "tunneled links require a host-class local endpoint",
		}
	}
	if distributed == nil {
		return Endpoints{}, fmt.Errorf("link to remote node %d: %w", remoteID, coreemu.ErrUnknownNode)
	}
	tunnelID, err := distributed.TunnelFor(context.Background(), remoteID)
	if err != nil {
		return Endpoints{}, fmt.Errorf("resolve tunnel for remote node %d: %w", remoteID, err)
	}
	tunnel, err := reg.Get(tunnelID)
	if err != nil {
		return Endpoints{}, fmt.Errorf("tunnel node %d: %w", tunnelID, err)
	}
	return Endpoints{Shape: ShapeHostTunnel, Node1: local, Node2: tunnel, Tunnel: tunnel}, nil
}
