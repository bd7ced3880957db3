// Package node defines the Node and Interface data model and the
// session-wide Registry that owns them by id.
//
// Node is a concrete struct, not an interface: per the data model notes,
// nodes live in an arena owned by the Registry and are referenced by id
// everywhere else (interfaces record the owning node's id, not a
// pointer-shaped back-reference). The *behavior* an external node
// implementation contributes — actually creating a namespace, running a
// command, tearing a node down — is injected through the Runtime port,
// so Node itself never touches the operating system.
//
// Node exposes Lock/Unlock directly rather than wrapping every accessor:
// callers (the session package) hold the lock for the duration of a
// multi-step operation (e.g. add a link: lock both endpoints, mutate
// both, unlock both), so an internal re-lock would deadlock. Methods that
// change a Node's interface table (NewInterface, DelInterface) assume the
// caller already holds the lock.
package node

import (
	"sync"

	"coreemu"
)

// Interface is a single network interface, owned by exactly one node and
// attached to at most one network (NetID nil means unattached).
type Interface struct {
	Index   int
	Name    string
	MAC     string
	Addrs   []string // CIDR strings; net/netip.Prefix at the edges
	Up      coreemu.LinkParams
	Down    coreemu.LinkParams
	NodeID  coreemu.NodeID
	NetID   *coreemu.NodeID
	Control bool
}

// Node is a host-class or network-class node. Host-class nodes use
// Interfaces to record what they're plugged into; network-class nodes
// use it both for host-attached interfaces and, for N-N links, for the
// pseudo-interface link_to produces (owner is this node, NetID is the
// peer network).
type Node struct {
	mu sync.Mutex

	ID       coreemu.NodeID
	Class    coreemu.NodeClass
	Name     string
	Model    string
	Position coreemu.Position
	Canvas   string
	Icon     string
	Opaque   string
	Services []string
	Options  *coreemu.Options

	Runtime Runtime

	Interfaces  map[int]*Interface
	nextIfIndex int
}

// New builds a Node. A nil runtime installs NoopRuntime.
func New(id coreemu.NodeID, class coreemu.NodeClass, name string, runtime Runtime) *Node {
	if runtime == nil {
		runtime = NoopRuntime{}
	}
	return &Node{
		ID:         id,
		Class:      class,
		Name:       name,
		Options:    coreemu.NewOptions(nil),
		Runtime:    runtime,
		Interfaces: make(map[int]*Interface),
	}
}

// Lock acquires the node's lock. Every link/edit/delete operation on a
// node holds this for its entire duration.
func (n *Node) Lock() { n.mu.Lock() }

// Unlock releases the node's lock.
func (n *Node) Unlock() { n.mu.Unlock() }

// NewInterface allocates the next free interface index on n and returns
// it. Caller must hold n's lock.
func (n *Node) NewInterface() *Interface {
	idx := n.nextIfIndex
	n.nextIfIndex++
	ifc := &Interface{Index: idx, NodeID: n.ID}
	n.Interfaces[idx] = ifc
	return ifc
}

// Interface returns the interface at ifindex, or nil.
func (n *Node) Interface(ifindex int) *Interface {
	return n.Interfaces[ifindex]
}

// DelInterface removes the interface at ifindex. Caller must hold n's
// lock.
func (n *Node) DelInterface(ifindex int) {
	delete(n.Interfaces, ifindex)
}

// CommonNetworks returns the network-class node ids that both n and
// other have an interface attached to. Caller must hold n's lock; other
// is read without its lock, so callers resolving a link must lock both
// endpoints before calling this on either.
func (n *Node) CommonNetworks(other *Node) []coreemu.NodeID {
	mine := make(map[coreemu.NodeID]bool)
	for _, ifc := range n.Interfaces {
		if ifc.NetID != nil {
			mine[*ifc.NetID] = true
		}
	}
	var common []coreemu.NodeID
	for _, ifc := range other.Interfaces {
		if ifc.NetID != nil && mine[*ifc.NetID] {
			common = append(common, *ifc.NetID)
		}
	}
	return common
}
