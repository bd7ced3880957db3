package coreemu

// NodeClass distinguishes host-like emulated machines from network-like
// connective devices. It drives link-shape classification (see the
// linkres package) and which capabilities a node is expected to expose.
type NodeClass uint8

const (
	// Host-class: nodes that run services and own a filesystem namespace.
	NodeDefault NodeClass = iota
	NodePhysical
	NodeDocker
	NodeLXC

	// Network-class: connective devices with no service boot phase.
	NodeSwitch
	NodeHub
	NodeWirelessLAN
	NodeEmaneNet
	NodePeerToPeer
	NodeControlNet
	NodeTapBridge
	NodeTunnel

	// RJ45 is host-adjacent: it passes an emulated interface through to a
	// real one, so it participates in links the way a host does, but it
	// has no service boot phase and must not be scheduled by bootNodes.
	NodeRJ45
)

func (c NodeClass) String() string {
	switch c {
	case NodeDefault:
		return "default"
	case NodePhysical:
		return "physical"
	case NodeDocker:
		return "docker"
	case NodeLXC:
		return "lxc"
	case NodeSwitch:
		return "switch"
	case NodeHub:
		return "hub"
	case NodeWirelessLAN:
		return "wlan"
	case NodeEmaneNet:
		return "emane"
	case NodePeerToPeer:
		return "ptp"
	case NodeControlNet:
		return "ctrlnet"
	case NodeTapBridge:
		return "tapbridge"
	case NodeTunnel:
		return "tunnel"
	case NodeRJ45:
		return "rj45"
	default:
		return "unknown"
	}
}

// IsHostClass reports whether nodes of this class own interfaces directly
// and run services. RJ45 is deliberately excluded: it behaves like a host
// endpoint for link classification but never boots services.
func (c NodeClass) IsHostClass() bool {
	switch c {
	case NodeDefault, NodePhysical, NodeDocker, NodeLXC:
		return true
	default:
		return false
	}
}

// IsNetworkClass reports whether nodes of this class act as a connective
// medium that other nodes attach interfaces to.
func (c NodeClass) IsNetworkClass() bool {
	switch c {
	case NodeSwitch, NodeHub, NodeWirelessLAN, NodeEmaneNet, NodePeerToPeer,
		NodeControlNet, NodeTapBridge, NodeTunnel:
		return true
	default:
		return false
	}
}

// IsLinkHostEndpoint reports whether a node of this class can stand as the
// "host" side of a link (host-class nodes, plus the RJ45 passthrough).
func (c NodeClass) IsLinkHostEndpoint() bool {
	return c.IsHostClass() || c == NodeRJ45
}

// IsWireless reports whether this network-class node distributes link
// quality through a wireless/mobility engine rather than static parameters.
func (c NodeClass) IsWireless() bool {
	return c == NodeWirelessLAN || c == NodeEmaneNet
}

// IsBootable reports whether nodes of this class go through the service
// boot phase during instantiate(). RJ45 and all network-class nodes do not.
func (c NodeClass) IsBootable() bool {
	return c.IsHostClass()
}
