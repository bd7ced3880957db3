package session

import (
	"context"

	"coreemu"
	"coreemu/internal/node"
)

// NodeRuntime is the capability set a session requires from an external
// node implementation. Re-exported from internal/node so callers never
// need to import an internal package to satisfy it.
type NodeRuntime = node.Runtime

// WirelessEngine is the external mobility/link-quality engine a WLAN or
// EMANE network consults.
type WirelessEngine = node.WirelessEngine

// DistributedController resolves tunnel endpoints for cross-session
// links.
type DistributedController = node.DistributedController

// ServiceBooter boots a host-class node's configured services during
// Instantiate. Session calls it once per bootable node, in parallel,
// bounded by Options' "bootparallelism" (default 8).
type ServiceBooter interface {
	Boot(ctx context.Context, id coreemu.NodeID) error
}
