// Package session implements the session controller: the orchestration
// layer that owns a session's nodes, links, hooks, control-net bridges,
// options and lifecycle state, and fans lifecycle/topology events out to
// observers. It is the only package most callers need to import; the
// internal packages it wires together (idgen, bus, hook, timer, node,
// linkres, controlnet) are implementation detail.
package session
