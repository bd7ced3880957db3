package coreemu

// NodeID identifies a node (host-class or network-class) within a session.
// IDs are assigned by the generator in the idgen package and are unique
// for the lifetime of a session.
type NodeID uint32

// SessionID identifies a session. Assigned by the caller that creates it.
type SessionID uint32
