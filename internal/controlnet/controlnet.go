// Package controlnet manages the session's management bridges
// (ctrl0..ctrl3): dedicated network-class nodes used for out-of-band
// access to running nodes, separate from the emulated topology. It also
// maintains the demarcated block of control-net address entries
// core publishes into /etc/hosts so names resolve from the host.
package controlnet

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"coreemu"
	"coreemu/internal/node"
	"coreemu/pkg/ipam"
)

// CtrlBase is the node id of ctrl0; ctrl1..ctrl3 follow sequentially.
const CtrlBase coreemu.NodeID = 0xFFFF - 4

// MaxIndex is the highest control-net index (ctrl0..ctrl3).
const MaxIndex = 3

// defaultPrefixes are used when the session's Options don't override
// "controlnet<index>".
var defaultPrefixes = [MaxIndex + 1]string{
	"172.16.0.0/24",
	"172.16.1.0/24",
	"172.16.2.0/24",
	"172.16.3.0/24",
}

// Factory creates and registers a control-net network-class node with
// the given id, returning the created node. Supplied by the session,
// which owns the registry; controlnet never touches the registry
// directly so there's exactly one place node creation happens.
type Factory func(ctx context.Context, id coreemu.NodeID, name string) (*node.Node, error)

// Manager owns the lifecycle of ctrl0..ctrl3 and the control-net block
// in /etc/hosts.
type Manager struct {
	options *coreemu.Options
	create  Factory
	remove  func(ctx context.Context, id coreemu.NodeID) error

	active map[int]*node.Node
}

// New returns a Manager. options supplies per-index prefix overrides
// ("controlnet0".."controlnet3" and the base "controlnet").
func New(options *coreemu.Options, create Factory, remove func(ctx context.Context, id coreemu.NodeID) error) *Manager {
	return &Manager{
		options: options,
		create:  create,
		remove:  remove,
		active:  make(map[int]*node.Node),
	}
}

// Prefix returns the configured control-net prefix for index, falling
// back to the built-in default.
func (m *Manager) Prefix(index int) (netip.Prefix, error) {
	if index < 0 || index > MaxIndex {
		return netip.Prefix{}, fmt.Errorf("controlnet: index %d out of range [0,%d]", index, MaxIndex)
	}
	key := "controlnet"
	if index > 0 {
		key = fmt.Sprintf("controlnet%d", index)
	}
	raw := m.options.String(key, defaultPrefixes[index])
	if index == 0 {
		raw = m.options.String("controlnet0", raw)
	}
	prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("controlnet: parse prefix for index %d: %w", index, err)
	}
	return prefix, nil
}

// Ensure brings up the ctrl<index> bridge if it doesn't exist yet,
// returning its node. When confRequired is true, the bridge is only
// created if the caller actually configured it ("controlnet<index>" set
// in Options, or "controlnet" for index 0) — otherwise Ensure is a no-op
// and returns a nil node. When confRequired is false, the bridge is created
// on demand regardless of configuration; this is the mode the wireless
// engine uses to get a management bridge without the operator having to
// configure one explicitly.
func (m *Manager) Ensure(ctx context.Context, index int, confRequired bool) (*node.Node, error) {
	if n, ok := m.active[index]; ok {
		return n, nil
	}
	if confRequired && !m.configured(index) {
		return nil, nil
	}
	if _, err := m.Prefix(index); err != nil {
		return nil, err
	}
	id := CtrlBase + coreemu.NodeID(index)
	name := fmt.Sprintf("ctrl%dnet", index)
	n, err := m.create(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("controlnet: create ctrl%d: %w", index, err)
	}
	m.active[index] = n
	return n, nil
}

// configured reports whether the caller explicitly set an option key for
// this control-net index, as opposed to Prefix falling back to its
// built-in default.
func (m *Manager) configured(index int) bool {
	snap := m.options.Snapshot()
	if index == 0 {
		if _, ok := snap["controlnet"]; ok {
			return true
		}
	}
	_, ok := snap[fmt.Sprintf("controlnet%d", index)]
	return ok
}

// Remove tears down ctrl<index>, if present.
func (m *Manager) Remove(ctx context.Context, index int) error {
	n, ok := m.active[index]
	if !ok {
		return nil
	}
	delete(m.active, index)
	return m.remove(ctx, n.ID)
}

// RemoveAll tears down every active control-net bridge.
func (m *Manager) RemoveAll(ctx context.Context) error {
	for index := range m.active {
		if err := m.Remove(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

// DeriveAddress returns the control-net address assigned to nodeID on
// the given prefix: the Nth host address, where N is nodeID. This keeps
// address assignment a pure function of (prefix, node id), so it never
// needs its own allocation state.
func DeriveAddress(prefix netip.Prefix, nodeID coreemu.NodeID) (netip.Addr, error) {
	addr, err := ipam.NthAddr(prefix, uint32(nodeID))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("controlnet: %w", err)
	}
	return addr, nil
}

// hostsMarkers returns the begin/end demarcation lines for sessionID's
// control-net block in /etc/hosts, per §6: distinct per session so
// multiple sessions' blocks can coexist in the same file without
// clobbering each other.
func hostsMarkers(sessionID coreemu.SessionID) (begin, end string) {
	begin = fmt.Sprintf("# CORE session %d host entries begin", sessionID)
	end = fmt.Sprintf("# CORE session %d host entries end", sessionID)
	return begin, end
}

// PublishHosts rewrites sessionID's demarcated control-net block in the
// file at path, replacing any previous block for that session. entries
// maps a hostname to its control-net address; when remove is true the
// block is deleted entirely instead of rewritten.
func PublishHosts(path string, sessionID coreemu.SessionID, entries map[string]netip.Addr, remove bool) error {
	beginMarker, endMarker := hostsMarkers(sessionID)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("controlnet: read %s: %w", path, err)
	}

	before, _, after := splitBlock(existing, beginMarker, endMarker)

	var buf bytes.Buffer
	buf.Write(before)
	if !remove && len(entries) > 0 {
		buf.WriteString(beginMarker + "\n")
		for name, addr := range entries {
			fmt.Fprintf(&buf, "%s %s\n", addr, name)
		}
		buf.WriteString(endMarker + "\n")
	}
	buf.Write(after)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("controlnet: write %s: %w", path, err)
	}
	return nil
}

// splitBlock separates data into the content before the demarcated
// block bounded by beginMarker/endMarker, the block's lines (without
// markers, unused by callers today but kept for symmetry with
// PublishHosts' replace semantics), and the content after it. If no
// block is present, before is all of data.
func splitBlock(data []byte, beginMarker, endMarker string) (before, block, after []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var pre, mid, post bytes.Buffer
	state := 0 // 0=before, 1=inside, 2=after
	for scanner.Scan() {
		line := scanner.Text()
		switch state {
		case 0:
			if line == beginMarker {
				state = 1
				continue
			}
			pre.WriteString(line + "\n")
		case 1:
			if line == endMarker {
				state = 2
				continue
			}
			mid.WriteString(line + "\n")
		case 2:
			post.WriteString(line + "\n")
		}
	}
	return pre.Bytes(), mid.Bytes(), post.Bytes()
}
