package session

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"coreemu"
)

// writeStateFile overwrites the session directory's "state" marker file
// with "<numeric> <name>\n", matching the convention external tools (and
// a restarted controller) read to learn a session's last known state
// without holding a live connection to it.
func (s *Session) writeStateFile(st coreemu.State) error {
	path := filepath.Join(s.dataDir, "state")
	return os.WriteFile(path, []byte(fmt.Sprintf("%d %s\n", st, st)), 0o644)
}

// nodeDir returns the per-node directory "<id>.conf/" directly under the
// session directory, where node-scoped files (service configs, hook
// output) are written. This sits alongside, not inside, the flat
// "nodes" list file WriteNodes maintains.
func (s *Session) nodeDir(id coreemu.NodeID) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%d.conf", id))
}

// nodesListPath is the flat "nodes" file at the session directory root:
// one line per registered node, rewritten in full on every WriteNodes
// call.
func (s *Session) nodesListPath() string {
	return filepath.Join(s.dataDir, "nodes")
}

// WriteNodes rewrites the session directory's "nodes" file with one line
// per currently-registered node: "<id> <name> <apitype> <class>". This
// is the on-disk listing external tools (and a restarted controller)
// read instead of querying a live session.
func (s *Session) WriteNodes() error {
	var buf bytes.Buffer
	for _, n := range s.registry.All() {
		fmt.Fprintf(&buf, "%d %s %d %s\n", n.ID, n.Name, int(n.Class), n.Class)
	}
	path := s.nodesListPath()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("session: write nodes file: %w", err)
	}
	return nil
}

// WriteNodeFile writes data to name within id's node directory, creating
// the directory if needed, and reports the write through the file sink.
func (s *Session) WriteNodeFile(id coreemu.NodeID, name string, data []byte) error {
	dir := s.nodeDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("session: create node dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: write node file: %w", err)
	}
	s.publishFile(id, path, data)
	return nil
}

// hookScriptPath returns where a hook script for state is written before
// execution: "<state>_<name>" at the session directory root.
func (s *Session) hookScriptPath(state coreemu.State, name string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s", state, name))
}

// ThumbnailPath is where a GUI-authored scenario thumbnail is expected,
// if one was saved. The controller never generates it; it only reserves
// the path so a restart can find an existing one.
func (s *Session) ThumbnailPath() string {
	return filepath.Join(s.dataDir, "thumbnail")
}

// XMLPath is where Session.WriteDeployedXML writes the deployed-scenario
// artifact.
func (s *Session) XMLPath() string {
	return filepath.Join(s.dataDir, "session-deployed.xml")
}

// hookLogPath is where a hook run's stdout/stderr is written, replacing
// the previous run's log, named "<state>_<name>.log" to sit next to its
// script.
func (s *Session) hookLogPath(state coreemu.State, name string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.log", state, name))
}
