package session

import (
	"fmt"
	"os/user"
	"path/filepath"

	"coreemu"
)

// GetEnvironment returns the environment variables exported to every
// hook script and, when nodeID is non-nil, to commands run inside that
// node. SESSION_SHORT is the XOR-folded session id (see ShortID);
// SESSION_DIR is always absolute so a hook script can cd into it
// regardless of the caller's own working directory.
func (s *Session) GetEnvironment(nodeID *coreemu.NodeID) map[string]string {
	dir := s.dataDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	env := map[string]string{
		"SESSION":            fmt.Sprintf("%d", s.ID),
		"SESSION_SHORT":      s.ShortID(),
		"SESSION_DIR":        dir,
		"SESSION_NAME":       s.Name,
		"SESSION_FILENAME":   s.sourceFile,
		"SESSION_NODE_COUNT": fmt.Sprintf("%d", s.registry.Count()),
		"SESSION_STATE":      s.State().String(),
	}
	if u, err := user.Current(); err == nil {
		env["SESSION_USER"] = u.Username
	}
	if nodeID != nil {
		n, err := s.registry.Get(*nodeID)
		if err == nil {
			env["NODE_NUMBER"] = fmt.Sprintf("%d", n.ID)
			env["NODE_NAME"] = n.Name
		}
	}
	return env
}
