package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"coreemu"
	"coreemu/internal/bus"
	"coreemu/internal/controlnet"
	"coreemu/internal/hook"
	"coreemu/internal/idgen"
	"coreemu/internal/node"
	"coreemu/internal/timer"
)

// RuntimeFactory builds the external Runtime for a newly created node.
// The default factory returns node.NoopRuntime{} so a Session is usable
// with no external collaborators at all, which is what most of this
// package's own tests rely on.
type RuntimeFactory func(class coreemu.NodeClass, name string) node.Runtime

func defaultRuntimeFactory(coreemu.NodeClass, string) node.Runtime {
	return node.NoopRuntime{}
}

// Session is the controller for one emulated network: it owns node and
// link lifecycle, hooks, control-net bridges, and the session directory
// on disk, and reports everything it does through its event Bus.
type Session struct {
	ID   coreemu.SessionID
	Name string

	dataDir    string
	sourceFile string
	log        *slog.Logger

	Options *coreemu.Options
	Bus     *bus.Bus

	registry *node.Registry
	ids      *idgen.Generator
	hooks    *hook.Registry
	timer    *timer.Loop

	runtimeFactory RuntimeFactory
	wireless       WirelessEngine
	distributed    DistributedController
	serviceBooter  ServiceBooter

	controlnet *controlnet.Manager

	mu          sync.Mutex
	state       coreemu.State
	runtimeSince time.Time
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithDataDir sets the session directory root. Defaults to
// "<os.TempDir()>/core-session-<id>".
func WithDataDir(dir string) Option { return func(s *Session) { s.dataDir = dir } }

// WithOptions seeds the session's Options store.
func WithOptions(o *coreemu.Options) Option { return func(s *Session) { s.Options = o } }

// WithSourceFile records the path of the scenario file this session was
// loaded from, if any. Exported to hook scripts as SESSION_FILENAME.
func WithSourceFile(path string) Option { return func(s *Session) { s.sourceFile = path } }

// WithRuntimeFactory overrides how a Runtime is built for newly created
// nodes.
func WithRuntimeFactory(f RuntimeFactory) Option {
	return func(s *Session) { s.runtimeFactory = f }
}

// WithWirelessEngine attaches the external wireless/mobility engine.
func WithWirelessEngine(w WirelessEngine) Option { return func(s *Session) { s.wireless = w } }

// WithDistributedController attaches the external tunnel resolver for
// cross-session links.
func WithDistributedController(d DistributedController) Option {
	return func(s *Session) { s.distributed = d }
}

// WithServiceBooter attaches the service boot collaborator used by
// Instantiate.
func WithServiceBooter(b ServiceBooter) Option { return func(s *Session) { s.serviceBooter = b } }

// New creates a Session in StateDefinition. The session directory is
// created on disk immediately so hook and file operations have
// somewhere to land.
func New(id coreemu.SessionID, name string, opts ...Option) (*Session, error) {
	s := &Session{
		ID:             id,
		Name:           name,
		Options:        coreemu.NewOptions(nil),
		Bus:            bus.New(),
		registry:       node.NewRegistry(),
		ids:            idgen.NewGenerator(),
		timer:          timer.New(),
		runtimeFactory: defaultRuntimeFactory,
		state:          coreemu.StateDefinition,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dataDir == "" {
		s.dataDir = filepath.Join(os.TempDir(), fmt.Sprintf("core-session-%d", id))
	}
	s.log = slog.With("component", "session", "session", id)

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create data dir: %w", err)
	}

	s.hooks = hook.NewRegistry(hook.ExecRunner{Dir: s.dataDir})
	s.controlnet = controlnet.New(s.Options, s.createControlNetNode, s.removeControlNetNode)

	s.registerRuntimeHook()
	return s, nil
}

// DataDir returns the session's directory on disk.
func (s *Session) DataDir() string { return s.dataDir }

// ShortID returns the 8-bit XOR fold of the session id, used to build
// interface-name-safe tokens and the SESSION_SHORT hook environment
// variable.
func (s *Session) ShortID() string {
	v := uint32(s.ID)
	folded := byte(v) ^ byte(v>>8) ^ byte(v>>16) ^ byte(v>>24)
	return fmt.Sprintf("%x", folded)
}

// DumpSession logs a one-line summary of the session's identity, state
// and node count. Intended for an operator inspecting a running
// controller, not for machine consumption.
func (s *Session) DumpSession() {
	s.log.Info("session",
		"name", s.Name,
		"state", s.State(),
		"nodes", s.registry.Count(),
	)
}
