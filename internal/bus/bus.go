// Package bus implements the session's synchronous event fan-out: six
// independent sink families (node, link, file, config, generic event,
// exception), each a set of callbacks invoked in registration order on
// the publishing goroutine. There is no buffering and no channel hop —
// a slow sink slows the publisher, by design, so a caller that needs
// isolation wraps its own sink in a goroutine.
package bus

import (
	"sync"
	"time"

	"coreemu"

	"github.com/google/uuid"
)

// NodeEvent reports a node's current externally-visible state.
type NodeEvent struct {
	ID       coreemu.NodeID
	Name     string
	Class    coreemu.NodeClass
	Position coreemu.Position
	Deleted  bool
}

// LinkEvent reports a link being created, updated or removed. The
// session sets NetID to the id of the link's second endpoint for every
// shape, so for a direct host-host link it holds the peer host's id.
type LinkEvent struct {
	Node1, Node2 coreemu.NodeID
	NetID        *coreemu.NodeID
	Up, Down     coreemu.LinkParams
	Deleted      bool
}

// FileEvent reports a file written into a node's namespace, such as a
// generated config or a hook script.
type FileEvent struct {
	NodeID coreemu.NodeID
	Path   string
	Data   []byte
}

// ConfigEvent reports a change to a node's or the session's options.
type ConfigEvent struct {
	NodeID *coreemu.NodeID // nil for session-level options
	Key    string
	Value  string
}

// GenericEvent carries a named, freeform event, e.g. one fired by a
// hook script or by Session.AddEvent.
type GenericEvent struct {
	Name string
	Data map[string]string
}

// ExceptionEvent reports an error surfaced to observers rather than (or
// in addition to) being returned to a caller. CorrelationID lets
// concurrent exceptions be grepped per-occurrence in logs.
type ExceptionEvent struct {
	CorrelationID string
	Level         string
	Source        string
	Date          time.Time
	Text          string
	NodeID        *coreemu.NodeID
}

// NewExceptionEvent stamps a fresh correlation id on an exception.
func NewExceptionEvent(level, source, text string, nodeID *coreemu.NodeID) ExceptionEvent {
	return ExceptionEvent{
		CorrelationID: uuid.NewString(),
		Level:         level,
		Source:        source,
		Date:          time.Now(),
		Text:          text,
		NodeID:        nodeID,
	}
}

// SubscriptionID identifies a registered sink so it can be deregistered.
type SubscriptionID uint64

type sinkSet[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	sinks  map[uint64]func(T)
}

func (s *sinkSet[T]) register(fn func(T)) SubscriptionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sinks == nil {
		s.sinks = make(map[uint64]func(T))
	}
	id := s.nextID
	s.nextID++
	s.sinks[id] = fn
	return SubscriptionID(id)
}

func (s *sinkSet[T]) deregister(id SubscriptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sinks, uint64(id))
}

// publish invokes every registered sink, in a stable snapshot of
// registration order, synchronously on the caller's goroutine.
func (s *sinkSet[T]) publish(ev T) {
	s.mu.RLock()
	fns := make([]func(T), 0, len(s.sinks))
	for i := uint64(0); i < s.nextID; i++ {
		if fn, ok := s.sinks[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Bus is the session-wide event dispatcher.
type Bus struct {
	node      sinkSet[NodeEvent]
	link      sinkSet[LinkEvent]
	file      sinkSet[FileEvent]
	config    sinkSet[ConfigEvent]
	event     sinkSet[GenericEvent]
	exception sinkSet[ExceptionEvent]
}

// New returns an empty Bus.
func New() *Bus { return &Bus{} }

func (b *Bus) OnNode(fn func(NodeEvent)) SubscriptionID           { return b.node.register(fn) }
func (b *Bus) OffNode(id SubscriptionID)                         { b.node.deregister(id) }
func (b *Bus) PublishNode(ev NodeEvent)                          { b.node.publish(ev) }

func (b *Bus) OnLink(fn func(LinkEvent)) SubscriptionID { return b.link.register(fn) }
func (b *Bus) OffLink(id SubscriptionID)                { b.link.deregister(id) }
func (b *Bus) PublishLink(ev LinkEvent)                 { b.link.publish(ev) }

func (b *Bus) OnFile(fn func(FileEvent)) SubscriptionID { return b.file.register(fn) }
func (b *Bus) OffFile(id SubscriptionID)                { b.file.deregister(id) }
func (b *Bus) PublishFile(ev FileEvent)                 { b.file.publish(ev) }

func (b *Bus) OnConfig(fn func(ConfigEvent)) SubscriptionID { return b.config.register(fn) }
func (b *Bus) OffConfig(id SubscriptionID)                  { b.config.deregister(id) }
func (b *Bus) PublishConfig(ev ConfigEvent)                 { b.config.publish(ev) }

func (b *Bus) OnEvent(fn func(GenericEvent)) SubscriptionID { return b.event.register(fn) }
func (b *Bus) OffEvent(id SubscriptionID)                   { b.event.deregister(id) }
func (b *Bus) PublishEvent(ev GenericEvent)                 { b.event.publish(ev) }

func (b *Bus) OnException(fn func(ExceptionEvent)) SubscriptionID { return b.exception.register(fn) }
func (b *Bus) OffException(id SubscriptionID)                     { b.exception.deregister(id) }
func (b *Bus) PublishException(ev ExceptionEvent)                  { b.exception.publish(ev) }
