package session

import (
	"coreemu"
	"coreemu/internal/bus"
)

// Exception surfaces an error through the exception sink rather than (or
// in addition to) returning it to a caller — for failures that happen
// off a caller's call stack, like a hook failing during a state
// transition fired from the timed event loop.
func (s *Session) Exception(level, source, text string, nodeID *coreemu.NodeID) {
	ev := bus.NewExceptionEvent(level, source, text, nodeID)
	s.log.Warn("exception", "level", level, "source", source, "text", text, "correlation_id", ev.CorrelationID)
	s.Bus.PublishException(ev)
}

func (s *Session) publishFile(id coreemu.NodeID, path string, data []byte) {
	s.Bus.PublishFile(bus.FileEvent{NodeID: id, Path: path, Data: data})
}
