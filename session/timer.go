package session

import (
	"time"

	"coreemu/internal/timer"
)

// EventHandle lets a caller cancel a previously scheduled event.
type EventHandle = timer.Handle

// AddEvent schedules fn to run once, after d elapses, on the session's
// timed event loop. The loop is started by Instantiate and stopped by
// Shutdown; scheduling before Instantiate queues the event without
// error, it simply won't fire until the loop starts.
func (s *Session) AddEvent(d time.Duration, name string, fn func()) EventHandle {
	return s.timer.Schedule(d, func() {
		s.log.Debug("timed event fired", "name", name)
		fn()
	})
}

// CancelEvent cancels a previously scheduled event. Returns false if it
// already fired.
func (s *Session) CancelEvent(h EventHandle) bool {
	return s.timer.Cancel(h)
}
