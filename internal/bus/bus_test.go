package bus

import "testing"

func TestPublishNodeInvokesRegisteredSinks(t *testing.T) {
	b := New()
	var got []NodeEvent
	b.OnNode(func(ev NodeEvent) { got = append(got, ev) })

	b.PublishNode(NodeEvent{Name: "n1"})
	b.PublishNode(NodeEvent{Name: "n2"})

	if len(got) != 2 || got[0].Name != "n1" || got[1].Name != "n2" {
		t.Fatalf("got %+v, want two events n1 then n2", got)
	}
}

func TestDeregisterStopsFutureDelivery(t *testing.T) {
	b := New()
	count := 0
	id := b.OnLink(func(LinkEvent) { count++ })

	b.PublishLink(LinkEvent{})
	b.OffLink(id)
	b.PublishLink(LinkEvent{})

	if count != 1 {
		t.Fatalf("count = %d, want 1 (second publish after deregister should not be delivered)", count)
	}
}

func TestMultipleSinksAllFire(t *testing.T) {
	b := New()
	var a, c int
	b.OnException(func(ExceptionEvent) { a++ })
	b.OnException(func(ExceptionEvent) { c++ })

	b.PublishException(NewExceptionEvent("error", "test", "boom", nil))

	if a != 1 || c != 1 {
		t.Fatalf("a=%d c=%d, want both 1", a, c)
	}
}

func TestNewExceptionEventStampsCorrelationID(t *testing.T) {
	ev1 := NewExceptionEvent("error", "test", "x", nil)
	ev2 := NewExceptionEvent("error", "test", "x", nil)
	if ev1.CorrelationID == "" {
		t.Fatal("CorrelationID must not be empty")
	}
	if ev1.CorrelationID == ev2.CorrelationID {
		t.Fatal("CorrelationID must differ between occurrences")
	}
}
