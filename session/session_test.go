package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coreemu"
	"coreemu/internal/bus"
	"coreemu/internal/fake"
	"coreemu/internal/node"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	allOpts := append([]Option{WithDataDir(t.TempDir())}, opts...)
	s, err := New(1000, "test-session", allOpts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewCreatesSessionDirectory(t *testing.T) {
	s := newTestSession(t)
	if _, err := os.Stat(s.DataDir()); err != nil {
		t.Fatalf("session directory not created: %v", err)
	}
	if s.State() != coreemu.StateDefinition {
		t.Fatalf("initial state = %s, want definition", s.State())
	}
}

func TestAddNodeRejectsEmptyName(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault}); err == nil {
		t.Fatal("AddNode should reject an empty name")
	}
}

func TestAddNodeRJ45RequiresOption(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeRJ45, Name: "eth0"}); err == nil {
		t.Fatal("AddNode should reject rj45 without enablerj45=true")
	}

	s2 := newTestSession(t)
	s2.Options.Set("enablerj45", "true")
	if _, err := s2.AddNode(AddNodeRequest{Class: coreemu.NodeRJ45, Name: "eth0"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
}

func TestAddNodeAssignsSequentialIDs(t *testing.T) {
	s := newTestSession(t)
	n1, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	n2, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n2"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if n1.ID != 1 || n2.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", n1.ID, n2.ID)
	}
	if s.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", s.NodeCount())
	}
}

func TestAddLinkHostHostCreatesSymmetricInterfaces(t *testing.T) {
	s := newTestSession(t)
	n1, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"})
	n2, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n2"})

	shape, err := s.AddLink(context.Background(), LinkRequest{
		Node1ID: n1.ID, Node2ID: n2.ID,
		Iface1Addrs: []string{"10.0.0.1/24"}, Iface2Addrs: []string{"10.0.0.2/24"},
	})
	if err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if shape.String() != "host-host" {
		t.Fatalf("Shape = %s, want host-host", shape)
	}

	if len(n1.Interfaces) != 1 || len(n2.Interfaces) != 1 {
		t.Fatalf("expected one interface per host, got %d and %d", len(n1.Interfaces), len(n2.Interfaces))
	}
}

func TestDeleteLinkRemovesBothInterfaces(t *testing.T) {
	s := newTestSession(t)
	n1, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"})
	n2, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n2"})

	if _, err := s.AddLink(context.Background(), LinkRequest{Node1ID: n1.ID, Node2ID: n2.ID}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := s.DeleteLink(context.Background(), n1.ID, n2.ID); err != nil {
		t.Fatalf("DeleteLink: %v", err)
	}
	if len(n1.Interfaces) != 0 || len(n2.Interfaces) != 0 {
		t.Fatal("DeleteLink should remove both endpoints' interfaces")
	}
}

func TestDeleteLinkWithNoCommonNetworkFails(t *testing.T) {
	s := newTestSession(t)
	n1, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"})
	n2, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n2"})

	if err := s.DeleteLink(context.Background(), n1.ID, n2.ID); err == nil {
		t.Fatal("DeleteLink should fail when no link exists")
	}
}

func TestUpdateLinkRejectsWireless(t *testing.T) {
	s := newTestSession(t)
	h, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "h1"})
	wlan, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeWirelessLAN, Name: "wlan1"})

	if _, err := s.AddLink(context.Background(), LinkRequest{Node1ID: h.ID, Node2ID: wlan.ID}); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	err := s.UpdateLink(context.Background(), LinkRequest{
		Node1ID: h.ID, Node2ID: wlan.ID,
		Up: coreemu.LinkParams{BandwidthBPS: 1000},
	})
	if err != coreemu.ErrCannotUpdateWireless {
		t.Fatalf("UpdateLink = %v, want ErrCannotUpdateWireless", err)
	}
}

func TestLifecycleReachesRuntimeAndBootsServices(t *testing.T) {
	booter := &fake.ServiceBooter{}
	s := newTestSession(t, WithServiceBooter(booter))
	n, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "h1"})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	if err := s.SetState(context.Background(), coreemu.StateConfiguration, false); err != nil {
		t.Fatalf("SetState(configuration): %v", err)
	}
	if err := s.Instantiate(context.Background()); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if s.State() != coreemu.StateRuntime {
		t.Fatalf("State() = %s, want runtime", s.State())
	}
	if len(booter.Booted) != 1 || booter.Booted[0] != n.ID {
		t.Fatalf("Booted = %v, want [%d]", booter.Booted, n.ID)
	}
	if _, err := os.Stat(s.XMLPath()); err != nil {
		t.Fatalf("deployed xml should be written on entering runtime: %v", err)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if s.State() != coreemu.StateShutdown {
		t.Fatalf("State() = %s, want shutdown", s.State())
	}
	if s.NodeCount() != 0 {
		t.Fatalf("NodeCount() = %d, want 0 after Shutdown", s.NodeCount())
	}
}

func TestClearReturnsToDefinitionAndResetsIDs(t *testing.T) {
	s := newTestSession(t)
	n1, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"})
	if n1.ID != 1 {
		t.Fatalf("first id = %d, want 1", n1.ID)
	}

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.State() != coreemu.StateDefinition {
		t.Fatalf("State() after Clear = %s, want definition", s.State())
	}
	if s.NodeCount() != 0 {
		t.Fatalf("NodeCount() after Clear = %d, want 0", s.NodeCount())
	}

	n2, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n2"})
	if err != nil {
		t.Fatalf("AddNode after Clear: %v", err)
	}
	if n2.ID != 1 {
		t.Fatalf("id after Clear = %d, want 1 (generator should reset)", n2.ID)
	}
}

func TestIsActiveOnlyDuringRuntimeAndDataCollect(t *testing.T) {
	s := newTestSession(t)
	if s.IsActive() {
		t.Fatal("session should not be active in definition")
	}

	if err := s.SetState(context.Background(), coreemu.StateConfiguration, false); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := s.Instantiate(context.Background()); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if !s.IsActive() {
		t.Fatal("session should be active in runtime")
	}

	if err := s.DataCollect(context.Background()); err != nil {
		t.Fatalf("DataCollect: %v", err)
	}
	if !s.IsActive() {
		t.Fatal("session should be active in datacollect")
	}
}

func TestAddStateHookFiresImmediatelyWhenAlreadyInState(t *testing.T) {
	s := newTestSession(t)
	fired := 0
	if err := s.AddStateHook(coreemu.StateDefinition, func(coreemu.State) { fired++ }); err != nil {
		t.Fatalf("AddStateHook: %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
}

func TestEventBusReceivesNodeEvents(t *testing.T) {
	s := newTestSession(t)
	var nodeEvents int
	s.Bus.OnNode(func(ev bus.NodeEvent) { nodeEvents++ })

	if _, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "n1"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if nodeEvents != 1 {
		t.Fatalf("nodeEvents = %d, want 1", nodeEvents)
	}
}

func TestGetEnvironmentIncludesSessionAndNodeVars(t *testing.T) {
	s := newTestSession(t, WithSourceFile("/tmp/topo.xml"))
	n, _ := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "h1"})

	env := s.GetEnvironment(&n.ID)
	if env["SESSION_NAME"] != "test-session" {
		t.Fatalf("SESSION_NAME = %q, want test-session", env["SESSION_NAME"])
	}
	if env["NODE_NAME"] != "h1" {
		t.Fatalf("NODE_NAME = %q, want h1", env["NODE_NAME"])
	}
	if env["SESSION_DIR"] != s.DataDir() {
		t.Fatalf("SESSION_DIR = %q, want %q", env["SESSION_DIR"], s.DataDir())
	}
	if env["SESSION_FILENAME"] != "/tmp/topo.xml" {
		t.Fatalf("SESSION_FILENAME = %q, want /tmp/topo.xml", env["SESSION_FILENAME"])
	}
	if env["SESSION_NODE_COUNT"] != "1" {
		t.Fatalf("SESSION_NODE_COUNT = %q, want 1", env["SESSION_NODE_COUNT"])
	}
}

func TestSetStateIsNoOpWhenUnchanged(t *testing.T) {
	s := newTestSession(t)
	var fired int
	if err := s.AddStateHook(coreemu.StateDefinition, func(coreemu.State) { fired++ }); err != nil {
		t.Fatalf("AddStateHook: %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 after registering in the current state", fired)
	}

	var events int
	s.Bus.OnEvent(func(bus.GenericEvent) { events++ })

	if err := s.SetState(context.Background(), coreemu.StateDefinition, true); err != nil {
		t.Fatalf("SetState (no-op): %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired = %d after a same-state SetState, want 1 (no re-fire)", fired)
	}
	if events != 0 {
		t.Fatalf("events = %d after a same-state SetState, want 0 (no publish)", events)
	}
}

func TestSetStateSendEventGatesPublish(t *testing.T) {
	s := newTestSession(t)
	var events int
	s.Bus.OnEvent(func(bus.GenericEvent) { events++ })

	if err := s.SetState(context.Background(), coreemu.StateConfiguration, false); err != nil {
		t.Fatalf("SetState(sendEvent=false): %v", err)
	}
	if events != 0 {
		t.Fatalf("events = %d, want 0 when sendEvent=false", events)
	}

	if err := s.SetState(context.Background(), coreemu.StateInstantiation, true); err != nil {
		t.Fatalf("SetState(sendEvent=true): %v", err)
	}
	if events != 1 {
		t.Fatalf("events = %d, want 1 when sendEvent=true", events)
	}
}

func TestStateFileContainsNumberAndName(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetState(context.Background(), coreemu.StateConfiguration, false); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.DataDir(), "state"))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	want := fmt.Sprintf("%d %s\n", coreemu.StateConfiguration, coreemu.StateConfiguration)
	if string(data) != want {
		t.Fatalf("state file = %q, want %q", data, want)
	}
}

func TestAddNodeShutsDownRejectedDuplicate(t *testing.T) {
	var runtimes []*fake.Runtime
	s := newTestSession(t, WithRuntimeFactory(func(coreemu.NodeClass, string) node.Runtime {
		rt := &fake.Runtime{}
		runtimes = append(runtimes, rt)
		return rt
	}))

	if _, err := s.AddNode(AddNodeRequest{ID: 5, Class: coreemu.NodeDefault, Name: "n1"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := s.AddNode(AddNodeRequest{ID: 5, Class: coreemu.NodeDefault, Name: "dup"}); err == nil {
		t.Fatal("AddNode should reject a duplicate id")
	}
	if len(runtimes) != 2 {
		t.Fatalf("runtime factory invoked %d times, want 2", len(runtimes))
	}
	if runtimes[0].ShutdownCalls != 0 {
		t.Fatalf("the first node's runtime should be untouched, ShutdownCalls = %d", runtimes[0].ShutdownCalls)
	}
	if runtimes[1].ShutdownCalls != 1 {
		t.Fatalf("the rejected duplicate's runtime should be shut down, ShutdownCalls = %d", runtimes[1].ShutdownCalls)
	}
}

func TestInstantiatePublishesInstantiationCompleteAndEntersRuntime(t *testing.T) {
	booter := &fake.ServiceBooter{}
	s := newTestSession(t, WithServiceBooter(booter))
	if _, err := s.AddNode(AddNodeRequest{Class: coreemu.NodeDefault, Name: "h1"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	var completed int
	s.Bus.OnEvent(func(ev bus.GenericEvent) {
		if ev.Name == "INSTANTIATION_COMPLETE" {
			completed++
		}
	})

	if err := s.Instantiate(context.Background()); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if s.State() != coreemu.StateRuntime {
		t.Fatalf("State() = %s, want runtime", s.State())
	}
	if completed != 1 {
		t.Fatalf("INSTANTIATION_COMPLETE published %d times, want 1", completed)
	}

	data, err := os.ReadFile(filepath.Join(s.DataDir(), "nodes"))
	if err != nil {
		t.Fatalf("nodes file not written: %v", err)
	}
	if !strings.Contains(string(data), "h1") {
		t.Fatalf("nodes file = %q, want it to list node h1", data)
	}
}

func TestInstantiateStopsAtNotReadyWireless(t *testing.T) {
	wireless := &fake.WirelessEngine{NotReady: true}
	s := newTestSession(t, WithWirelessEngine(wireless))

	if err := s.Instantiate(context.Background()); err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if s.State() != coreemu.StateInstantiation {
		t.Fatalf("State() = %s, want instantiation (should not advance past NOT_READY)", s.State())
	}
	if wireless.StartupCalls != 1 {
		t.Fatalf("StartupCalls = %d, want 1", wireless.StartupCalls)
	}

	wireless.NotReady = false
	if err := s.Instantiate(context.Background()); err != nil {
		t.Fatalf("Instantiate (retry): %v", err)
	}
	if s.State() != coreemu.StateRuntime {
		t.Fatalf("State() = %s, want runtime after wireless becomes ready", s.State())
	}
}

func TestShutdownRemovesSessionDirUnlessPreserved(t *testing.T) {
	s := newTestSession(t)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := os.Stat(s.DataDir()); !os.IsNotExist(err) {
		t.Fatalf("session directory should be removed after shutdown, stat err = %v", err)
	}
}

func TestShutdownPreservesSessionDirWhenOptionSet(t *testing.T) {
	opts := coreemu.NewOptions(map[string]string{"preservedir": "true"})
	s := newTestSession(t, WithOptions(opts))
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := os.Stat(s.DataDir()); err != nil {
		t.Fatalf("session directory should be preserved after shutdown: %v", err)
	}
}
