package coreemu

import "testing"

func TestNodeClassIsHostClass(t *testing.T) {
	cases := []struct {
		class NodeClass
		want  bool
	}{
		{NodeDefault, true},
		{NodePhysical, true},
		{NodeDocker, true},
		{NodeLXC, true},
		{NodeSwitch, false},
		{NodeRJ45, false},
	}
	for _, tc := range cases {
		if got := tc.class.IsHostClass(); got != tc.want {
			t.Errorf("%s.IsHostClass() = %v, want %v", tc.class, got, tc.want)
		}
	}
}

func TestNodeClassIsLinkHostEndpoint(t *testing.T) {
	if !NodeRJ45.IsLinkHostEndpoint() {
		t.Error("rj45 should be a valid link host endpoint")
	}
	if NodeRJ45.IsBootable() {
		t.Error("rj45 must never be bootable")
	}
	if !NodeDefault.IsBootable() {
		t.Error("default host class must be bootable")
	}
}

func TestNodeClassIsNetworkClass(t *testing.T) {
	for _, c := range []NodeClass{NodeSwitch, NodeHub, NodeWirelessLAN, NodeEmaneNet, NodePeerToPeer, NodeControlNet, NodeTapBridge, NodeTunnel} {
		if !c.IsNetworkClass() {
			t.Errorf("%s should be network-class", c)
		}
	}
	if NodeRJ45.IsNetworkClass() {
		t.Error("rj45 must not be network-class")
	}
}

func TestNodeClassIsWireless(t *testing.T) {
	if !NodeWirelessLAN.IsWireless() || !NodeEmaneNet.IsWireless() {
		t.Error("wlan and emane must report wireless")
	}
	if NodeSwitch.IsWireless() {
		t.Error("switch must not report wireless")
	}
}
