package session

import (
	"encoding/xml"
	"fmt"
	"os"

	"coreemu"
)

// xmlScenario is the fixed schema for the deployed-scenario artifact.
// It is intentionally small: a snapshot of what actually ended up
// running, not a general scenario-authoring format.
type xmlScenario struct {
	XMLName xml.Name  `xml:"scenario"`
	Session uint32    `xml:"session,attr"`
	Name    string    `xml:"name,attr"`
	State   string    `xml:"state,attr"`
	Nodes   []xmlNode `xml:"nodes>node"`
	Links   []xmlLink `xml:"links>link"`
}

type xmlNode struct {
	ID    uint32  `xml:"id,attr"`
	Name  string  `xml:"name,attr"`
	Class string  `xml:"class,attr"`
	X     float64 `xml:"x,attr"`
	Y     float64 `xml:"y,attr"`
}

type xmlLink struct {
	Node1 uint32 `xml:"node1,attr"`
	Node2 uint32 `xml:"node2,attr"`
}

// WriteDeployedXML writes the session's current node and link topology
// to XMLPath(). It is called automatically on entering RUNTIME; callers
// may also call it directly, e.g. before DataCollect.
func (s *Session) WriteDeployedXML() error {
	scenario := xmlScenario{
		Session: uint32(s.ID),
		Name:    s.Name,
		State:   s.State().String(),
	}

	seenLinks := make(map[[2]coreemu.NodeID]bool)
	for _, n := range s.registry.All() {
		scenario.Nodes = append(scenario.Nodes, xmlNode{
			ID: uint32(n.ID), Name: n.Name, Class: n.Class.String(),
			X: n.Position.X, Y: n.Position.Y,
		})
		for _, ifc := range n.Interfaces {
			if ifc.NetID == nil {
				continue
			}
			key := linkKey(n.ID, *ifc.NetID)
			if seenLinks[key] {
				continue
			}
			seenLinks[key] = true
			scenario.Links = append(scenario.Links, xmlLink{Node1: uint32(n.ID), Node2: uint32(*ifc.NetID)})
		}
	}

	data, err := xml.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal deployed xml: %w", err)
	}
	if err := os.WriteFile(s.XMLPath(), data, 0o644); err != nil {
		return fmt.Errorf("session: write deployed xml: %w", err)
	}
	return nil
}

func linkKey(a, b coreemu.NodeID) [2]coreemu.NodeID {
	if a < b {
		return [2]coreemu.NodeID{a, b}
	}
	return [2]coreemu.NodeID{b, a}
}
