package session

import (
	"context"
	"fmt"

	"coreemu"
	"coreemu/internal/bus"
	"coreemu/internal/node"
)

// AddNodeRequest describes a node to create. ID is optional: zero means
// "assign the next sequential id".
type AddNodeRequest struct {
	ID       coreemu.NodeID
	Class    coreemu.NodeClass
	Name     string
	Position coreemu.Position
	Model    string
	Services []string
}

// AddNode creates and registers a node. RJ45 nodes additionally require
// the session option "enablerj45" to be true, since they grant direct
// access to a real host interface.
func (s *Session) AddNode(req AddNodeRequest) (*node.Node, error) {
	if req.Name == "" {
		return nil, &coreemu.InvalidArgumentError{Field: "name", Message: "must not be empty"}
	}
	if req.Class == coreemu.NodeRJ45 && !s.Options.Bool("enablerj45", false) {
		return nil, &coreemu.InvalidArgumentError{
			Field:   "class",
			Message: "rj45 nodes require session option enablerj45=true",
		}
	}

	id := req.ID
	if id == 0 {
		var err error
		id, err = s.ids.Next(s.registry.IsLive)
		if err != nil {
			return nil, err
		}
	} else if s.registry.IsLive(id) {
		return nil, fmt.Errorf("node %d: %w", id, coreemu.ErrDuplicateID)
	}

	runtime := s.runtimeFactory(req.Class, req.Name)
	n := node.New(id, req.Class, req.Name, runtime)
	n.Position = req.Position
	n.Model = req.Model
	n.Services = append([]string(nil), req.Services...)

	if err := s.registry.Add(n); err != nil {
		_ = n.Runtime.Shutdown(context.Background())
		return nil, err
	}

	s.Bus.PublishNode(bus.NodeEvent{ID: id, Name: n.Name, Class: n.Class, Position: n.Position})
	return n, nil
}

// GetNode returns the node with id.
func (s *Session) GetNode(id coreemu.NodeID) (*node.Node, error) {
	return s.registry.Get(id)
}

// NodeCount returns the number of registered nodes.
func (s *Session) NodeCount() int {
	return s.registry.Count()
}

// Nodes returns every registered node, in an unspecified order.
func (s *Session) Nodes() []*node.Node {
	return s.registry.All()
}

// EditNode updates the mutable presentation fields of an existing node:
// position, canvas, icon and opaque data. It does not touch topology.
func (s *Session) EditNode(id coreemu.NodeID, position coreemu.Position, canvas, icon, opaque string) error {
	n, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	n.Lock()
	n.Position = position
	n.Canvas = canvas
	n.Icon = icon
	n.Opaque = opaque
	n.Unlock()

	s.Bus.PublishNode(bus.NodeEvent{ID: id, Name: n.Name, Class: n.Class, Position: position})
	return nil
}

// DeleteNode shuts down and removes a single node.
func (s *Session) DeleteNode(ctx context.Context, id coreemu.NodeID) error {
	n, err := s.registry.Get(id)
	if err != nil {
		return err
	}
	if err := s.registry.Remove(ctx, id); err != nil {
		return err
	}
	s.Bus.PublishNode(bus.NodeEvent{ID: id, Name: n.Name, Class: n.Class, Deleted: true})
	return nil
}

// DeleteAllNodes shuts down and removes every node in the session,
// bounded by Options' "shutdownparallelism" (default 8).
func (s *Session) DeleteAllNodes(ctx context.Context) error {
	parallel := s.Options.Int("shutdownparallelism", 8)
	return s.registry.RemoveAll(ctx, parallel)
}
