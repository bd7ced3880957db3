package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coreemu"

	"golang.org/x/sync/errgroup"
)

// Registry owns every node in a session by id. A single registry-level
// lock guards the id-to-node map itself (insert/delete/lookup); each
// Node's own lock then guards that node's fields. A caller doing a
// multi-node operation (e.g. resolving a link) takes the registry lock
// only while looking up the nodes involved, then locks those nodes and
// holds only the node locks for the rest of the operation — so registry
// mutations never block on a slow node operation elsewhere.
type Registry struct {
	mu    sync.RWMutex
	nodes map[coreemu.NodeID]*Node
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[coreemu.NodeID]*Node)}
}

// IsLive reports whether id is currently registered. Satisfies
// idgen.LiveChecker.
func (r *Registry) IsLive(id coreemu.NodeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nodes[id]
	return ok
}

// Add registers n. Returns coreemu.ErrDuplicateID if n.ID is already in
// use.
func (r *Registry) Add(n *Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[n.ID]; ok {
		return coreemu.ErrDuplicateID
	}
	r.nodes[n.ID] = n
	return nil
}

// Get returns the node with id, or coreemu.ErrUnknownNode.
func (r *Registry) Get(id coreemu.NodeID) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, coreemu.ErrUnknownNode)
	}
	return n, nil
}

// Delete removes id from the registry without shutting it down. Callers
// that need shutdown semantics should use Remove.
func (r *Registry) Delete(id coreemu.NodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
}

// All returns every registered node, in an unspecified order.
func (r *Registry) All() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// Count returns the number of registered nodes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Remove shuts n down via its Runtime and removes it from the registry.
// Shutdown happens outside the registry lock so a slow runtime teardown
// doesn't stall other registry operations.
func (r *Registry) Remove(ctx context.Context, id coreemu.NodeID) error {
	n, err := r.Get(id)
	if err != nil {
		return err
	}

	n.Lock()
	err = n.Runtime.Shutdown(ctx)
	n.Unlock()

	r.Delete(id)
	return err
}

// RemoveAll shuts down and removes every registered node concurrently,
// bounded by maxParallel, and joins every shutdown error. Used by
// Session.Shutdown and Session.Clear to drain a session's nodes.
func (r *Registry) RemoveAll(ctx context.Context, maxParallel int) error {
	nodes := r.All()

	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for _, n := range nodes {
		n := n
		g.Go(func() error {
			n.Lock()
			err := n.Runtime.Shutdown(ctx)
			n.Unlock()
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("node %d: %w", n.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	r.nodes = make(map[coreemu.NodeID]*Node)
	r.mu.Unlock()

	return errors.Join(errs...)
}
