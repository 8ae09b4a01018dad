// Package scene provides an in-process scene graph that stands in for the
// 3D renderer. It keeps the latest node per monitor.
package scene

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/application/port"
)

// Memory is a port.SceneRenderer that records nodes instead of drawing them.
type Memory struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]port.SceneNode
	order []uuid.UUID
}

var _ port.SceneRenderer = (*Memory)(nil)

// NewMemory creates an empty scene.
func NewMemory() *Memory {
	return &Memory{nodes: make(map[uuid.UUID]port.SceneNode)}
}

// Apply implements port.SceneRenderer.
func (s *Memory) Apply(ctx context.Context, node port.SceneNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.MonitorID]; !ok {
		s.order = append(s.order, node.MonitorID)
	}
	s.nodes[node.MonitorID] = node
	return nil
}

// Remove implements port.SceneRenderer.
func (s *Memory) Remove(ctx context.Context, monitorID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[monitorID]; !ok {
		return nil
	}
	delete(s.nodes, monitorID)
	for i, id := range s.order {
		if id == monitorID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot implements port.SceneRenderer. Nodes come back in the order
// they were first applied.
func (s *Memory) Snapshot(ctx context.Context) ([]port.SceneNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]port.SceneNode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out, nil
}

// Len returns the number of nodes in the scene.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
