// Package memory provides in-process implementations of repository interfaces.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
)

// MonitorRepository stores monitors in a map guarded by a RWMutex.
// Monitors are copied on the way in and out so callers never share state
// with the store.
type MonitorRepository struct {
	mu       sync.RWMutex
	monitors map[uuid.UUID]*entity.Monitor
	order    []uuid.UUID
}

var _ repository.MonitorRepository = (*MonitorRepository)(nil)

// NewMonitorRepository creates an empty repository.
func NewMonitorRepository() *MonitorRepository {
	return &MonitorRepository{
		monitors: make(map[uuid.UUID]*entity.Monitor),
	}
}

func (r *MonitorRepository) Create(ctx context.Context, monitor *entity.Monitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if monitor == nil {
		return repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.monitors[monitor.ID]; exists {
		return repository.ErrDuplicateMonitor
	}
	r.monitors[monitor.ID] = monitor.Clone()
	r.order = append(r.order, monitor.ID)
	return nil
}

func (r *MonitorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Monitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[id]
	if !ok {
		return nil, repository.ErrMonitorNotFound
	}
	return m.Clone(), nil
}

func (r *MonitorRepository) Update(ctx context.Context, monitor *entity.Monitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if monitor == nil {
		return repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.monitors[monitor.ID]
	if !ok {
		return repository.ErrMonitorNotFound
	}
	if stored.Version != monitor.Version {
		return repository.ErrOptimisticLock
	}

	monitor.Version++
	r.monitors[monitor.ID] = monitor.Clone()
	return nil
}

func (r *MonitorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.monitors[id]; !ok {
		return repository.ErrMonitorNotFound
	}
	delete(r.monitors, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MonitorRepository) FindAll(ctx context.Context) ([]*entity.Monitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Monitor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.monitors[id].Clone())
	}
	return out, nil
}

func (r *MonitorRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.monitors), nil
}
