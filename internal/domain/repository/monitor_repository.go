// Package repository contains the repository interfaces (ports) for data access.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
)

// MonitorRepository defines the interface for monitor persistence operations.
// Only the spec, placement and flags are stored; geometry is always derived.
//
// Example usage:
//
//	repo := memory.NewMonitorRepository()
//	monitor, err := repo.GetByID(ctx, monitorID)
type MonitorRepository interface {
	// Create persists a new monitor.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - monitor: The monitor to create
	//
	// Returns:
	//   - error: ErrDuplicateMonitor if the ID is taken
	Create(ctx context.Context, monitor *entity.Monitor) error

	// GetByID retrieves a monitor by its unique identifier.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - id: The monitor's UUID
	//
	// Returns:
	//   - *entity.Monitor: a copy of the stored monitor
	//   - error: ErrMonitorNotFound if the monitor doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Monitor, error)

	// Update persists changes to an existing monitor. The monitor's Version
	// must match the stored version; on success it is incremented.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - monitor: The monitor to update
	//
	// Returns:
	//   - error: ErrOptimisticLock if version mismatch, ErrMonitorNotFound if missing
	Update(ctx context.Context, monitor *entity.Monitor) error

	// Delete removes a monitor.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - id: The monitor's UUID
	//
	// Returns:
	//   - error: ErrMonitorNotFound if the monitor doesn't exist
	Delete(ctx context.Context, id uuid.UUID) error

	// FindAll retrieves every monitor in creation order.
	FindAll(ctx context.Context) ([]*entity.Monitor, error)

	// Count returns the number of stored monitors.
	Count(ctx context.Context) (int, error)
}
