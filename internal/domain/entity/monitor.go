// Package entity contains the core business entities of the domain layer.
package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
)

// ErrMonitorLocked is returned when moving or rotating a locked monitor.
var ErrMonitorLocked = errors.New("monitor is locked")

// Monitor is a virtual monitor placed above the desk.
// The panel geometry is not stored; it is re-derived from Spec on demand.
type Monitor struct {
	// ID is the unique identifier for the monitor
	ID uuid.UUID `json:"id"`

	// Name is the display name shown on the label texture
	Name string `json:"name"`

	// Spec is the current configuration revision
	Spec valueobject.MonitorSpec `json:"spec"`

	// Transform is the current placement in the scene
	Transform geometry.Transform `json:"transform"`

	// Locked monitors cannot be moved or rotated
	Locked bool `json:"locked"`

	// CreatedAt is the timestamp when the monitor was added
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the monitor was last changed
	UpdatedAt time.Time `json:"updated_at"`

	// Version is used for optimistic locking
	Version int `json:"version"`
}

// NewMonitor creates a new Monitor entity.
// An empty name becomes "Monitor <n>" where n is the one-based ordinal.
//
// Parameters:
//   - name: display name (optional)
//   - ordinal: zero-based position among existing monitors
//   - spec: initial configuration
//   - transform: initial placement
//
// Returns:
//   - *Monitor: newly created Monitor
func NewMonitor(name string, ordinal int, spec valueobject.MonitorSpec, transform geometry.Transform) *Monitor {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Monitor %d", ordinal+1)
	}

	now := time.Now().UTC()
	return &Monitor{
		ID:        uuid.New(),
		Name:      name,
		Spec:      spec,
		Transform: transform,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// ApplySpec replaces the configuration with a new revision.
// Locking does not prevent spec edits, only movement.
//
// Parameters:
//   - spec: the new configuration revision
func (m *Monitor) ApplySpec(spec valueobject.MonitorSpec) {
	m.Spec = spec
	m.touch()
}

// MoveTo changes the position of the monitor.
//
// Parameters:
//   - transform: transform whose position is adopted (yaw is kept)
//
// Returns:
//   - error: ErrMonitorLocked if the monitor is locked
func (m *Monitor) MoveTo(transform geometry.Transform) error {
	if m.Locked {
		return ErrMonitorLocked
	}
	m.Transform.Position = transform.Position
	m.touch()
	return nil
}

// RotateTo changes the yaw of the monitor.
//
// Parameters:
//   - yaw: rotation about the vertical axis in radians
//
// Returns:
//   - error: ErrMonitorLocked if the monitor is locked
func (m *Monitor) RotateTo(yaw float64) error {
	if m.Locked {
		return ErrMonitorLocked
	}
	m.Transform.Yaw = yaw
	m.touch()
	return nil
}

// Place sets the transform unconditionally. It is used by the placement
// policy and by recovery, which must work on locked monitors too.
func (m *Monitor) Place(transform geometry.Transform) {
	m.Transform = transform
	m.touch()
}

// Lock prevents the monitor from being moved or rotated.
func (m *Monitor) Lock() {
	m.Locked = true
	m.touch()
}

// Unlock allows the monitor to be moved and rotated again.
func (m *Monitor) Unlock() {
	m.Locked = false
	m.touch()
}

// ToggleLock flips the lock flag.
func (m *Monitor) ToggleLock() {
	m.Locked = !m.Locked
	m.touch()
}

// TogglePortrait flips the portrait flag, producing a new spec revision.
func (m *Monitor) TogglePortrait() {
	m.ApplySpec(m.Spec.WithPortrait(!m.Spec.IsPortrait))
}

// Rename updates the display name. Empty names are ignored.
//
// Parameters:
//   - name: the new display name
func (m *Monitor) Rename(name string) {
	if name = strings.TrimSpace(name); name == "" {
		return
	}
	m.Name = name
	m.touch()
}

// Clone returns an independent copy of the monitor.
func (m *Monitor) Clone() *Monitor {
	c := *m
	return &c
}

func (m *Monitor) touch() {
	m.UpdatedAt = time.Now().UTC()
}
