// Package service contains the application controller that turns user
// commands into persisted monitor revisions and scene updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxUpdateAttempts bounds retries after an optimistic lock conflict.
const maxUpdateAttempts = 3

// MonitorView is a monitor together with its freshly derived geometry.
type MonitorView struct {
	Monitor  *entity.Monitor
	Geometry geometry.PanelGeometry

	// Recovered is true when a non-finite result forced a reset.
	Recovered bool
}

// Dependencies groups the collaborators of LayoutService.
type Dependencies struct {
	Repository repository.MonitorRepository
	Deriver    *geometry.Deriver
	Placement  geometry.PlacementPolicy
	Scene      port.SceneRenderer
	Labels     port.LabelRenderer
	Layout     port.LayoutRenderer
	Logger     port.Logger

	// MaxMonitors caps the number of monitors; 0 means unlimited.
	MaxMonitors int
}

// Preview is a stateless derivation: the clamped spec, its geometry, and
// whether a non-finite result forced the default spec.
type Preview struct {
	Spec      valueobject.MonitorSpec
	Geometry  geometry.PanelGeometry
	Recovered bool
}

// LayoutService is the application controller. Every mutation goes through
// its command table, is re-derived and validated, persisted, and then pushed
// to the scene.
type LayoutService struct {
	// mu serialises writes so the repository and the scene apply them in the
	// same order, and a removed monitor is never published again.
	mu sync.Mutex

	// spawned counts every monitor ever added; it picks default names and
	// spawn slots so removals never free a slot still in use.
	spawned int


	repo        repository.MonitorRepository
	deriver     *geometry.Deriver
	placement   geometry.PlacementPolicy
	scene       port.SceneRenderer
	labels      port.LabelRenderer
	layout      port.LayoutRenderer
	log         port.Logger
	maxMonitors int
	commands    map[Action]commandEntry
}

// NewLayoutService creates the controller.
//
// Parameters:
//   - deps: collaborators; Deriver defaults to geometry.DefaultOptions
//
// Returns:
//   - *LayoutService: the controller
func NewLayoutService(deps Dependencies) *LayoutService {
	if deps.Deriver == nil {
		deps.Deriver = geometry.NewDeriver(geometry.DefaultOptions())
	}
	return &LayoutService{
		repo:        deps.Repository,
		deriver:     deps.Deriver,
		placement:   deps.Placement,
		scene:       deps.Scene,
		labels:      deps.Labels,
		layout:      deps.Layout,
		log:         deps.Logger,
		maxMonitors: deps.MaxMonitors,
		commands:    commandTable(),
	}
}

// Derive is the raw derivation. It clamps but does not recover from
// non-finite results; see Preview.
func (s *LayoutService) Derive(spec valueobject.MonitorSpec) geometry.PanelGeometry {
	return s.deriver.Derive(spec)
}

// Preview derives spec the way a stored monitor would be derived, including
// the reset to defaults when the geometry is not finite.
func (s *LayoutService) Preview(ctx context.Context, spec valueobject.MonitorSpec) Preview {
	spec, g, recovered := s.deriveFinite(ctx, spec)
	return Preview{Spec: spec, Geometry: g, Recovered: recovered}
}

// deriveFinite clamps spec and derives its geometry. A non-finite result
// resets the spec to defaults, keeping the portrait flag.
func (s *LayoutService) deriveFinite(ctx context.Context, spec valueobject.MonitorSpec) (valueobject.MonitorSpec, geometry.PanelGeometry, bool) {
	spec = geometry.Sanitize(spec)
	g := s.deriver.Derive(spec)
	if g.IsFinite() {
		return spec, g, false
	}

	s.log.WithContext(ctx).Warn("Derived geometry is not finite, resetting spec", "spec", spec.String())
	spec = valueobject.DefaultMonitorSpec().WithPortrait(spec.IsPortrait)
	return spec, s.deriver.Derive(spec), true
}

// AddMonitor creates a monitor at the next spawn position.
//
// Parameters:
//   - ctx: request context
//   - name: display name (optional)
//   - spec: initial configuration (clamped, never rejected)
//
// Returns:
//   - *MonitorView: the created monitor and its geometry
//   - error: ErrTooManyMonitors or a repository/scene error
func (s *LayoutService) AddMonitor(ctx context.Context, name string, spec valueobject.MonitorSpec) (*MonitorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count monitors: %w", err)
	}
	if s.maxMonitors > 0 && count >= s.maxMonitors {
		return nil, ErrTooManyMonitors
	}

	// The repository may have been filled before this service started.
	slot := max(s.spawned, count)

	spec = geometry.Sanitize(spec)
	g := s.deriver.Derive(spec)
	m := entity.NewMonitor(name, slot, spec, s.placement.Spawn(slot, g))

	view := s.settle(ctx, m, commandEntry{})
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create monitor: %w", err)
	}
	s.spawned = slot + 1
	if err := s.publish(ctx, view); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Monitor added",
		"monitor_id", m.ID,
		"spec", m.Spec.String(),
		"kind", view.Geometry.Kind,
	)
	return view, nil
}

// Execute dispatches a command to a monitor.
//
// Parameters:
//   - ctx: request context
//   - id: target monitor
//   - cmd: the command
//
// Returns:
//   - *MonitorView: the updated monitor and its geometry
//   - error: ErrUnknownAction, ErrMissingArgument, entity.ErrMonitorLocked,
//     repository.ErrMonitorNotFound or repository.ErrOptimisticLock
func (s *LayoutService) Execute(ctx context.Context, id uuid.UUID, cmd Command) (*MonitorView, error) {
	entry, ok := s.commands[cmd.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		view *MonitorView
		err  error
	)
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		view, err = s.executeOnce(ctx, id, cmd, entry)
		if !errors.Is(err, repository.ErrOptimisticLock) || attempt == maxUpdateAttempts {
			break
		}
		s.log.WithContext(ctx).Debug("Retrying command after version conflict",
			"monitor_id", id,
			"action", cmd.Action,
			"attempt", attempt,
		)
	}
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, view); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Monitor command executed",
		"monitor_id", id,
		"action", cmd.Action,
		"kind", view.Geometry.Kind,
		"recovered", view.Recovered,
	)
	return view, nil
}

func (s *LayoutService) executeOnce(ctx context.Context, id uuid.UUID, cmd Command, entry commandEntry) (*MonitorView, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.apply(m, cmd); err != nil {
		return nil, err
	}

	view := s.settle(ctx, m, entry)
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return view, nil
}

// settle re-derives the geometry after a mutation and recovers from
// non-finite results. It never fails.
func (s *LayoutService) settle(ctx context.Context, m *entity.Monitor, entry commandEntry) *MonitorView {
	log := s.log.WithContext(ctx).With("monitor_id", m.ID)
	view := &MonitorView{Monitor: m}

	spec, g, recovered := s.deriveFinite(ctx, m.Spec)
	if !spec.Equals(m.Spec) {
		m.ApplySpec(spec)
	}
	if recovered {
		entry.respawn = true
		view.Recovered = true
	}

	switch {
	case entry.respawn:
		m.Place(s.placement.Spawn(0, g))
	case entry.rest:
		m.Place(s.placement.Rest(m.Transform, g))
	}

	if !m.Transform.IsFinite() {
		log.Warn("Placement is not finite, resetting to spawn",
			"x", m.Transform.Position.X,
			"y", m.Transform.Position.Y,
			"z", m.Transform.Position.Z,
			"yaw", m.Transform.Yaw,
		)
		m.Place(s.placement.Spawn(0, g))
		view.Recovered = true
	}

	view.Geometry = g
	return view
}

// RemoveMonitor deletes a monitor and its scene node.
func (s *LayoutService) RemoveMonitor(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.scene.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove scene node: %w", err)
	}
	s.log.WithContext(ctx).Info("Monitor removed", "monitor_id", id)
	return nil
}

// Get returns one monitor with its geometry.
func (s *LayoutService) Get(ctx context.Context, id uuid.UUID) (*MonitorView, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MonitorView{Monitor: m, Geometry: s.deriver.Derive(m.Spec)}, nil
}

// List returns every monitor with its geometry, in creation order.
func (s *LayoutService) List(ctx context.Context) ([]*MonitorView, error) {
	monitors, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*MonitorView, 0, len(monitors))
	for _, m := range monitors {
		views = append(views, &MonitorView{Monitor: m, Geometry: s.deriver.Derive(m.Spec)})
	}
	return views, nil
}

// RenderLabel writes the label texture of a monitor to w.
func (s *LayoutService) RenderLabel(ctx context.Context, id uuid.UUID, w io.Writer) error {
	view, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.labels.RenderLabel(ctx, w, nodeFor(view))
}

// RenderLayout writes a top view of the current scene to w.
func (s *LayoutService) RenderLayout(ctx context.Context, w io.Writer) error {
	nodes, err := s.scene.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot scene: %w", err)
	}
	return s.layout.RenderLayout(ctx, w, nodes)
}

// UpdateSpec applies a new spec revision.
func (s *LayoutService) UpdateSpec(ctx context.Context, id uuid.UUID, spec valueobject.MonitorSpec) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionUpdateSpec, Spec: &spec})
}

// Move drags a monitor to a new position.
func (s *LayoutService) Move(ctx context.Context, id uuid.UUID, position r3.Vec) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionMove, Position: &position})
}

// Rotate turns a monitor about the vertical axis.
func (s *LayoutService) Rotate(ctx context.Context, id uuid.UUID, yaw float64) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionRotate, Yaw: &yaw})
}

// ToggleLock flips the lock flag.
func (s *LayoutService) ToggleLock(ctx context.Context, id uuid.UUID) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionToggleLock})
}

// TogglePortrait flips the portrait flag.
func (s *LayoutService) TogglePortrait(ctx context.Context, id uuid.UUID) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionTogglePortrait})
}

// Reset moves a monitor back to the default spawn transform.
func (s *LayoutService) Reset(ctx context.Context, id uuid.UUID) (*MonitorView, error) {
	return s.Execute(ctx, id, Command{Action: ActionReset})
}

func (s *LayoutService) publish(ctx context.Context, view *MonitorView) error {
	if err := s.scene.Apply(ctx, nodeFor(view)); err != nil {
		s.log.WithContext(ctx).Error("Failed to apply scene node",
			"monitor_id", view.Monitor.ID,
			"error", err,
		)
		return fmt.Errorf("apply scene node: %w", err)
	}
	return nil
}

func nodeFor(view *MonitorView) port.SceneNode {
	m := view.Monitor
	return port.SceneNode{
		MonitorID: m.ID,
		Name:      m.Name,
		Label:     m.Spec.String(),
		Locked:    m.Locked,
		Geometry:  view.Geometry,
		Transform: m.Transform,
	}
}
