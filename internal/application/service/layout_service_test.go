package service_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"github.com/hapkiduki/desk-planner/internal/application/service"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/logging"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/render"
	"github.com/hapkiduki/desk-planner/internal/infrastructure/scene"
	"github.com/hapkiduki/desk-planner/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

type fixture struct {
	svc    *service.LayoutService
	repo   repository.MonitorRepository
	scene  *scene.Memory
	policy geometry.PlacementPolicy
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, mutate ...func(*service.Dependencies)) *fixture {
	t.Helper()

	labels, err := render.NewLabelRenderer(render.LabelOptions{Width: 256})
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		repo:   memory.NewMonitorRepository(),
		scene:  scene.NewMemory(),
		policy: geometry.DefaultPlacementPolicy(),
		logs:   logs,
	}

	deps := service.Dependencies{
		Repository:  f.repo,
		Deriver:     geometry.NewDeriver(geometry.DefaultOptions()),
		Placement:   f.policy,
		Scene:       f.scene,
		Labels:      labels,
		Layout:      render.NewLayoutSVG(render.DefaultLayoutOptions()),
		Logger:      logging.New(logger.FromZap(zap.New(core))),
		MaxMonitors: 4,
	}
	for _, m := range mutate {
		m(&deps)
	}
	f.svc = service.NewLayoutService(deps)
	return f
}

func (f *fixture) add(t *testing.T, name string, spec valueobject.MonitorSpec) *service.MonitorView {
	t.Helper()
	view, err := f.svc.AddMonitor(context.Background(), name, spec)
	require.NoError(t, err)
	return view
}

func restY(p geometry.PlacementPolicy, g geometry.PanelGeometry) float64 {
	return p.DeskTop + p.StandClearance + g.DistanceToBottom
}

func TestAddMonitor_SpawnsFanOutAndPublishes(t *testing.T) {
	f := newFixture(t)

	first := f.add(t, "", valueobject.DefaultMonitorSpec())
	second := f.add(t, "Right", valueobject.DefaultMonitorSpec())
	third := f.add(t, "", valueobject.DefaultMonitorSpec())

	assert.Equal(t, "Monitor 1", first.Monitor.Name)
	assert.Equal(t, "Right", second.Monitor.Name)
	assert.Equal(t, "Monitor 3", third.Monitor.Name)

	assert.Equal(t, 0.0, first.Monitor.Transform.Position.X)
	assert.Equal(t, f.policy.SpawnSpacing, second.Monitor.Transform.Position.X)
	assert.Equal(t, -f.policy.SpawnSpacing, third.Monitor.Transform.Position.X)
	assert.Equal(t, -f.policy.SpawnDistance, first.Monitor.Transform.Position.Z)
	assert.Equal(t, restY(f.policy, first.Geometry), first.Monitor.Transform.Position.Y)

	assert.Equal(t, 3, f.scene.Len())
	assert.Equal(t, 3, f.logs.FilterMessage("Monitor added").Len())
}

func TestAddMonitor_ClampsDegenerateSpec(t *testing.T) {
	f := newFixture(t)

	view := f.add(t, "", valueobject.NewMonitorSpec(math.NaN(), -1, 0, -50, false))
	assert.Equal(t, valueobject.DefaultMonitorSpec(), view.Monitor.Spec)
	assert.Equal(t, geometry.KindFlat, view.Geometry.Kind)
	assert.False(t, view.Recovered)
}

func TestAddMonitor_Limit(t *testing.T) {
	f := newFixture(t, func(d *service.Dependencies) { d.MaxMonitors = 1 })
	f.add(t, "", valueobject.DefaultMonitorSpec())

	_, err := f.svc.AddMonitor(context.Background(), "", valueobject.DefaultMonitorSpec())
	assert.ErrorIs(t, err, service.ErrTooManyMonitors)
}

func TestUpdateSpec_CurvedPanelRestsOnDesk(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.add(t, "", valueobject.DefaultMonitorSpec())

	_, err := f.svc.Move(ctx, view.Monitor.ID, r3.Vec{X: 120, Y: 2000, Z: -900})
	require.NoError(t, err)

	updated, err := f.svc.UpdateSpec(ctx, view.Monitor.ID, valueobject.NewMonitorSpec(34, 21, 9, 1800, false))
	require.NoError(t, err)

	g := updated.Geometry
	assert.Equal(t, geometry.KindCurved, g.Kind)
	assert.True(t, scalar.EqualWithinRel(g.Curvature.ArcAngle, g.Dimensions.Width/1800, 1e-12))

	pos := updated.Monitor.Transform.Position
	assert.Equal(t, 120.0, pos.X)
	assert.Equal(t, -900.0, pos.Z)
	assert.Equal(t, restY(f.policy, g), pos.Y)

	nodes, err := f.scene.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Geometry.IsCurved())
	assert.Equal(t, updated.Monitor.Spec.String(), nodes[0].Label)
}

func TestUpdateSpec_RejectedCurvatureFallsBackToFlat(t *testing.T) {
	f := newFixture(t)
	view := f.add(t, "", valueobject.DefaultMonitorSpec())

	updated, err := f.svc.UpdateSpec(context.Background(), view.Monitor.ID, valueobject.NewMonitorSpec(27, 16, 9, 50, false))
	require.NoError(t, err)
	assert.Equal(t, geometry.KindFlat, updated.Geometry.Kind)
	assert.Equal(t, 50.0, updated.Monitor.Spec.CurvatureRadius)
}

func TestTogglePortrait_SwapsRestHeight(t *testing.T) {
	f := newFixture(t)
	view := f.add(t, "", valueobject.DefaultMonitorSpec())

	portrait, err := f.svc.TogglePortrait(context.Background(), view.Monitor.ID)
	require.NoError(t, err)

	g := portrait.Geometry
	assert.True(t, portrait.Monitor.Spec.IsPortrait)
	assert.Equal(t, math.Pi/2, g.RotationZ)
	assert.Equal(t, g.Dimensions.Width/2, g.DistanceToBottom)
	assert.Equal(t, restY(f.policy, g), portrait.Monitor.Transform.Position.Y)
	assert.Greater(t, portrait.Monitor.Transform.Position.Y, view.Monitor.Transform.Position.Y)
}

func TestLock_BlocksMoveAndRotateOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	locked, err := f.svc.ToggleLock(ctx, id)
	require.NoError(t, err)
	assert.True(t, locked.Monitor.Locked)

	_, err = f.svc.Move(ctx, id, r3.Vec{X: 1})
	assert.ErrorIs(t, err, entity.ErrMonitorLocked)
	_, err = f.svc.Rotate(ctx, id, 0.3)
	assert.ErrorIs(t, err, entity.ErrMonitorLocked)

	_, err = f.svc.UpdateSpec(ctx, id, valueobject.NewMonitorSpec(32, 16, 9, 0, false))
	assert.NoError(t, err)

	unlocked, err := f.svc.Execute(ctx, id, service.Command{Action: service.ActionUnlock})
	require.NoError(t, err)
	assert.False(t, unlocked.Monitor.Locked)

	rotated, err := f.svc.Rotate(ctx, id, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 0.3, rotated.Monitor.Transform.Yaw)
}

func TestExecute_CommandErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	_, err := f.svc.Execute(ctx, id, service.Command{Action: "explode"})
	assert.ErrorIs(t, err, service.ErrUnknownAction)

	for _, action := range []service.Action{service.ActionMove, service.ActionRotate, service.ActionUpdateSpec, service.ActionRename} {
		_, err = f.svc.Execute(ctx, id, service.Command{Action: action})
		assert.ErrorIs(t, err, service.ErrMissingArgument, action)
	}

	_, err = f.svc.Execute(ctx, uuid.New(), service.Command{Action: service.ActionLock})
	assert.ErrorIs(t, err, repository.ErrMonitorNotFound)
}

func TestExecute_Rename(t *testing.T) {
	f := newFixture(t)
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	view, err := f.svc.Execute(context.Background(), id, service.Command{Action: service.ActionRename, Name: "Centre"})
	require.NoError(t, err)
	assert.Equal(t, "Centre", view.Monitor.Name)
}

func TestMove_NonFinitePositionRecoversToSpawn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	view, err := f.svc.Move(ctx, id, r3.Vec{X: math.NaN(), Y: 10, Z: math.Inf(1)})
	require.NoError(t, err)
	assert.True(t, view.Recovered)
	assert.Equal(t, f.policy.Spawn(0, view.Geometry), view.Monitor.Transform)
	assert.Equal(t, 1, f.logs.FilterMessage("Placement is not finite, resetting to spawn").Len())

	stored, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Monitor.Transform.IsFinite())
}

func TestUpdateSpec_OverflowResetsSpec(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	view, err := f.svc.UpdateSpec(ctx, id, valueobject.NewMonitorSpec(1e300, 16, 9, 0, true))
	require.NoError(t, err)
	assert.True(t, view.Recovered)
	assert.Equal(t, valueobject.DefaultMonitorSpec().WithPortrait(true), view.Monitor.Spec)
	assert.True(t, view.Geometry.IsFinite())
	assert.Equal(t, f.policy.Spawn(0, view.Geometry), view.Monitor.Transform)
}

func TestReset_ReturnsToSpawn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	_, err := f.svc.Move(ctx, id, r3.Vec{X: 400, Y: 1200, Z: -500})
	require.NoError(t, err)
	_, err = f.svc.Execute(ctx, id, service.Command{Action: service.ActionLock})
	require.NoError(t, err)

	view, err := f.svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.policy.Spawn(0, view.Geometry), view.Monitor.Transform)
	assert.False(t, view.Recovered)
}

func TestRemoveMonitor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	require.NoError(t, f.svc.RemoveMonitor(ctx, id))
	assert.Equal(t, 0, f.scene.Len())

	_, err := f.svc.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrMonitorNotFound)
	assert.ErrorIs(t, f.svc.RemoveMonitor(ctx, id), repository.ErrMonitorNotFound)
}

func TestList_CreationOrder(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, "A", valueobject.DefaultMonitorSpec())
	b := f.add(t, "B", valueobject.NewMonitorSpec(34, 21, 9, 1500, false))

	views, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a.Monitor.ID, views[0].Monitor.ID)
	assert.Equal(t, b.Monitor.ID, views[1].Monitor.ID)
	assert.True(t, views[1].Geometry.IsCurved())
}

func TestRenderLabelAndLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Main", valueobject.DefaultMonitorSpec()).Monitor.ID
	f.add(t, "Side", valueobject.NewMonitorSpec(34, 21, 9, 1800, false))

	var label bytes.Buffer
	require.NoError(t, f.svc.RenderLabel(ctx, id, &label))
	img, err := png.Decode(&label)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	var layout bytes.Buffer
	require.NoError(t, f.svc.RenderLayout(ctx, &layout))
	assert.Contains(t, layout.String(), ">Main<")
	assert.Contains(t, layout.String(), ">Side<")

	assert.ErrorIs(t, f.svc.RenderLabel(ctx, uuid.New(), &label), repository.ErrMonitorNotFound)
}

func TestDerive_Stateless(t *testing.T) {
	f := newFixture(t)
	g := f.svc.Derive(valueobject.DefaultMonitorSpec())
	assert.Equal(t, geometry.KindFlat, g.Kind)
	assert.Equal(t, 0, f.scene.Len())
}

// conflictingRepository fails the first n updates with a version conflict.
type conflictingRepository struct {
	repository.MonitorRepository
	failures atomic.Int32
}

func (r *conflictingRepository) Update(ctx context.Context, m *entity.Monitor) error {
	if r.failures.Add(-1) >= 0 {
		return repository.ErrOptimisticLock
	}
	return r.MonitorRepository.Update(ctx, m)
}

func TestExecute_RetriesVersionConflicts(t *testing.T) {
	repo := &conflictingRepository{MonitorRepository: memory.NewMonitorRepository()}
	f := newFixture(t, func(d *service.Dependencies) { d.Repository = repo })
	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID

	repo.failures.Store(2)
	view, err := f.svc.ToggleLock(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, view.Monitor.Locked)
	assert.Equal(t, 2, f.logs.FilterMessage("Retrying command after version conflict").Len())

	repo.failures.Store(10)
	_, err = f.svc.ToggleLock(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrOptimisticLock)
}

func TestAddMonitor_AfterRemovalUsesFreshSlot(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "", valueobject.DefaultMonitorSpec())
	second := f.add(t, "", valueobject.DefaultMonitorSpec())
	third := f.add(t, "", valueobject.DefaultMonitorSpec())
	require.NoError(t, f.svc.RemoveMonitor(context.Background(), first.Monitor.ID))

	fourth := f.add(t, "", valueobject.DefaultMonitorSpec())

	assert.Equal(t, "Monitor 4", fourth.Monitor.Name)
	assert.Equal(t, 2*f.policy.SpawnSpacing, fourth.Monitor.Transform.Position.X)
	for _, other := range []*service.MonitorView{second, third} {
		assert.NotEqual(t, other.Monitor.Name, fourth.Monitor.Name)
		assert.NotEqual(t, other.Monitor.Transform.Position, fourth.Monitor.Transform.Position)
	}
}

func TestAddMonitor_LimitHoldsUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		rejected atomic.Int32
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddMonitor(ctx, "", valueobject.DefaultMonitorSpec())
			if errors.Is(err, service.ErrTooManyMonitors) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	count, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 12, rejected.Load())
	assert.Equal(t, 4, f.scene.Len())
}

// removingScene starts removing the target monitor while one of its
// commands is being published.
type removingScene struct {
	*scene.Memory
	svc     *service.LayoutService
	target  uuid.UUID
	armed   atomic.Bool
	removed chan error
}

func (s *removingScene) Apply(ctx context.Context, node port.SceneNode) error {
	if node.MonitorID == s.target && s.armed.CompareAndSwap(true, false) {
		go func() {
			s.removed <- s.svc.RemoveMonitor(context.Background(), node.MonitorID)
		}()
		// Give the removal a chance to run before this node is applied.
		time.Sleep(20 * time.Millisecond)
	}
	return s.Memory.Apply(ctx, node)
}

func TestRemoveMonitor_ConcurrentWithCommandLeavesNoNode(t *testing.T) {
	hook := &removingScene{removed: make(chan error, 1)}
	f := newFixture(t, func(d *service.Dependencies) {
		hook.Memory = d.Scene.(*scene.Memory)
		d.Scene = hook
	})
	hook.svc = f.svc
	ctx := context.Background()

	id := f.add(t, "", valueobject.DefaultMonitorSpec()).Monitor.ID
	hook.target = id
	hook.armed.Store(true)

	_, err := f.svc.ToggleLock(ctx, id)
	require.NoError(t, err)
	require.NoError(t, <-hook.removed)

	count, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.scene.Len())
}

func TestPreview_RecoversNonFiniteGeometry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.svc.Preview(ctx, valueobject.NewMonitorSpec(1e300, 16, 9, 0, true))
	assert.True(t, p.Recovered)
	assert.Equal(t, valueobject.DefaultMonitorSpec().WithPortrait(true), p.Spec)
	assert.True(t, p.Geometry.IsFinite())
	assert.Equal(t, 1, f.logs.FilterMessage("Derived geometry is not finite, resetting spec").Len())

	p = f.svc.Preview(ctx, valueobject.NewMonitorSpec(math.NaN(), 21, 9, 1500, false))
	assert.False(t, p.Recovered)
	assert.Equal(t, 27.0, p.Spec.Size)
	assert.Equal(t, geometry.KindCurved, p.Geometry.Kind)
	assert.Equal(t, 0, f.scene.Len())
}
