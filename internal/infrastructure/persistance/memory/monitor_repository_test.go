package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/repository"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitor(name string) *entity.Monitor {
	return entity.NewMonitor(name, 0, valueobject.DefaultMonitorSpec(), geometry.Transform{})
}

func TestMonitorRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMonitorRepository()

	m := newMonitor("A")
	require.NoError(t, repo.Create(ctx, m))
	assert.ErrorIs(t, repo.Create(ctx, m), repository.ErrDuplicateMonitor)

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)

	got.Rename("B")
	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, 2, got.Version)

	again, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", again.Name)
	assert.Equal(t, 2, again.Version)

	require.NoError(t, repo.Delete(ctx, m.ID))
	_, err = repo.GetByID(ctx, m.ID)
	assert.True(t, repository.IsNotFoundError(err))
	assert.ErrorIs(t, repo.Delete(ctx, m.ID), repository.ErrMonitorNotFound)
	assert.ErrorIs(t, repo.Update(ctx, got), repository.ErrMonitorNotFound)
}

func TestMonitorRepository_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := NewMonitorRepository()
	m := newMonitor("A")
	require.NoError(t, repo.Create(ctx, m))

	first, _ := repo.GetByID(ctx, m.ID)
	second, _ := repo.GetByID(ctx, m.ID)

	require.NoError(t, repo.Update(ctx, first))
	err := repo.Update(ctx, second)
	assert.ErrorIs(t, err, repository.ErrOptimisticLock)
	assert.True(t, repository.IsConflictError(err))
}

func TestMonitorRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMonitorRepository()
	m := newMonitor("A")
	require.NoError(t, repo.Create(ctx, m))

	m.Rename("mutated after create")
	got, _ := repo.GetByID(ctx, m.ID)
	assert.Equal(t, "A", got.Name)

	got.Rename("mutated after get")
	again, _ := repo.GetByID(ctx, m.ID)
	assert.Equal(t, "A", again.Name)
}

func TestMonitorRepository_FindAllKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMonitorRepository()

	names := []string{"one", "two", "three", "four"}
	ids := make([]uuid.UUID, len(names))
	for i, n := range names {
		m := newMonitor(n)
		ids[i] = m.ID
		require.NoError(t, repo.Create(ctx, m))
	}
	require.NoError(t, repo.Delete(ctx, ids[1]))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Name)
	assert.Equal(t, "three", all[1].Name)
	assert.Equal(t, "four", all[2].Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMonitorRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMonitorRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := newMonitor("")
			assert.NoError(t, repo.Create(ctx, m))
			_, err := repo.FindAll(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestMonitorRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMonitorRepository()
	assert.ErrorIs(t, repo.Create(ctx, newMonitor("A")), context.Canceled)
	_, err := repo.FindAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
