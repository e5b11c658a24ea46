package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goecs/internal/ecs"
	"github.com/dbsmedya/goecs/internal/logger"
	"github.com/dbsmedya/goecs/internal/runlock"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

func newBoundSystem(t *testing.T, w *world.World, id string, rows int) *ecs.System {
	t.Helper()
	a := w.Define("A")
	for i := 0; i < rows; i++ {
		e := w.Define(id + "-e" + string(rune('a'+i)))
		w.Add(e, a, i)
	}
	handle, err := ecs.New(w, id, types.Periodic, "A", func(*ecs.Info) {})
	require.NoError(t, err)
	wt := w.WatcherFor(handle)
	s, ok := wt.(*ecs.System)
	require.True(t, ok)
	return s
}

func TestPlanChunksSingleTable(t *testing.T) {
	w := world.New()
	s := newBoundSystem(t, w, "chunked", 10)

	jobs := Plan(w, s, nil, 4)
	require.Len(t, jobs, 3)
	assert.Equal(t, 0, jobs[0].StartIndex)
	assert.Equal(t, 4, jobs[0].RowCount)
	assert.Equal(t, 4, jobs[1].StartIndex)
	assert.Equal(t, 4, jobs[1].RowCount)
	assert.Equal(t, 8, jobs[2].StartIndex)
	assert.Equal(t, 2, jobs[2].RowCount)
}

func TestPlanSkipsEmptyTables(t *testing.T) {
	w := world.New()
	s := newBoundSystem(t, w, "empty", 0)

	jobs := Plan(w, s, nil, 4)
	assert.Empty(t, jobs)
}

func TestPlanDefaultsToOneJobPerTableWhenChunkSizeIsZero(t *testing.T) {
	w := world.New()
	s := newBoundSystem(t, w, "whole", 7)

	jobs := Plan(w, s, nil, 0)
	require.Len(t, jobs, 1)
	assert.Equal(t, 7, jobs[0].RowCount)
}

func TestRunVisitsEveryRowExactlyOnce(t *testing.T) {
	w := world.New()
	const rows = 20
	a := w.Define("A")
	var mu sync.Mutex
	seen := make(map[int]int)

	for i := 0; i < rows; i++ {
		e := w.Define("e" + string(rune('a'+i)))
		w.Add(e, a, i)
	}

	action := func(info *ecs.Info) {
		for r := info.First; r < info.Last; r++ {
			mu.Lock()
			seen[r]++
			mu.Unlock()
		}
	}

	handle, err := ecs.New(w, "visitor", types.Periodic, "A", action)
	require.NoError(t, err)
	s, ok := w.WatcherFor(handle).(*ecs.System)
	require.True(t, ok)

	lock := runlock.New()
	log := logger.NewDefault()
	err = Run(context.Background(), w, s, nil, lock, log, 4, 3)
	require.NoError(t, err)

	for r := 0; r < rows; r++ {
		assert.Equal(t, 1, seen[r], "row %d visited %d times", r, seen[r])
	}
}

func TestRunIsNoOpForUnboundSystem(t *testing.T) {
	w := world.New()
	w.Define("A")
	w.Define("Nope")
	handle, err := ecs.New(w, "idle", types.Periodic, "Nope", func(*ecs.Info) {})
	require.NoError(t, err)
	s, ok := w.WatcherFor(handle).(*ecs.System)
	require.True(t, ok)

	lock := runlock.New()
	log := logger.NewDefault()
	assert.NoError(t, Run(context.Background(), w, s, nil, lock, log, 2, 5))
}
