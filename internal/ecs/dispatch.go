package ecs

import (
	"sync"

	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Action is the user-supplied callable a system invokes once per matched
// table (or once per job-assigned row slice). It must not mutate table
// structure; it may read and write component values through Info.
type Action func(info *Info)

// Info is the per-invocation descriptor the dispatcher hands to Action,
// covering a contiguous half-open row range [First, Last) of one table.
//
// Grounded on goarchive's internal/archiver/copy.go CopyBatch argument
// struct: one struct bundling the source range, the destination, and the
// precomputed column list for a single unit of work, handed whole to the
// function that does the row-by-row processing.
type Info struct {
	World       *world.World
	System      *System
	Param       any
	TableIndex  int
	OffsetCodes []int
	Refs        []any // resolved FromComponent values, indexed like OffsetCodes; empty when the table has no FromComponent columns
	First, Last int
}

// Component returns column i's value for row (row must be in
// [info.First, info.Last)): the row's own slot for a FromEntity column
// (OffsetCodes[i] >= 0), or the pre-resolved reference value for a
// FromComponent column (OffsetCodes[i] < 0).
func (info *Info) Component(i, row int) (any, bool) {
	code := info.OffsetCodes[i]
	if code >= 0 {
		t := info.World.TableAt(info.TableIndex)
		if row < 0 || row >= len(t.Rows) {
			return nil, false
		}
		return t.Rows[row][code], true
	}
	idx := -code - 1
	if idx < 0 || idx >= len(info.Refs) {
		return nil, false
	}
	return info.Refs[idx], true
}

// RunSystem implements the Dispatcher's (C6) whole-system run entry
// point: iterate s.Tables in bind order, and for each one invoke the
// action over the table's entire row range. A disabled system is a silent
// no-op, per spec's run_system contract.
func RunSystem(w *world.World, s *System, param any) {
	if !s.Enabled {
		return
	}
	for _, desc := range s.Tables {
		t := w.TableAt(desc.TableIndex)
		runTable(w, s, desc, param, 0, t.RowCount())
	}
}

// NotifyRow implements the Dispatcher's (C6) per-row notify entry point,
// used by OnInit/OnDeinit systems: locate tableIndex's descriptor in
// s.Tables and invoke the action over the single row [rowIndex,
// rowIndex+1). A system not bound to tableIndex is a silent no-op.
func NotifyRow(w *world.World, s *System, tableIndex, rowIndex int) {
	i, ok := findDescriptor(s.Tables, tableIndex)
	if !ok {
		return
	}
	runTable(w, s, s.Tables[i], nil, rowIndex, rowIndex+1)
}

// Job is a worker-entry descriptor: a contiguous row slice that may span
// several adjacent bound tables, anchored at TableIndex/StartIndex.
type Job struct {
	System     *System
	TableIndex int
	StartIndex int
	RowCount   int
	Param      any
}

// RunJob implements the Dispatcher's (C6) job entry point: it walks
// s.Tables starting from the descriptor for job.TableIndex, consuming
// min(remaining, table.RowCount()-localStart) rows per table and
// advancing to the next descriptor in bind order, until the job's row
// count is exhausted. This is the chunking contract that lets a scheduler
// split one system's work across workers while guaranteeing each action
// call only ever sees rows from a single table.
func RunJob(w *world.World, job Job) {
	s := job.System
	start, ok := findDescriptor(s.Tables, job.TableIndex)
	if !ok {
		return
	}

	localStart := job.StartIndex
	remaining := job.RowCount
	for di := start; remaining > 0 && di < len(s.Tables); di++ {
		desc := s.Tables[di]
		t := w.TableAt(desc.TableIndex)
		available := t.RowCount() - localStart
		if available <= 0 {
			localStart = 0
			continue
		}
		consumed := available
		if consumed > remaining {
			consumed = remaining
		}
		runTable(w, s, desc, job.Param, localStart, localStart+consumed)
		remaining -= consumed
		localStart = 0
	}
}

// refsPool hands out reusable FromComponent scratch buffers so the hot
// dispatch loop (once per table in RunSystem, once per table a job spans in
// RunJob, once per row in NotifyRow) does not allocate on every call. A pool rather than
// a single buffer hung off System: RunJob's own caller (internal/scheduler)
// fans a system's tables out across worker goroutines, so two jobs for the
// same System can call runTable concurrently and must not share one slice.
var refsPool = sync.Pool{
	New: func() any { return make([]any, 0, 8) },
}

func runTable(w *world.World, s *System, desc types.TableDescriptor, param any, first, last int) {
	n := len(desc.OffsetCodes)
	if desc.RefsIndex == 0 {
		n = 0 // no FromComponent columns: nothing to resolve
	}
	scratch := refsPool.Get().([]any)
	if cap(scratch) < n {
		scratch = make([]any, n)
	} else {
		scratch = scratch[:n]
	}
	ResolveRefs(w, s, desc, scratch)
	info := &Info{
		World:       w,
		System:      s,
		Param:       param,
		TableIndex:  desc.TableIndex,
		OffsetCodes: desc.OffsetCodes,
		Refs:        scratch,
		First:       first,
		Last:        last,
	}
	s.Action(info)
	refsPool.Put(scratch[:0])
}
