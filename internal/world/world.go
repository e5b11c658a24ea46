// Package world supplies the reference implementation of the "external
// world" collaborator spec.md §1 and §6 put out of scope for the system
// engine core: entity index, table database, and family index, exposed
// through the interface the core consumes (Lookup, Get, the Families
// registry's Add and Contains, table enumeration, Table.ColumnOffset,
// ActivateSystem).
//
// Grounded on goarchive's internal/database.Manager: a small struct that
// owns named resources (there, three *sql.DB; here, the table store, entity
// index, and family index) with construction kept separate from population.
// There is no database driver underneath — spec.md's Non-goals exclude
// persistence, so there is nothing here for a driver to dial.
package world

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/goecs/internal/family"
	"github.com/dbsmedya/goecs/internal/types"
)

// Watcher is implemented by the engine's System type and registered with
// the World so the table database can drive notify_create_table,
// activate_table, and system_notify without the world package importing
// the engine package.
type Watcher interface {
	WatcherHandle() types.Handle
	NotifyCreateTable(tableIndex int)
	ActivateTable(tableIndex int, active bool)
	NotifyRow(tableIndex, rowIndex int)
}

// Table is a world-level storage block holding all entities whose family
// equals the table's family; rows are fixed stride (one slot per column,
// in ascending handle order for determinism).
type Table struct {
	Family  types.Family
	Columns []types.Handle
	colIdx  map[types.Handle]int
	Entities []types.Handle
	Rows     [][]any

	PeriodicSystems []types.Handle
	InitSystems     []types.Handle
	DeinitSystems   []types.Handle
}

// ColumnOffset returns the slot index of component inside a row of this
// table (the Go stand-in for spec.md's byte offset).
func (t *Table) ColumnOffset(component types.Handle) (int, bool) {
	i, ok := t.colIdx[component]
	return i, ok
}

// RowCount is the table's current row count, the quantity the activation
// manager watches for zero-crossings.
func (t *Table) RowCount() int {
	return len(t.Entities)
}

type location struct {
	table int
	row   int
}

// World is the in-memory reference implementation of the system engine's
// required collaborators.
type World struct {
	names map[string]types.Handle
	next  types.Handle

	Families *family.Registry

	tables []*Table
	loc    map[types.Handle]location

	watchers []Watcher // registration order, mirrors insertion-ordered system lists elsewhere in this repo

	activeSystems   []types.Handle
	inactiveSystems []types.Handle
	otherSystems    []types.Handle
}

// New returns an empty world.
func New() *World {
	return &World{
		names:    make(map[string]types.Handle),
		next:     1,
		Families: family.New(),
		loc:      make(map[types.Handle]location),
	}
}

// Define registers a new named component or entity and returns its handle.
// Re-registering an existing name returns the same handle.
func (w *World) Define(name string) types.Handle {
	if h, ok := w.names[name]; ok {
		return h
	}
	h := w.next
	w.next++
	w.names[name] = h
	return h
}

// Lookup resolves a name to its handle.
func (w *World) Lookup(name string) (types.Handle, bool) {
	h, ok := w.names[name]
	return h, ok
}

// FamilyOf returns the family (component set) currently owned by handle h,
// whether h was created via Define alone (family 0, no instance data) or
// has since had components attached via Add.
func (w *World) FamilyOf(h types.Handle) types.Family {
	loc, ok := w.loc[h]
	if !ok {
		return 0
	}
	return w.tables[loc.table].Family
}

// Get fetches a live component value for (entity, component), the
// primitive the Reference Resolver (C5) calls just before each action
// invocation.
func (w *World) Get(entity, component types.Handle) (any, bool) {
	loc, ok := w.loc[entity]
	if !ok {
		return nil, false
	}
	t := w.tables[loc.table]
	idx, ok := t.colIdx[component]
	if !ok {
		return nil, false
	}
	return t.Rows[loc.row][idx], true
}

// Add attaches component with the given value to entity, moving it into
// the table for its new family. It creates the entity's first table if it
// had none. Calling Add for a component the entity already has overwrites
// the stored value in place without moving tables.
func (w *World) Add(entity, component types.Handle, value any) {
	loc, had := w.loc[entity]
	if had {
		t := w.tables[loc.table]
		if idx, ok := t.colIdx[component]; ok {
			t.Rows[loc.row][idx] = value
			return
		}
	}

	var oldFamily types.Family
	values := map[types.Handle]any{component: value}
	if had {
		oldFamily = w.tables[loc.table].Family
		oldTable := w.tables[loc.table]
		for c, i := range oldTable.colIdx {
			values[c] = oldTable.Rows[loc.row][i]
		}
	}
	newFamily := w.Families.Add(oldFamily, component)
	newColumns := make([]types.Handle, 0, len(values))
	for c := range values {
		newColumns = append(newColumns, c)
	}

	if had {
		w.removeRow(loc)
	}

	dest := w.tableFor(newFamily, newColumns)
	w.appendRow(dest, entity, values)
}

// Remove detaches component from entity, moving it into the table for its
// reduced family (possibly the empty-family table).
func (w *World) Remove(entity, component types.Handle) {
	loc, ok := w.loc[entity]
	if !ok {
		return
	}
	oldTable := w.tables[loc.table]
	values := make(map[types.Handle]any, len(oldTable.Columns))
	newColumns := make([]types.Handle, 0, len(oldTable.Columns))
	for c, i := range oldTable.colIdx {
		if c == component {
			continue
		}
		values[c] = oldTable.Rows[loc.row][i]
		newColumns = append(newColumns, c)
	}
	newFamily := w.Families.Of(newColumns...)

	w.removeRow(loc)
	dest := w.tableFor(newFamily, newColumns)
	w.appendRow(dest, entity, values)
}

// tableFor finds (or creates, notifying watchers) the table for the
// given family/column set.
func (w *World) tableFor(fam types.Family, columns []types.Handle) int {
	for i, t := range w.tables {
		if t.Family == fam {
			return i
		}
	}
	sorted := append([]types.Handle(nil), columns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	colIdx := make(map[types.Handle]int, len(sorted))
	for i, c := range sorted {
		colIdx[c] = i
	}
	t := &Table{Family: fam, Columns: sorted, colIdx: colIdx}
	w.tables = append(w.tables, t)
	idx := len(w.tables) - 1
	for _, watcher := range w.watchers {
		watcher.NotifyCreateTable(idx)
	}
	return idx
}

func (w *World) appendRow(tableIndex int, entity types.Handle, values map[types.Handle]any) {
	t := w.tables[tableIndex]
	row := make([]any, len(t.Columns))
	for c, i := range t.colIdx {
		row[i] = values[c]
	}
	t.Entities = append(t.Entities, entity)
	t.Rows = append(t.Rows, row)
	rowIndex := len(t.Entities) - 1
	w.loc[entity] = location{table: tableIndex, row: rowIndex}

	if rowIndex == 0 {
		w.activateTable(tableIndex, true)
	}
	for _, h := range t.InitSystems {
		if wt := w.watcher(h); wt != nil {
			wt.NotifyRow(tableIndex, rowIndex)
		}
	}
}

func (w *World) removeRow(loc location) {
	t := w.tables[loc.table]
	for _, h := range t.DeinitSystems {
		if wt := w.watcher(h); wt != nil {
			wt.NotifyRow(loc.table, loc.row)
		}
	}

	removed := t.Entities[loc.row]
	last := len(t.Entities) - 1
	t.Entities[loc.row] = t.Entities[last]
	t.Rows[loc.row] = t.Rows[last]
	t.Entities = t.Entities[:last]
	t.Rows = t.Rows[:last]
	delete(w.loc, removed)
	if loc.row != last {
		movedEntity := t.Entities[loc.row]
		w.loc[movedEntity] = location{table: loc.table, row: loc.row}
	}
	if len(t.Entities) == 0 {
		w.activateTable(loc.table, false)
	}
}

func (w *World) activateTable(tableIndex int, active bool) {
	t := w.tables[tableIndex]
	seen := make(map[types.Handle]bool)
	for _, list := range [][]types.Handle{t.PeriodicSystems, t.InitSystems, t.DeinitSystems} {
		for _, h := range list {
			if seen[h] {
				continue
			}
			seen[h] = true
			if wt := w.watcher(h); wt != nil {
				wt.ActivateTable(tableIndex, active)
			}
		}
	}
}

func (w *World) watcher(h types.Handle) Watcher {
	for _, wt := range w.watchers {
		if wt.WatcherHandle() == h {
			return wt
		}
	}
	return nil
}

// WatcherFor returns the registered watcher for handle, or nil. Exported
// so callers that only hold a system handle (e.g. tests, the CLI) can
// recover the concrete system without the world package importing the
// engine package.
func (w *World) WatcherFor(h types.Handle) Watcher {
	return w.watcher(h)
}

// Delete removes handle's row (if it has one) and its name mapping (if
// any). System Lifecycle (C7) step 4 calls this to unwind a system's
// entity when signature parsing fails partway through.
func (w *World) Delete(h types.Handle) {
	if loc, ok := w.loc[h]; ok {
		w.removeRow(loc)
	}
	for name, handle := range w.names {
		if handle == h {
			delete(w.names, name)
			break
		}
	}
}

// RegisterWatcher adds a system watcher, called once per system at
// creation (C7 step 5's late-table-notification symmetry depends on every
// system being registered here regardless of kind).
func (w *World) RegisterWatcher(wt Watcher) {
	w.watchers = append(w.watchers, wt)
}

// TableCount returns the number of tables in the table database.
func (w *World) TableCount() int {
	return len(w.tables)
}

// TableAt returns the table at the given index. Table descriptors in the
// engine reference tables by this index, never by pointer, so the table
// store can grow without invalidating them.
func (w *World) TableAt(i int) *Table {
	return w.tables[i]
}

// BindSystem appends handle to the correct per-table system list per
// spec.md §4.3 step 4.
func (w *World) BindSystem(tableIndex int, handle types.Handle, kind types.SystemKind) {
	t := w.tables[tableIndex]
	switch kind {
	case types.OnInit:
		t.InitSystems = append(t.InitSystems, handle)
	case types.OnDeinit:
		t.DeinitSystems = append(t.DeinitSystems, handle)
	default: // Periodic, OnDemand
		t.PeriodicSystems = append(t.PeriodicSystems, handle)
	}
}

// RegisterPeriodic places a newly created periodic system into the active
// or inactive world list per spec.md §4.7 step 6.
func (w *World) RegisterPeriodic(handle types.Handle, active bool) {
	if active {
		w.activeSystems = append(w.activeSystems, handle)
	} else {
		w.inactiveSystems = append(w.inactiveSystems, handle)
	}
}

// RegisterOther places a non-periodic system (OnDemand/OnInit/OnDeinit)
// into the world's kind-agnostic other-systems list.
func (w *World) RegisterOther(handle types.Handle) {
	w.otherSystems = append(w.otherSystems, handle)
}

// ActivateSystem flips handle's membership between the world's active and
// inactive periodic-system lists.
func (w *World) ActivateSystem(handle types.Handle, active bool) error {
	if active {
		if removeHandle(&w.inactiveSystems, handle) {
			w.activeSystems = append(w.activeSystems, handle)
			return nil
		}
		if containsHandle(w.activeSystems, handle) {
			return nil
		}
		return fmt.Errorf("system %d is not registered as an inactive periodic system", handle)
	}
	if removeHandle(&w.activeSystems, handle) {
		w.inactiveSystems = append(w.inactiveSystems, handle)
		return nil
	}
	if containsHandle(w.inactiveSystems, handle) {
		return nil
	}
	return fmt.Errorf("system %d is not registered as an active periodic system", handle)
}

// ActiveSystems returns the world's currently active periodic systems.
func (w *World) ActiveSystems() []types.Handle {
	return append([]types.Handle(nil), w.activeSystems...)
}

// InactiveSystems returns the world's currently inactive periodic systems.
func (w *World) InactiveSystems() []types.Handle {
	return append([]types.Handle(nil), w.inactiveSystems...)
}

func removeHandle(list *[]types.Handle, h types.Handle) bool {
	for i, v := range *list {
		if v == h {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

func containsHandle(list []types.Handle, h types.Handle) bool {
	for _, v := range list {
		if v == h {
			return true
		}
	}
	return false
}
