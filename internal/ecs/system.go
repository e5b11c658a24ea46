package ecs

import (
	"fmt"

	"github.com/dbsmedya/goecs/internal/sigparser"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

const (
	systemComponentName = "System"
	idComponentName     = "Id"
)

// System is the C7-owned state spec.md §3 describes: the column list and
// operator families built by C1, the active/inactive table partitions
// maintained by C3/C4, and the reference block C3/C5 share.
//
// Grounded on goarchive's internal/archiver job-state struct: one struct
// that accumulates configuration during setup and is then driven, as a
// whole, by the run loop — here the run loop is the Dispatcher instead of
// the batch copier.
type System struct {
	Handle  types.Handle
	ID      string
	Kind    types.SystemKind
	Enabled bool
	Action  Action

	Columns       []types.Column
	FromEntity    [3]types.Family
	FromComponent [3]types.Family

	Tables         []types.TableDescriptor
	InactiveTables []types.TableDescriptor
	Refs           []types.Ref

	w *world.World
}

var _ world.Watcher = (*System)(nil)

// New implements System Lifecycle (C7)'s new_system operation. It rejects
// an empty signature before touching the world at all (step 1), allocates
// the system's backing entity and initializes its state (steps 2-3),
// drives the external parser through a Builder (step 4, unwinding the
// entity on any failure), matches and binds every existing table (step
// 5), and registers the system in the world by kind (step 6).
func New(w *world.World, id string, kind types.SystemKind, signature string, action Action) (types.Handle, error) {
	if sigparser.IsEmpty(signature) {
		return 0, fmt.Errorf("system %q: empty signature", id)
	}

	entity := w.Define(id)
	sysComp := w.Define(systemComponentName)
	idComp := w.Define(idComponentName)
	w.Add(entity, sysComp, kind)
	w.Add(entity, idComp, id)

	s := &System{
		Handle:  entity,
		ID:      id,
		Kind:    kind,
		Enabled: true,
		Action:  action,
		w:       w,
	}

	b := NewBuilder(w)
	if err := sigparser.Parse(signature, b); err != nil {
		w.Delete(entity)
		return 0, fmt.Errorf("system %q: %w", id, err)
	}
	s.Columns = b.Columns()
	s.FromEntity = b.FromEntityFamilies()
	s.FromComponent = b.FromComponentFamilies()

	for i := 0; i < w.TableCount(); i++ {
		if Matches(w, s, i) {
			Bind(w, s, i)
		}
	}

	w.RegisterWatcher(s)
	switch kind {
	case types.Periodic:
		w.RegisterPeriodic(entity, len(s.Tables) > 0)
	default:
		w.RegisterOther(entity)
	}

	return entity, nil
}

// Enable implements the enable operation: toggling enabled, and only when
// the flag actually changes and the system has at least one active table,
// moving it between the world's active/inactive periodic lists. Idempotent.
func Enable(w *world.World, s *System, on bool) error {
	if s.Enabled == on {
		return nil
	}
	s.Enabled = on
	if len(s.Tables) > 0 {
		return w.ActivateSystem(s.Handle, on)
	}
	return nil
}

// IsEnabled implements is_enabled: a nil system (an unresolved handle)
// defaults to enabled, per spec's benign-default contract.
func IsEnabled(s *System) bool {
	if s == nil {
		return true
	}
	return s.Enabled
}

// WatcherHandle, NotifyCreateTable, ActivateTable, and NotifyRow implement
// world.Watcher, giving late-created tables the same matching and binding
// treatment existing tables got at system creation (spec.md §4.7 "Late
// table creation").

func (s *System) WatcherHandle() types.Handle {
	return s.Handle
}

func (s *System) NotifyCreateTable(tableIndex int) {
	if Matches(s.w, s, tableIndex) {
		Bind(s.w, s, tableIndex)
	}
}

func (s *System) ActivateTable(tableIndex int, active bool) {
	Activate(s.w, s, tableIndex, active)
}

func (s *System) NotifyRow(tableIndex, rowIndex int) {
	NotifyRow(s.w, s, tableIndex, rowIndex)
}

// SystemID and BoundTableIndices satisfy internal/pipeline's SystemView, the
// same narrow-interface pattern world.Watcher uses: pipeline builds a run
// order from these two facts without depending on the concrete System type.
func (s *System) SystemID() string {
	return s.ID
}

func (s *System) BoundTableIndices() []int {
	indices := make([]int, 0, len(s.Tables)+len(s.InactiveTables))
	for _, d := range s.Tables {
		indices = append(indices, d.TableIndex)
	}
	for _, d := range s.InactiveTables {
		indices = append(indices, d.TableIndex)
	}
	return indices
}
