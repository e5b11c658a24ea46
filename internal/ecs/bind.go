package ecs

import (
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Bind implements the Table Binder (C3): once tableIndex matches s, it
// allocates a table descriptor (into s.Tables if the table currently has
// rows, s.InactiveTables otherwise), fills its offset codes, and appends s
// to the table's kind-specific system list.
//
// Grounded on goarchive's internal/archiver/batch.go RootIDFetcher: the
// same "lazily create, lazily append" discipline governs growing a
// system's Refs block one table-sized chunk at a time.
func Bind(w *world.World, s *System, tableIndex int) {
	t := w.TableAt(tableIndex)
	desc := types.TableDescriptor{
		TableIndex:  tableIndex,
		OffsetCodes: make([]int, len(s.Columns)),
	}

	for i, col := range s.Columns {
		if col.Source == types.FromEntity {
			component := resolveFromEntityComponent(w, t.Family, col)
			offset, _ := t.ColumnOffset(component)
			desc.OffsetCodes[i] = offset
			continue
		}

		entity, component := resolveFromComponentTarget(w, t.Family, col)
		s.Refs = append(s.Refs, types.Ref{Entity: entity, Component: component})
		if desc.RefsIndex == 0 {
			desc.RefsIndex = len(s.Refs) // 1-based index of this block's first record
		}
		// The offset code is the column's own 1-based position, not a
		// pointer into S.refs: the dispatcher indexes a per-call scratch
		// array sized by column count (info.refs[-code-1]), and the
		// Reference Resolver (C5) separately walks this table's
		// contiguous refs block starting at RefsIndex-1 to fill it.
		desc.OffsetCodes[i] = -(i + 1)
	}

	if t.RowCount() > 0 {
		s.Tables = append(s.Tables, desc)
	} else {
		s.InactiveTables = append(s.InactiveTables, desc)
	}

	w.BindSystem(tableIndex, s.Handle, s.Kind)
}

// resolveFromEntityComponent returns the concrete component handle a
// FromEntity column resolves to against table family tf: the column's own
// handle for a plain And column, or the first alternative present in tf
// for a folded Or column.
func resolveFromEntityComponent(w *world.World, tf types.Family, col types.Column) types.Handle {
	if !col.IsFamily() {
		return col.Handle
	}
	return w.Families.Contains(tf, col.Family, false)
}

// resolveFromComponentTarget finds the (entity, component) pair a
// FromComponent column resolves to: the first entity in tf carrying the
// requested component (a single handle for a plain And column, any
// alternative from the family for a folded Or column — spec.md §9 Open
// Question b: first match in the family's member order, which is ascending
// handle order here).
func resolveFromComponentTarget(w *world.World, tf types.Family, col types.Column) (types.Handle, types.Handle) {
	reg := w.Families
	members := reg.Members(tf)

	if !col.IsFamily() {
		for _, e := range members {
			if reg.Has(w.FamilyOf(e), col.Handle) {
				return e, col.Handle
			}
		}
		return 0, col.Handle
	}

	for _, e := range members {
		if h := reg.Contains(w.FamilyOf(e), col.Family, false); h != 0 {
			return e, h
		}
	}
	return 0, 0
}
