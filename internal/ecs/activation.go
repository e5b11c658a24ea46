package ecs

import (
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Activate implements the Activation Manager (C4): it moves tableIndex's
// descriptor between s.InactiveTables and s.Tables by swap-with-last,
// then flips the system's own active/inactive membership in w when the
// size of s.Tables crosses the 0/1 boundary (grows to 1 on activation,
// drops to 0 on deactivation).
//
// Grounded on goarchive's internal/graph.ProcessingQueue node bookkeeping:
// the same "find by key, swap with last, truncate" removal discipline,
// applied to an unordered partition instead of a FIFO queue.
//
// tableIndex is expected to be present in the source partition — the
// binder (C3) and the world's row-count bookkeeping guarantee this. A
// mismatch (the world notifying an activation the system never bound) is
// silently ignored rather than treated as fatal, since the world may fan
// an activation out to systems that never matched the table.
func Activate(w *world.World, s *System, tableIndex int, active bool) {
	if active {
		i, ok := findDescriptor(s.InactiveTables, tableIndex)
		if !ok {
			return
		}
		desc := s.InactiveTables[i]
		s.InactiveTables = swapRemove(s.InactiveTables, i)
		s.Tables = append(s.Tables, desc)
		if len(s.Tables) == 1 && s.Enabled {
			_ = w.ActivateSystem(s.Handle, true)
		}
		return
	}

	i, ok := findDescriptor(s.Tables, tableIndex)
	if !ok {
		return
	}
	desc := s.Tables[i]
	s.Tables = swapRemove(s.Tables, i)
	s.InactiveTables = append(s.InactiveTables, desc)
	if len(s.Tables) == 0 {
		_ = w.ActivateSystem(s.Handle, false)
	}
}

func findDescriptor(list []types.TableDescriptor, tableIndex int) (int, bool) {
	for i, d := range list {
		if d.TableIndex == tableIndex {
			return i, true
		}
	}
	return 0, false
}

func swapRemove(list []types.TableDescriptor, i int) []types.TableDescriptor {
	last := len(list) - 1
	list[i] = list[last]
	return list[:last]
}
