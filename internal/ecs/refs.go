package ecs

import (
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// ResolveRefs implements the Reference Resolver (C5): for a table
// descriptor with a non-zero RefsIndex, it fills scratch (length ==
// len(desc.OffsetCodes)) with a live component value for every
// FromComponent column, fetched via the world's Get. FromEntity slots are
// left untouched; the dispatcher reads those straight from the row.
//
// Grounded on goarchive's internal/archiver/copy.go row-value fetch loop,
// which walks a fixed column list filling one destination slot per source
// column in the same single pass.
func ResolveRefs(w *world.World, s *System, desc types.TableDescriptor, scratch []any) {
	if desc.RefsIndex == 0 {
		return
	}
	j := 0
	for i, code := range desc.OffsetCodes {
		if code >= 0 {
			continue
		}
		ref := s.Refs[desc.RefsIndex-1+j]
		j++
		value, _ := w.Get(ref.Entity, ref.Component)
		scratch[i] = value
	}
}
