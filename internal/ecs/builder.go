// Package ecs is the system engine core: signature building (C1), table
// matching (C2), table binding (C3), activation (C4), reference resolution
// (C5), dispatch (C6), and system lifecycle (C7).
package ecs

import (
	"fmt"

	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Builder implements sigparser.Sink: it consumes parsed tokens in
// signature order and incrementally populates a system's columns and
// operator families, per spec.md §4.1.
//
// Grounded on goarchive's internal/graph.Builder, which consumes a
// JobConfig's relation list incrementally into a Graph — the same
// accumulate-as-you-go shape, over column/family state instead of graph
// nodes/edges.
type Builder struct {
	w *world.World

	columns       []types.Column
	fromEntity    [3]types.Family
	fromComponent [3]types.Family
	componentSeen map[types.Handle]struct{}
}

// NewBuilder returns a Builder that resolves component names against w.
func NewBuilder(w *world.World) *Builder {
	return &Builder{w: w, componentSeen: make(map[types.Handle]struct{})}
}

// Add resolves tok.Component and folds it into the builder's state. It
// implements sigparser.Sink.
func (b *Builder) Add(tok types.Token) error {
	h, ok := b.w.Lookup(tok.Component)
	if !ok {
		return fmt.Errorf("unresolved component %q", tok.Component)
	}
	b.componentSeen[h] = struct{}{}

	switch tok.Operator {
	case types.Not:
		b.addOperatorFamily(tok.Source, types.Not, h)
		return nil
	case types.Or:
		b.addOperatorFamily(tok.Source, types.Or, h)
		return b.foldOr(tok.Source, h)
	default: // And
		b.addOperatorFamily(tok.Source, types.And, h)
		b.columns = append(b.columns, types.Column{Source: tok.Source, Operator: types.And, Handle: h})
		return nil
	}
}

func (b *Builder) addOperatorFamily(src types.Source, op types.Operator, h types.Handle) {
	if src == types.FromEntity {
		b.fromEntity[op] = b.w.Families.Add(b.fromEntity[op], h)
	} else {
		b.fromComponent[op] = b.w.Families.Add(b.fromComponent[op], h)
	}
}

// foldOr folds an Or term into the last column, per spec.md §4.1: if the
// last column was a plain And, it is promoted to carry a family payload —
// the cross-source guard fires here, at the moment of promotion, not on a
// later Or term (spec.md §9 Open Question a). If the last column is
// already a folded Or, its source must match and its family is extended.
// An Or with no prior column starts a fresh folded column of its own.
func (b *Builder) foldOr(src types.Source, h types.Handle) error {
	if len(b.columns) == 0 {
		b.columns = append(b.columns, types.Column{
			Source:   src,
			Operator: types.And,
			Family:   b.w.Families.Of(h),
		})
		return nil
	}

	last := &b.columns[len(b.columns)-1]
	if !last.IsFamily() {
		if last.Source != src {
			return fmt.Errorf("cannot mix FromEntity and FromComponent within one Or term")
		}
		last.Family = b.w.Families.Of(last.Handle, h)
		last.Handle = 0
		return nil
	}

	if last.Source != src {
		return fmt.Errorf("cannot mix FromEntity and FromComponent within one Or term")
	}
	last.Family = b.w.Families.Add(last.Family, h)
	return nil
}

// Columns returns the bound column list, in signature order.
func (b *Builder) Columns() []types.Column {
	return b.columns
}

// FromEntityFamilies returns the accumulated [And, Or, Not] FromEntity
// families.
func (b *Builder) FromEntityFamilies() [3]types.Family {
	return b.fromEntity
}

// FromComponentFamilies returns the accumulated [And, Or, Not]
// FromComponent families.
func (b *Builder) FromComponentFamilies() [3]types.Family {
	return b.fromComponent
}

// ComponentCount returns the number of distinct components referenced by
// the signature seen so far (spec.md §4.7 step 1: "component count = 0"
// is the empty-signature rejection condition).
func (b *Builder) ComponentCount() int {
	return len(b.componentSeen)
}
