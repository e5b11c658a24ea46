package ecs

import (
	"github.com/dbsmedya/goecs/internal/family"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

// Matches implements the Table Matcher (C2): a table matches a system iff
// all six predicates of spec.md §4.2 hold. An unset (zero) family is
// vacuously satisfied.
//
// Grounded on goarchive's internal/archiver/discovery.go, whose BFS walks
// a table's rows checking foreign-key membership in the same shape the
// from_component predicates here walk a table's family members checking
// component membership.
func Matches(w *world.World, s *System, tableIndex int) bool {
	t := w.TableAt(tableIndex)
	tf := t.Family
	reg := w.Families

	if !reg.Subset(s.FromEntity[types.And], tf) {
		return false
	}
	if s.FromEntity[types.Or] != 0 && !reg.Intersects(s.FromEntity[types.Or], tf) {
		return false
	}
	if !reg.Disjoint(s.FromEntity[types.Not], tf) {
		return false
	}

	if !fromComponentSatisfied(w, reg, tf, s.FromComponent[types.And], true, false) {
		return false
	}
	if s.FromComponent[types.Or] != 0 && !fromComponentSatisfied(w, reg, tf, s.FromComponent[types.Or], false, false) {
		return false
	}
	if !fromComponentSatisfied(w, reg, tf, s.FromComponent[types.Not], false, true) {
		return false
	}

	return true
}

// fromComponentSatisfied checks a from_component predicate by iterating
// the entities/component-handles currently in tf (spec.md treats a
// table's family itself as a set of entity handles here, since this ECS
// lets entities be used as component identities) and asking each one's own
// family, via world.FamilyOf, whether it carries a needle handle.
//
// matchAll requires every needle handle to have a witness (the And
// predicate); otherwise one witness among the needle handles suffices (the
// Or predicate). negate inverts the result for the Not predicate (no
// needle handle may have a witness).
func fromComponentSatisfied(w *world.World, reg *family.Registry, tf, needle types.Family, matchAll, negate bool) bool {
	members := reg.Members(needle)
	if negate {
		for _, h := range members {
			if hasWitness(w, reg, tf, h) {
				return false
			}
		}
		return true
	}
	if matchAll {
		for _, h := range members {
			if !hasWitness(w, reg, tf, h) {
				return false
			}
		}
		return true
	}
	for _, h := range members {
		if hasWitness(w, reg, tf, h) {
			return true
		}
	}
	return false
}

func hasWitness(w *world.World, reg *family.Registry, tf types.Family, needle types.Handle) bool {
	for _, e := range reg.Members(tf) {
		if reg.Has(w.FamilyOf(e), needle) {
			return true
		}
	}
	return false
}
