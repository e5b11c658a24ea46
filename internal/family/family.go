// Package family implements the interned component-set registry spec.md
// §3 calls out as an external collaborator ("the family index"): two
// families built from the same set of handles are identical values, and
// membership/containment queries never walk an uninterned set twice.
//
// The registry is the structural analogue of goarchive's
// internal/graph.Graph — a map-backed registry with deterministic,
// insertion-ordered enumeration — backed here by
// elliotchance/orderedmap/v2 so that tests and the diagnostics renderer can
// list families in creation order.
package family

import (
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/goecs/internal/types"
)

// Registry interns Family values over sets of types.Handle.
type Registry struct {
	byKey   map[string]types.Family
	members *orderedmap.OrderedMap[types.Family, []types.Handle]
	next    types.Family
}

// New returns an empty registry. Family 0 is reserved for the empty set and
// is never handed out by Add.
func New() *Registry {
	return &Registry{
		byKey:   make(map[string]types.Family),
		members: orderedmap.NewOrderedMap[types.Family, []types.Handle](),
		next:    1,
	}
}

// Add returns the interned family obtained by inserting h into f (set
// insertion, not append): family_add(F, h) -> F' from spec.md §3.
func (r *Registry) Add(f types.Family, h types.Handle) types.Family {
	if h == 0 {
		return f
	}
	existing := r.Members(f)
	for _, m := range existing {
		if m == h {
			return f
		}
	}
	merged := make([]types.Handle, len(existing), len(existing)+1)
	copy(merged, existing)
	merged = append(merged, h)
	return r.intern(merged)
}

// Of interns the family containing exactly the given handles.
func (r *Registry) Of(handles ...types.Handle) types.Family {
	uniq := make(map[types.Handle]struct{}, len(handles))
	set := make([]types.Handle, 0, len(handles))
	for _, h := range handles {
		if h == 0 {
			continue
		}
		if _, ok := uniq[h]; ok {
			continue
		}
		uniq[h] = struct{}{}
		set = append(set, h)
	}
	return r.intern(set)
}

func (r *Registry) intern(members []types.Handle) types.Family {
	if len(members) == 0 {
		return 0
	}
	sorted := append([]types.Handle(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := canonicalKey(sorted)
	if f, ok := r.byKey[key]; ok {
		return f
	}
	f := r.next
	r.next++
	r.byKey[key] = f
	r.members.Set(f, sorted)
	return f
}

func canonicalKey(sorted []types.Handle) string {
	var b strings.Builder
	for i, h := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(h), 10))
	}
	return b.String()
}

// Members returns the sorted handle set for f, or nil for the empty family.
func (r *Registry) Members(f types.Family) []types.Handle {
	if f == 0 {
		return nil
	}
	members, _ := r.members.Get(f)
	return members
}

// Has reports whether family f contains handle h.
func (r *Registry) Has(f types.Family, h types.Handle) bool {
	for _, m := range r.Members(f) {
		if m == h {
			return true
		}
	}
	return false
}

// Contains implements family_contains(table_family, needle_family,
// match_all) from spec.md §3: with matchAll, every handle in needle must be
// present in table, and any one present handle is returned; without
// matchAll, the first handle of needle (in needle's own member order) found
// in table is returned. Returns 0 for no match, and also returns 0 when
// needle is the empty family, whatever matchAll is (there is no handle to
// return).
func (r *Registry) Contains(tableFamily, needle types.Family, matchAll bool) types.Handle {
	needleMembers := r.Members(needle)
	if matchAll {
		var found types.Handle
		for _, h := range needleMembers {
			if !r.Has(tableFamily, h) {
				return 0
			}
			found = h
		}
		return found
	}
	for _, h := range needleMembers {
		if r.Has(tableFamily, h) {
			return h
		}
	}
	return 0
}

// Subset reports whether every handle of a is present in b (A ⊆ TF).
func (r *Registry) Subset(a, b types.Family) bool {
	for _, h := range r.Members(a) {
		if !r.Has(b, h) {
			return false
		}
	}
	return true
}

// Intersects reports whether a and b share at least one handle (O ∩ TF ≠ ∅).
func (r *Registry) Intersects(a, b types.Family) bool {
	for _, h := range r.Members(a) {
		if r.Has(b, h) {
			return true
		}
	}
	return false
}

// Disjoint reports whether a and b share no handles (N ∩ TF = ∅).
func (r *Registry) Disjoint(a, b types.Family) bool {
	return !r.Intersects(a, b)
}

// All returns every interned family in creation order, for diagnostics.
func (r *Registry) All() []types.Family {
	out := make([]types.Family, 0, r.members.Len())
	for el := r.members.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}
