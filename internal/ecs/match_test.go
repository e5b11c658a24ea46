package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goecs/internal/sigparser"
	"github.com/dbsmedya/goecs/internal/types"
	"github.com/dbsmedya/goecs/internal/world"
)

func buildSystem(t *testing.T, w *world.World, signature string) *System {
	t.Helper()
	bld := NewBuilder(w)
	require.NoError(t, sigparser.Parse(signature, bld))
	return &System{
		Columns:       bld.Columns(),
		FromEntity:    bld.FromEntityFamilies(),
		FromComponent: bld.FromComponentFamilies(),
		Enabled:       true,
	}
}

func tableIndexFor(w *world.World, entity types.Handle) (int, bool) {
	fam := w.FamilyOf(entity)
	for i := 0; i < w.TableCount(); i++ {
		if w.TableAt(i).Family == fam {
			return i, true
		}
	}
	return 0, false
}

func TestMatchFromEntityAndOrNot(t *testing.T) {
	w := world.New()
	a := w.Define("A")
	b := w.Define("B")
	c := w.Define("C")

	s := buildSystem(t, w, "A, |B, !C")

	e1 := w.Define("e1")
	w.Add(e1, a, nil)
	w.Add(e1, b, nil)
	idx, ok := tableIndexFor(w, e1)
	require.True(t, ok)
	assert.True(t, Matches(w, s, idx))

	e2 := w.Define("e2")
	w.Add(e2, a, nil)
	w.Add(e2, c, nil)
	idx, ok = tableIndexFor(w, e2)
	require.True(t, ok)
	assert.False(t, Matches(w, s, idx), "A without the Or alternative must not match")

	e3 := w.Define("e3")
	w.Add(e3, a, nil)
	w.Add(e3, b, nil)
	w.Add(e3, c, nil)
	idx, ok = tableIndexFor(w, e3)
	require.True(t, ok)
	assert.False(t, Matches(w, s, idx), "presence of the Not component must disqualify the table")
}

func TestMatchFromComponentPredicates(t *testing.T) {
	w := world.New()
	a := w.Define("A")
	u := w.Define("Unrelated")

	e := w.Define("E")
	w.Add(e, a, nil)

	holder := w.Define("holder")
	w.Add(holder, e, nil)

	s := buildSystem(t, w, "FromComponent A")
	idx, ok := tableIndexFor(w, holder)
	require.True(t, ok)
	assert.True(t, Matches(w, s, idx))

	other := w.Define("other")
	notA := w.Define("notA")
	w.Add(notA, u, nil)
	w.Add(other, notA, nil)
	idx, ok = tableIndexFor(w, other)
	require.True(t, ok)
	assert.False(t, Matches(w, s, idx))
}

func TestMatchVacuousEmptyFamilies(t *testing.T) {
	w := world.New()
	a := w.Define("A")

	s := buildSystem(t, w, "A")
	e := w.Define("e1")
	w.Add(e, a, nil)
	idx, ok := tableIndexFor(w, e)
	require.True(t, ok)
	assert.True(t, Matches(w, s, idx))
}
