// Package sigparser tokenizes the signature grammar spec.md §6 describes
// and consumes, but deliberately does not own: "the parser is passed the
// add_component callback and the system-state pointer... the core receives
// parsed tokens through a callback; it does not own lexing."
//
// Grounded on goarchive's internal/config/validation.go, which composes
// small regex-driven field checks into a larger parse; here the same style
// tokenizes comma-separated terms, each with an optional source prefix
// ("FromComponent"/bare) and operator prefix ("!", "|"/bare).
package sigparser

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goecs/internal/ident"
	"github.com/dbsmedya/goecs/internal/types"
)

// Sink receives tokens in signature order; internal/ecs.Builder implements
// it (see internal/ecs/builder.go).
type Sink interface {
	Add(tok types.Token) error
}

const fromComponentPrefix = "FromComponent "

// IsEmpty reports whether signature has no terms once whitespace-only and
// empty comma slots are discarded. System Lifecycle (C7) step 1 rejects an
// empty signature before a system's entity is even allocated, ahead of and
// independent from any of Parse's token-resolution failures.
func IsEmpty(signature string) bool {
	return len(splitTerms(signature)) == 0
}

// Parse tokenizes a signature string and feeds each token to sink in
// order, stopping at the first error (either a lexical error here, or a
// build error the sink reports back, e.g. an unresolved component or a
// cross-source Or per spec.md §4.1).
//
// Grammar (spec.md §6): comma-separated terms; each term is
//
//	["FromComponent "] ["!" | "|"] <identifier>
//
// A bare term defaults to FromEntity/And. "|" folds into the previous
// column as an Or alternative (see internal/ecs.Builder); "!" contributes
// only to the Not family and never emits a column.
func Parse(signature string, sink Sink) error {
	terms := splitTerms(signature)
	if len(terms) == 0 {
		return fmt.Errorf("empty signature")
	}
	for i, term := range terms {
		tok, err := parseTerm(term)
		if err != nil {
			return fmt.Errorf("term %d (%q): %w", i+1, term, err)
		}
		if err := sink.Add(tok); err != nil {
			return fmt.Errorf("term %d (%q): %w", i+1, term, err)
		}
	}
	return nil
}

func splitTerms(signature string) []string {
	rawTerms := strings.Split(signature, ",")
	terms := make([]string, 0, len(rawTerms))
	for _, t := range rawTerms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

func parseTerm(term string) (types.Token, error) {
	src := types.FromEntity
	if strings.HasPrefix(term, fromComponentPrefix) {
		src = types.FromComponent
		term = strings.TrimSpace(strings.TrimPrefix(term, fromComponentPrefix))
	}

	op := types.And
	switch {
	case strings.HasPrefix(term, "!"):
		op = types.Not
		term = strings.TrimSpace(strings.TrimPrefix(term, "!"))
	case strings.HasPrefix(term, "|"):
		op = types.Or
		term = strings.TrimSpace(strings.TrimPrefix(term, "|"))
	}

	if !ident.IsValid(term) {
		return types.Token{}, fmt.Errorf("invalid component name %q", term)
	}

	return types.Token{Source: src, Operator: op, Component: term}, nil
}
