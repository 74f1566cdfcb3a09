// Package sequitur infers a context-free grammar from a stream of terminal
// symbols, online: each call to PushBack extends the sequence by exactly
// one symbol and restores the grammar's two invariants before returning —
// no digram (adjacent symbol pair) occurs more than once anywhere in the
// grammar, and no rule is used fewer than twice. Repeated structure in the
// input is folded into rules as it is recognized, so the grammar found
// after n symbols is the same one a batch algorithm would produce from the
// same n symbols, without ever re-reading the input already consumed.
package sequitur

import "github.com/dekarrin/sequitur/internal/grammar"

// Engine holds one grammar under construction over a terminal alphabet T.
// It is not safe for concurrent use; a caller sharing an Engine across
// goroutines must serialize access itself.
type Engine[T comparable] struct {
	g *grammar.Engine[T]
}

// New returns an Engine with an empty start rule.
func New[T comparable]() *Engine[T] {
	return &Engine[T]{g: grammar.New[T]()}
}

// PushBack appends v as the next terminal in the sequence and re-enforces
// digram uniqueness and rule utility across the whole grammar.
func (e *Engine[T]) PushBack(v T) {
	e.g.PushBack(v)
}

// Size reports how many terminals have been pushed so far.
func (e *Engine[T]) Size() int {
	return e.g.Size()
}

// Iterator walks the fully flattened terminal sequence an Engine encodes,
// descending into and returning from rule references transparently.
type Iterator[T comparable] = grammar.Iterator[T]

// Begin returns an iterator positioned at the first terminal pushed.
func (e *Engine[T]) Begin() *Iterator[T] { return e.g.Begin() }

// End returns an iterator one past the last terminal pushed.
func (e *Engine[T]) End() *Iterator[T] { return e.g.End() }

// RBegin returns a reverse iterator positioned at the last terminal pushed.
func (e *Engine[T]) RBegin() *Iterator[T] { return e.g.RBegin() }

// REnd returns a reverse iterator one before the first terminal pushed.
func (e *Engine[T]) REnd() *Iterator[T] { return e.g.REnd() }

// Rule is one production of the inferred grammar, named by ID, with Count
// tracking how many rule references anywhere else in the grammar currently
// name it.
type Rule[T comparable] = grammar.Rule[T]

// Rules returns the grammar's full rule table, keyed by rule id. The start
// rule is always present under id StartRuleID. The returned map must be
// treated as read-only.
func (e *Engine[T]) Rules() map[int]*Rule[T] {
	return e.g.Rules()
}

// StartRuleID returns the id of the grammar's start rule.
func (e *Engine[T]) StartRuleID() int {
	return e.g.StartRuleID()
}

// Stats summarizes an Engine's current size for reporting and debugging.
type Stats struct {
	// Length is the number of terminals pushed so far.
	Length int
	// RuleCount is the number of rules currently in the grammar, including
	// the start rule.
	RuleCount int
}

// Stats computes a Stats snapshot for e.
func (e *Engine[T]) Stats() Stats {
	return Stats{
		Length:    e.g.Size(),
		RuleCount: len(e.g.Rules()),
	}
}

// PushBytes appends every byte of data to e, in order.
func PushBytes(e *Engine[byte], data []byte) {
	for _, b := range data {
		e.PushBack(b)
	}
}

// PushString appends every byte of s to e, in order.
func PushString(e *Engine[byte], s string) {
	for i := 0; i < len(s); i++ {
		e.PushBack(s[i])
	}
}

// Flatten returns the full terminal sequence e currently encodes, expanding
// every rule reference back out to the terminals it stands for.
func Flatten(e *Engine[byte]) []byte {
	out := make([]byte, 0, e.Size())
	end := e.End()
	for it := e.Begin(); !it.Equal(end); it.Next() {
		v, _ := it.Value()
		out = append(out, v)
	}
	return out
}

// FlattenReverse is Flatten, walked from the last terminal pushed back to
// the first.
func FlattenReverse(e *Engine[byte]) []byte {
	out := make([]byte, 0, e.Size())
	rend := e.REnd()
	for it := e.RBegin(); !it.Equal(rend); it.Next() {
		v, _ := it.Value()
		out = append(out, v)
	}
	return out
}
