package grammar

import "github.com/dekarrin/sequitur/internal/symbol"

// Iterator walks the fully flattened terminal sequence a grammar encodes,
// descending into and returning from RuleRefs transparently so callers see
// only the terminals the grammar would expand to. It holds a stack of the
// RuleRef nodes currently "above" it so it can climb back out of a rule
// body when it reaches that rule's Tail (forward) or Head (backward).
type Iterator[T comparable] struct {
	engine  *Engine[T]
	stack   []*symbol.Node[T]
	current *symbol.Node[T]
	reverse bool
}

// Begin returns an iterator positioned at the grammar's first terminal.
func (e *Engine[T]) Begin() *Iterator[T] {
	it := &Iterator[T]{engine: e}
	it.current = e.resolveForward(&it.stack, e.startRule().Head)
	return it
}

// End returns an iterator one past the grammar's last terminal.
func (e *Engine[T]) End() *Iterator[T] {
	it := &Iterator[T]{engine: e}
	it.current = e.resolveForward(&it.stack, e.startRule().Tail)
	return it
}

// RBegin returns a reverse iterator positioned at the grammar's last
// terminal.
func (e *Engine[T]) RBegin() *Iterator[T] {
	it := &Iterator[T]{engine: e, reverse: true}
	it.current = e.resolveBackward(&it.stack, e.startRule().Tail)
	return it
}

// REnd returns a reverse iterator one before the grammar's first terminal.
func (e *Engine[T]) REnd() *Iterator[T] {
	it := &Iterator[T]{engine: e, reverse: true}
	it.current = e.resolveBackward(&it.stack, e.startRule().Head)
	return it
}

// resolveForward walks in downward through any RuleRef until it lands on a
// Terminal, or climbs back out through stack when it runs off the end of a
// rule body (its Tail). An empty stack at a Tail means in is the top-level
// sequence end.
func (e *Engine[T]) resolveForward(stack *[]*symbol.Node[T], in *symbol.Node[T]) *symbol.Node[T] {
	switch in.Sym.Kind {
	case symbol.Terminal:
		return in
	case symbol.RuleRef:
		*stack = append(*stack, in)
		rule := e.rules[in.Sym.RuleID]
		return e.resolveForward(stack, rule.Head.Next())
	case symbol.Head:
		return e.resolveForward(stack, in.Next())
	default: // Tail
		if len(*stack) == 0 {
			return in
		}
		top := len(*stack) - 1
		back := (*stack)[top]
		*stack = (*stack)[:top]
		return e.resolveForward(stack, back.Next())
	}
}

// resolveBackward is resolveForward's mirror image for walking the grammar
// in reverse: it descends into a RuleRef's last terminal and climbs back
// out through a rule's Head.
func (e *Engine[T]) resolveBackward(stack *[]*symbol.Node[T], in *symbol.Node[T]) *symbol.Node[T] {
	switch in.Sym.Kind {
	case symbol.Terminal:
		return in
	case symbol.RuleRef:
		*stack = append(*stack, in)
		rule := e.rules[in.Sym.RuleID]
		return e.resolveBackward(stack, rule.Tail.Prev())
	case symbol.Tail:
		return e.resolveBackward(stack, in.Prev())
	default: // Head
		if len(*stack) == 0 {
			return in
		}
		top := len(*stack) - 1
		back := (*stack)[top]
		*stack = (*stack)[:top]
		return e.resolveBackward(stack, back.Prev())
	}
}

// Next advances the iterator by one terminal.
func (it *Iterator[T]) Next() {
	if it.reverse {
		it.current = it.engine.resolveBackward(&it.stack, it.current.Prev())
	} else {
		it.current = it.engine.resolveForward(&it.stack, it.current.Next())
	}
}

// Prev moves the iterator back by one terminal.
func (it *Iterator[T]) Prev() {
	if it.reverse {
		it.current = it.engine.resolveForward(&it.stack, it.current.Next())
	} else {
		it.current = it.engine.resolveBackward(&it.stack, it.current.Prev())
	}
}

// Value returns the terminal the iterator currently points at. ok is false
// at End/REnd, where there is no terminal to return.
func (it *Iterator[T]) Value() (value T, ok bool) {
	if it.current.Sym.Kind != symbol.Terminal {
		var zero T
		return zero, false
	}
	return it.current.Sym.Term, true
}

// Equal reports whether it and other denote the same logical position:
// same current node and same stack of enclosing RuleRefs.
func (it *Iterator[T]) Equal(other *Iterator[T]) bool {
	if it.current != other.current {
		return false
	}
	if len(it.stack) != len(other.stack) {
		return false
	}
	for i := range it.stack {
		if it.stack[i] != other.stack[i] {
			return false
		}
	}
	return true
}
