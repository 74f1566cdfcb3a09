package grammar

import (
	"github.com/dekarrin/sequitur/internal/digram"
	"github.com/dekarrin/sequitur/internal/ids"
	"github.com/dekarrin/sequitur/internal/symbol"
)

// Engine holds one grammar under construction: its rule table, the digram
// index used to enforce uniqueness, and the id pool rule numbers are drawn
// from. An Engine is not safe for concurrent use; callers needing to share
// one across goroutines must serialize access themselves.
type Engine[T comparable] struct {
	idPool  *ids.Pool
	digrams *digram.Index[T]
	rules   map[int]*Rule[T]
	length  int
	startID int
}

// New returns an Engine with a single, empty start rule.
func New[T comparable]() *Engine[T] {
	e := &Engine[T]{
		idPool:  ids.New(),
		digrams: digram.New[T](),
		rules:   make(map[int]*Rule[T]),
	}

	id := e.idPool.Acquire()
	head := symbol.NewNode(symbol.NewHead[T](id))
	tail := symbol.NewNode(symbol.NewTail[T](id))
	head.InsertAfter(tail)

	e.rules[id] = &Rule[T]{ID: id, Head: head, Tail: tail}
	e.startID = id

	return e
}

// Size reports how many terminals have been pushed so far.
func (e *Engine[T]) Size() int { return e.length }

// Rules returns the live rule table, keyed by rule id. Callers must treat
// it as read-only; mutating it directly bypasses every invariant this
// package enforces.
func (e *Engine[T]) Rules() map[int]*Rule[T] { return e.rules }

// StartRuleID returns the id of the grammar's start rule (rule 0, always
// present, never dissolved).
func (e *Engine[T]) StartRuleID() int { return e.startID }

func (e *Engine[T]) startRule() *Rule[T] { return e.rules[e.startID] }

// PushBack appends v to the end of the start rule and restores digram
// uniqueness and rule utility across the whole grammar.
func (e *Engine[T]) PushBack(v T) {
	start := e.startRule()
	n := symbol.NewNode(symbol.NewTerminal(v))
	start.Tail.InsertBefore(n)
	e.length++

	if e.length > 1 {
		e.linkMade(n.Prev())
	}
}

// linkMade runs whenever a new adjacency (first, first.Next()) appears in
// the grammar. It looks for another occurrence of that same digram and, if
// one exists without overlapping this one, folds both into a rule (a new
// one, or an existing one if the other occurrence already was a complete
// rule body).
func (e *Engine[T]) linkMade(first *symbol.Node[T]) {
	match := e.findAndAddDigram(first)
	if match == nil {
		return
	}

	if rule := e.getCompleteRule(match); rule != nil {
		loc := e.swapForExistingRule(first, rule)
		e.checkNewLinksOne(loc)
		return
	}

	loc1, loc2 := e.swapForNewRule(first, match)
	e.checkNewLinksTwo(loc1, loc2)
}

// findAndAddDigram records the digram at first in the index if no other
// occurrence is indexed yet, and otherwise returns the node beginning the
// other occurrence — unless that occurrence overlaps first's, in which
// case there is nothing usable to do with the match.
func (e *Engine[T]) findAndAddDigram(first *symbol.Node[T]) *symbol.Node[T] {
	existing, found := e.digrams.TryInsert(first)
	if !found {
		return nil
	}
	if existing.Next() == first || existing == first.Next() {
		return nil
	}
	return existing
}

// getCompleteRule reports the rule that first is the sole body of, i.e.
// first's predecessor is a Head and first's digram partner's successor is
// the matching Tail.
func (e *Engine[T]) getCompleteRule(first *symbol.Node[T]) *Rule[T] {
	head := first.Prev()
	tail := first.NextN(2)
	if head == nil || tail == nil {
		return nil
	}
	if head.Sym.Kind == symbol.Head && tail.Sym.Kind == symbol.Tail {
		return e.rules[head.Sym.RuleID]
	}
	return nil
}

// swapForNewRule mints a new rule whose body is a copy of the digram at
// match1 (and match2), then replaces both occurrences with a reference to
// it. Returns the two positions where the new RuleRef ended up.
func (e *Engine[T]) swapForNewRule(match1, match2 *symbol.Node[T]) (*symbol.Node[T], *symbol.Node[T]) {
	match1Second := match1.Next()

	id := e.idPool.Acquire()
	head := symbol.NewNode(symbol.NewHead[T](id))
	tail := symbol.NewNode(symbol.NewTail[T](id))

	item1 := symbol.NewNode(match1.Sym)
	item2 := symbol.NewNode(match1Second.Sym)
	head.InsertAfter(item1)
	item1.InsertAfter(item2)
	item2.InsertAfter(tail)

	rule := &Rule[T]{ID: id, Head: head, Tail: tail}
	e.rules[id] = rule

	e.digrams.Set(item1)

	e.incrementIfRule(match1)
	e.incrementIfRule(match1Second)

	loc1 := e.swapForExistingRule(match1, rule)
	loc2 := e.swapForExistingRule(match2, rule)

	return loc1, loc2
}

// swapForExistingRule replaces the digram beginning at first with a RuleRef
// to rule, expanding rule's own body back out first if doing so would
// otherwise leave some other rule referenced only once.
func (e *Engine[T]) swapForExistingRule(first *symbol.Node[T], rule *Rule[T]) *symbol.Node[T] {
	second := first.Next()
	beforeDigram := first.Prev()

	e.digrams.RemoveIfPointing(second)
	e.digrams.RemoveIfPointing(beforeDigram)

	symbol.UnlinkPair[T](first)

	e.decrementIfRule(first)
	e.decrementIfRule(second)

	newRule := symbol.NewNode(symbol.NewRuleRef[T](rule.ID))
	rule.Count++

	item1 := rule.Head.Next()
	item2 := item1.Next()
	e.expandRuleIfNecessary(item1)
	e.expandRuleIfNecessary(item2)

	return beforeDigram.InsertAfter(newRule)
}

func (e *Engine[T]) decrementIfRule(n *symbol.Node[T]) {
	if n.Sym.Kind == symbol.RuleRef {
		e.rules[n.Sym.RuleID].Count--
	}
}

func (e *Engine[T]) incrementIfRule(n *symbol.Node[T]) {
	if n.Sym.Kind == symbol.RuleRef {
		e.rules[n.Sym.RuleID].Count++
	}
}

// checkNewLinksTwo re-examines every digram boundary disturbed by folding
// two occurrences into one rule: around each new RuleRef, and the digram
// spanning the gap between them if they used to be adjacent.
func (e *Engine[T]) checkNewLinksTwo(rule1, rule2 *symbol.Node[T]) {
	if rule1Next := rule1.Next(); rule1Next.Sym.Kind != symbol.Tail && rule1.Sym.Kind != symbol.Head {
		e.linkMade(rule1)
	}
	if rule2Next := rule2.Next(); rule2Next.Sym.Kind != symbol.Tail && rule2.Sym.Kind != symbol.Head {
		e.linkMade(rule2)
	}
	if rule2Prev := rule2.Prev(); rule2Prev != rule1 && rule2Prev.Sym.Kind != symbol.Head {
		e.linkMade(rule2Prev)
	}
	if rule1Prev := rule1.Prev(); rule1Prev != rule2 && rule1Prev.Sym.Kind != symbol.Head {
		e.linkMade(rule1Prev)
	}
}

// checkNewLinksOne is checkNewLinksTwo for the single-occurrence case: only
// one new RuleRef was placed, so there is no gap between two to check.
func (e *Engine[T]) checkNewLinksOne(rule1 *symbol.Node[T]) {
	if rule1Next := rule1.Next(); rule1Next.Sym.Kind != symbol.Tail && rule1.Sym.Kind != symbol.Head {
		e.linkMade(rule1)
	}
	if rule1Prev := rule1.Prev(); rule1Prev.Sym.Kind != symbol.Head {
		e.linkMade(rule1Prev)
	}
}

// expandRuleIfNecessary dissolves the rule potentialRule refers to back
// into the body it replaces, if that rule is now referenced only once
// elsewhere in the grammar — a rule used once is pure overhead, not reuse.
func (e *Engine[T]) expandRuleIfNecessary(n *symbol.Node[T]) {
	if n.Sym.Kind != symbol.RuleRef {
		return
	}

	rule := e.rules[n.Sym.RuleID]
	if rule.Count != 1 {
		return
	}

	ruleFirstItem := rule.Head.Next()
	ruleLastItem := rule.Tail.Prev()

	delete(e.rules, rule.ID)
	e.idPool.Release(rule.ID)

	before := n.Prev()
	after := n.Next()

	e.digrams.RemoveIfPointing(before)
	e.digrams.RemoveIfPointing(n)

	rule.Head.SplitAfter()
	rule.Tail.SplitBefore()

	n.SplitBefore()
	n.SplitAfter()

	before.JoinAfter(ruleFirstItem)
	after.JoinBefore(ruleLastItem)

	if before.Sym.Kind != symbol.Head {
		e.linkMade(before)
	}
	if ruleLastItem.Next().Sym.Kind != symbol.Tail {
		e.linkMade(ruleLastItem)
	}
}
