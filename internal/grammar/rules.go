// Package grammar holds the rule table and the core enforcement engine that
// keeps a Sequitur grammar satisfying digram uniqueness and rule utility
// after every symbol appended to it.
package grammar

import "github.com/dekarrin/sequitur/internal/symbol"

// Rule is one production: a Head/Tail-bracketed chain of symbols, plus how
// many RuleRef occurrences anywhere else in the grammar currently name it.
// The start rule (rule 0) is never referenced by a RuleRef and so its Count
// stays 0 for the grammar's whole lifetime; expandRuleIfNecessary only ever
// inspects the Count of a rule it was reached through via a RuleRef, so
// rule 0 is never a candidate for dissolution without any special-casing.
type Rule[T comparable] struct {
	ID    int
	Head  *symbol.Node[T]
	Tail  *symbol.Node[T]
	Count int
}
