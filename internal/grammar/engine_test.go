package grammar

import (
	"testing"

	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, s string) *Engine[byte] {
	t.Helper()
	e := New[byte]()
	for i := 0; i < len(s); i++ {
		e.PushBack(s[i])
	}
	return e
}

func flattenForward(e *Engine[byte]) []byte {
	var out []byte
	end := e.End()
	for it := e.Begin(); !it.Equal(end); it.Next() {
		v, _ := it.Value()
		out = append(out, v)
	}
	return out
}

func flattenReverse(e *Engine[byte]) []byte {
	var out []byte
	rend := e.REnd()
	for it := e.RBegin(); !it.Equal(rend); it.Next() {
		v, _ := it.Value()
		out = append(out, v)
	}
	return out
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// allDigrams walks every rule body and collects every adjacent symbol pair
// as a comparable key, so uniqueness can be checked across the whole
// grammar at once (not just through the live digram index).
func allDigrams(t *testing.T, e *Engine[byte]) map[[2]symbol.Key]int {
	t.Helper()
	counts := make(map[[2]symbol.Key]int)
	for _, rule := range e.Rules() {
		for n := rule.Head; n != nil; n = n.Next() {
			if n.Next() == nil {
				break
			}
			if n.Sym.IsGuard() || n.Next().Sym.IsGuard() {
				continue
			}
			key := [2]symbol.Key{symbol.KeyOf(n.Sym), symbol.KeyOf(n.Next().Sym)}
			counts[key]++
		}
	}
	return counts
}

func TestEngine_RoundTripsInputExactly(t *testing.T) {
	cases := []string{
		"abcabcabc",
		"aaaa",
		"abcdbcabcd",
		"aaaaa",
		"",
		"a",
		"ab",
		"abababababab",
	}

	for _, c := range cases {
		c := c
		t.Run(c, func(t *testing.T) {
			e := build(t, c)
			assert.Equal(t, []byte(c), flattenForward(e))
			assert.Equal(t, len(c), e.Size())
		})
	}
}

func TestEngine_ReverseFlattenIsMirrorOfForward(t *testing.T) {
	cases := []string{"abcabcabc", "aaaaa", "abcdbcabcd", "mississippi"}

	for _, c := range cases {
		c := c
		t.Run(c, func(t *testing.T) {
			e := build(t, c)
			assert.Equal(t, reverseBytes([]byte(c)), flattenReverse(e))
		})
	}
}

func TestEngine_DigramUniqueness(t *testing.T) {
	cases := []string{"abcabcabc", "aaaaaaaa", "abcdbcabcd", "mississippi river"}

	for _, c := range cases {
		c := c
		t.Run(c, func(t *testing.T) {
			e := build(t, c)
			for digram, count := range allDigrams(t, e) {
				assert.Equalf(t, 1, count, "digram %v used %d times", digram, count)
			}
		})
	}
}

func TestEngine_RuleUtility(t *testing.T) {
	cases := []string{"abcabcabc", "abcdbcabcd", "mississippi river", "abababcabcabc"}

	for _, c := range cases {
		c := c
		t.Run(c, func(t *testing.T) {
			e := build(t, c)
			for id, rule := range e.Rules() {
				if id == e.StartRuleID() {
					continue
				}
				assert.GreaterOrEqualf(t, rule.Count, 2, "rule %d used fewer than twice", id)
			}
		})
	}
}

func TestEngine_CreatesRuleForRepeatedDigram(t *testing.T) {
	e := build(t, "abab")
	require.Len(t, e.Rules(), 2)

	e2 := build(t, "abcabc")
	require.Len(t, e2.Rules(), 2)
}

func TestEngine_DissolvesRuleUsedOnlyOnce(t *testing.T) {
	// "abab" forms rule [ab]; appending "cabc" should not leave any rule
	// referenced only once once digrams settle.
	e := build(t, "abab")
	e.PushBack('c')
	e.PushBack('a')
	e.PushBack('b')
	e.PushBack('c')

	for id, rule := range e.Rules() {
		if id == e.StartRuleID() {
			continue
		}
		assert.GreaterOrEqual(t, rule.Count, 2)
	}
	assert.Equal(t, []byte("ababcabc"), flattenForward(e))
}

func TestEngine_LargeRoundTrip(t *testing.T) {
	input := make([]byte, 0, 2000)
	pattern := []byte("the quick brown fox jumps over the lazy dog. ")
	for len(input) < 2000 {
		input = append(input, pattern...)
	}
	input = input[:2000]

	e := New[byte]()
	for _, b := range input {
		e.PushBack(b)
	}

	assert.Equal(t, input, flattenForward(e))
	for digram, count := range allDigrams(t, e) {
		assert.Equalf(t, 1, count, "digram %v used %d times", digram, count)
	}
}

func TestEngine_FreshEngineStartsAtRuleZero(t *testing.T) {
	e := New[byte]()
	assert.Equal(t, 0, e.StartRuleID())
	assert.Contains(t, e.Rules(), 0)
}
