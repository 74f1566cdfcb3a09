package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_AcquireDense(t *testing.T) {
	p := New()

	assert.Equal(t, 0, p.Acquire())
	assert.Equal(t, 1, p.Acquire())
	assert.Equal(t, 2, p.Acquire())
}

func TestPool_ReleaseReusedBeforeNew(t *testing.T) {
	p := New()
	a := p.Acquire()
	b := p.Acquire()
	_ = p.Acquire()

	p.Release(b)

	assert.Equal(t, b, p.Acquire())
	assert.Equal(t, 3, p.Acquire())
	_ = a
}

func TestPool_ReleaseLIFOOrder(t *testing.T) {
	p := New()
	p.Acquire()
	p.Acquire()
	p.Acquire()

	p.Release(0)
	p.Release(1)

	assert.Equal(t, 1, p.Acquire())
	assert.Equal(t, 0, p.Acquire())
	assert.Equal(t, 3, p.Acquire())
}
