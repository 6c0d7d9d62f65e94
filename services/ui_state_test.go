package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIStatesPerKey(t *testing.T) {
	states, err := NewUIStates(2, newManualScheduler(), time.Second)
	require.NoError(t, err)

	a := states.Get("user:U1")
	assert.Same(t, a, states.Get("user:U1"))
	assert.NotSame(t, a, states.Get("user:U2"))

	assert.Same(t, a.Control("vocation"), a.Control("vocation"))
	assert.NotSame(t, a.Control("vocation"), a.Control("report"))
}

func TestUIStatesPeekDoesNotCreate(t *testing.T) {
	states, err := NewUIStates(4, newManualScheduler(), time.Second)
	require.NoError(t, err)

	_, ok := states.Peek("ip:10.0.0.1")
	assert.False(t, ok)

	states.Get("ip:10.0.0.1")
	_, ok = states.Peek("ip:10.0.0.1")
	assert.True(t, ok)
}

func TestUIStatesEvictsLeastRecent(t *testing.T) {
	states, err := NewUIStates(2, newManualScheduler(), time.Second)
	require.NoError(t, err)

	states.Get("a")
	states.Get("b")
	states.Get("a")
	states.Get("c")

	_, ok := states.Peek("b")
	assert.False(t, ok)
	_, ok = states.Peek("a")
	assert.True(t, ok)
}
