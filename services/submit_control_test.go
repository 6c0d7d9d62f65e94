package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitControlLifecycle(t *testing.T) {
	sched := newManualScheduler()
	control := NewSubmitControl(sched, 3*time.Second)

	assert.Equal(t, ControlIdle, control.State())
	assert.Equal(t, IdleLabel, control.Label())
	assert.False(t, control.Disabled())
	assert.Zero(t, control.RetryAfter())

	require.NoError(t, control.Begin())
	assert.Equal(t, ControlSubmitting, control.State())
	assert.Equal(t, BusyLabel, control.Label())
	assert.True(t, control.Disabled())
	assert.Equal(t, 3*time.Second, control.RetryAfter())

	assert.ErrorIs(t, control.Begin(), ErrSubmitInFlight)

	control.Complete()
	sched.Advance(time.Second)
	assert.True(t, control.Disabled(), "control stays disabled during the cooldown")
	assert.Equal(t, 2*time.Second, control.RetryAfter())
	assert.ErrorIs(t, control.Begin(), ErrSubmitInFlight)

	sched.Advance(2 * time.Second)
	assert.Equal(t, ControlIdle, control.State())
	assert.Equal(t, IdleLabel, control.Label())
	assert.NoError(t, control.Begin())
}

func TestSubmitControlCompleteIsIdempotent(t *testing.T) {
	sched := newManualScheduler()
	control := NewSubmitControl(sched, time.Second)

	control.Complete()
	assert.Zero(t, sched.pending(), "completing an idle control schedules nothing")

	require.NoError(t, control.Begin())
	control.Complete()
	control.Complete()
	assert.Equal(t, 1, sched.pending())
}

func TestSubmitControlZeroCooldown(t *testing.T) {
	sched := newManualScheduler()
	control := NewSubmitControl(sched, 0)

	require.NoError(t, control.Begin())
	control.Complete()
	sched.Advance(0)

	assert.Equal(t, ControlIdle, control.State())
}

func TestControlStateString(t *testing.T) {
	assert.Equal(t, "idle", ControlIdle.String())
	assert.Equal(t, "submitting", ControlSubmitting.String())
	assert.Equal(t, "unknown", ControlState(7).String())
}
