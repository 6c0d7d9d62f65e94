package services

import (
	"sync"
	"time"
)

type ControlState int

const (
	ControlIdle ControlState = iota
	ControlSubmitting
)

func (s ControlState) String() string {
	switch s {
	case ControlIdle:
		return "idle"
	case ControlSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

const (
	IdleLabel = "送出資料"
	BusyLabel = "資料送出中..."

	DefaultSubmitCooldown = 3 * time.Second
)

// SubmitControl is the submit button: Idle -> Submitting -> (cooldown) -> Idle.
// While Submitting, Begin refuses further submissions.
type SubmitControl struct {
	mu       sync.Mutex
	sched    Scheduler
	cooldown time.Duration
	state    ControlState
	// releaseAt is zero while the request is still in flight.
	releaseAt time.Time
}

func NewSubmitControl(sched Scheduler, cooldown time.Duration) *SubmitControl {
	if sched == nil {
		sched = SystemScheduler
	}
	if cooldown < 0 {
		cooldown = 0
	}
	return &SubmitControl{sched: sched, cooldown: cooldown}
}

func (c *SubmitControl) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ControlSubmitting {
		return ErrSubmitInFlight
	}
	c.state = ControlSubmitting
	c.releaseAt = time.Time{}
	return nil
}

// Complete is called once the outcome is known, success or not. The control
// returns to Idle only after the cooldown.
func (c *SubmitControl) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ControlSubmitting || !c.releaseAt.IsZero() {
		return
	}
	c.releaseAt = c.sched.Now().Add(c.cooldown)
	c.sched.AfterFunc(c.cooldown, c.release)
}

func (c *SubmitControl) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ControlIdle
	c.releaseAt = time.Time{}
}

func (c *SubmitControl) State() ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SubmitControl) Disabled() bool {
	return c.State() == ControlSubmitting
}

func (c *SubmitControl) Label() string {
	if c.Disabled() {
		return BusyLabel
	}
	return IdleLabel
}

// RetryAfter is the time left until the control is enabled again, or the full
// cooldown while the request is still in flight.
func (c *SubmitControl) RetryAfter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ControlIdle {
		return 0
	}
	if c.releaseAt.IsZero() {
		return c.cooldown
	}
	if left := c.releaseAt.Sub(c.sched.Now()); left > 0 {
		return left
	}
	return 0
}
