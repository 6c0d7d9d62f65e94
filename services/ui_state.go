package services

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// UIState is the page state that has to outlive a single request: the status
// region and one submit control per form action.
type UIState struct {
	Status *StatusRegion

	mu       sync.Mutex
	sched    Scheduler
	cooldown time.Duration
	controls map[string]*SubmitControl
}

func (u *UIState) Control(action string) *SubmitControl {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.controls[action]
	if !ok {
		c = NewSubmitControl(u.sched, u.cooldown)
		u.controls[action] = c
	}
	return c
}

// UIStates keeps UIState per user in a bounded LRU.
type UIStates struct {
	mu       sync.Mutex
	cache    *lru.Cache[string, *UIState]
	sched    Scheduler
	cooldown time.Duration
}

func NewUIStates(size int, sched Scheduler, cooldown time.Duration) (*UIStates, error) {
	if size <= 0 {
		size = 1000
	}
	if sched == nil {
		sched = SystemScheduler
	}
	cache, err := lru.New[string, *UIState](size)
	if err != nil {
		return nil, err
	}
	return &UIStates{cache: cache, sched: sched, cooldown: cooldown}, nil
}

func (s *UIStates) Get(key string) *UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.cache.Get(key); ok {
		return st
	}
	st := &UIState{
		Status:   NewStatusRegion(s.sched),
		sched:    s.sched,
		cooldown: s.cooldown,
		controls: make(map[string]*SubmitControl),
	}
	s.cache.Add(key, st)
	return st
}

// Peek returns the state without creating or promoting it.
func (s *UIStates) Peek(key string) (*UIState, bool) {
	return s.cache.Peek(key)
}
