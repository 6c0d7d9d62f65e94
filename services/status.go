package services

import (
	"sync"
	"time"

	"liff-gateway/models"
)

// DefaultStatusDuration is how long a success message stays up.
const DefaultStatusDuration = 3 * time.Second

// StatusRegion holds the single message shown in one status area. Showing a
// new message replaces the old one and cancels its pending hide.
type StatusRegion struct {
	mu    sync.Mutex
	sched Scheduler
	msg   models.StatusMessage
	timer Timer
	// gen guards against a stopped timer that already fired.
	gen uint64
}

func NewStatusRegion(sched Scheduler) *StatusRegion {
	if sched == nil {
		sched = SystemScheduler
	}
	return &StatusRegion{sched: sched}
}

// Show displays text. With autoHide the message disappears after d (or
// DefaultStatusDuration when d is zero); otherwise it stays until replaced.
func (s *StatusRegion) Show(text string, kind models.StatusKind, autoHide bool, d time.Duration) models.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++

	s.msg = models.StatusMessage{Text: text, Kind: kind, Visible: true}
	if autoHide {
		if d <= 0 {
			d = DefaultStatusDuration
		}
		gen := s.gen
		s.msg.HideAt = s.sched.Now().Add(d)
		s.timer = s.sched.AfterFunc(d, func() { s.hide(gen) })
	}
	return s.msg
}

func (s *StatusRegion) hide(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.msg.Visible = false
	s.timer = nil
}

func (s *StatusRegion) Current() models.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}
