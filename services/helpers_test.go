package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"liff-gateway/internal/line"
	"liff-gateway/models"
)

// manualScheduler fires callbacks only when Advance moves the clock past them.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(s.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// pending counts timers that are neither stopped nor fired.
func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeSDK struct {
	initErr    error
	loggedIn   bool
	loginErr   error
	profile    models.Profile
	profileErr error
	inClient   bool

	initCfg    line.InitConfig
	loginCalls []line.LoginOptions
	opened     []line.OpenWindowOptions
	profileHit int
}

func (f *fakeSDK) Init(ctx context.Context, cfg line.InitConfig) error {
	f.initCfg = cfg
	return f.initErr
}

func (f *fakeSDK) IsLoggedIn() bool { return f.loggedIn }

func (f *fakeSDK) Login(opts line.LoginOptions) error {
	f.loginCalls = append(f.loginCalls, opts)
	return f.loginErr
}

func (f *fakeSDK) GetProfile(ctx context.Context) (models.Profile, error) {
	f.profileHit++
	return f.profile, f.profileErr
}

func (f *fakeSDK) IsInClient() bool { return f.inClient }

func (f *fakeSDK) OpenWindow(opts line.OpenWindowOptions) error {
	f.opened = append(f.opened, opts)
	return nil
}

func (f *fakeSDK) Logout() error { return nil }

type recordingRenderer struct {
	failures  []string
	notFound  []string
	waits     int
	debugID   *models.Identity
	debugURL  string
	navigated []string
}

func (r *recordingRenderer) ShowFailure(kind FailureKind, detail string) {
	r.failures = append(r.failures, string(kind)+": "+detail)
}

func (r *recordingRenderer) ShowNotFound(pageKey string) { r.notFound = append(r.notFound, pageKey) }

func (r *recordingRenderer) ShowWaitNotice() { r.waits++ }

func (r *recordingRenderer) ShowDebug(identity models.Identity, target string) {
	r.debugID = &identity
	r.debugURL = target
}

func (r *recordingRenderer) Navigate(target string) { r.navigated = append(r.navigated, target) }
