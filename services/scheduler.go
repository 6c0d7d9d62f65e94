package services

import "time"

// Timer is the handle returned by Scheduler.AfterFunc.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts the wall clock so the submit cooldown and status
// auto-hide can be driven manually in tests.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) Now() time.Time { return time.Now() }

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler runs callbacks on real timers.
var SystemScheduler Scheduler = systemScheduler{}
