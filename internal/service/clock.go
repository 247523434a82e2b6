package service

import "time"

type Clock interface {
	Now() time.Time
}

// Timer is the handle of an armed deferred callback.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func SystemClock() Clock { return realClock{} }

func SystemScheduler() Scheduler { return realScheduler{} }
