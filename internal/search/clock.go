package search

import "time"

// Clock schedules debounce timers. AfterFunc returns a stop function with [time.Timer.Stop] semantics.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SystemClock returns a [Clock] backed by [time.AfterFunc].
func SystemClock() Clock { return realClock{} }
