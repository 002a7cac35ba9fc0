// Package clock abstracts timer scheduling so reconnect and cache logic can
// be tested with a deterministic fake instead of real time.
package clock

import "time"

// Clock provides the time operations the bridge needs. Production code uses
// Real(); tests use Fake() and advance it explicitly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run after d. The returned Timer's Stop
	// cancels the pending call; it reports whether the call was still
	// pending.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
