// Package clock abstracts the current time so date guards and slot scoring
// are deterministic under test.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Real ticks with the wall clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
