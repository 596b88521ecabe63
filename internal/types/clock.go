package types

import "time"

// Clock abstracts wall-clock access so retention boundaries and shard routing
// can be pinned in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports T.
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time { return f.T }
