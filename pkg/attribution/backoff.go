package attribution

import "time"

// BackoffStrategy calculates the delay before a retry.
type BackoffStrategy interface {
	// NextInterval returns the delay before retry number attempt (starting at 1).
	NextInterval(attempt int) time.Duration
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}
