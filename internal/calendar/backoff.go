package calendar

import "time"

// BackoffPolicy computes the delay before each retry attempt. Delays grow
// exponentially from Base and are clamped to Cap. The policy is pure, so
// retry schedules are reproducible in tests.
type BackoffPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// Delay returns the wait before the given attempt (1-based; attempt 1 is
// the first retry). The second return value is false once the attempt
// budget is exhausted.
func (p BackoffPolicy) Delay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt >= p.MaxAttempts {
		return 0, false
	}

	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Cap {
			return p.Cap, true
		}
	}

	if delay > p.Cap {
		delay = p.Cap
	}
	return delay, true
}
