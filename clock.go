package webpush

import "time"

// Clock abstracts the current time so VAPID expiry and Retry-After
// calculations are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
