package ports

import "time"

// RetryPolicy decides how long to wait before retrying a failed fetch.
// It is satisfied by github.com/cenkalti/backoff/v5 BackOff implementations.
type RetryPolicy interface {
	NextBackOff() time.Duration
	Reset()
}
