package domain

import "time"

// ForwardResult describes one forwarded exchange.
// StatusCode is the status written to the client (0 when nothing was written); Recorded is false when no
// outcome was reported to the health tracker (client cancellation).
type ForwardResult struct {
	StatusCode   int
	Outcome      Outcome
	Recorded     bool
	BytesWritten int64
	Duration     time.Duration
}
