package domain

import "time"

// Metrics receives router observations. A nil Metrics disables observation.
type Metrics interface {
	ObserveCommand(namespace string, duration time.Duration, err error)
	ObserveToolCall(server, tool string, duration time.Duration, err error)
}
