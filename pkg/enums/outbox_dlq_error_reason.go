package enums

// OutboxDLQErrorReason explains why the publisher parked an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts marks events that exhausted their retry budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable marks events rejected before any retry, such
	// as an event type missing from the publisher registry.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable:
		return true
	}
	return false
}
