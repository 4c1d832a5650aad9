package aiflow

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for generative model calls.
type Category string

const (
	CategoryTimeout          Category = "timeout"
	CategoryBadData          Category = "bad_data"
	CategoryAuthentication   Category = "authentication"
	CategoryProviderOutage   Category = "provider_outage"
	CategoryContractMismatch Category = "contract_mismatch"
	CategoryRateLimited      Category = "rate_limited"
	CategoryInternal         Category = "internal"
)

// Error wraps a failed model call with its category. Retryable is derived
// from the category: timeouts, outages and rate limits are transient.
type Error struct {
	Category   Category
	Flow       string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ai flow %s [%s]: %s: %v", e.Flow, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ai flow %s [%s]: %s", e.Flow, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func NewError(category Category, flow, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Flow:       flow,
		Message:    message,
		Underlying: underlying,
		Retryable: category == CategoryTimeout ||
			category == CategoryProviderOutage ||
			category == CategoryRateLimited,
	}
}

func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// CategoryOf extracts the category, defaulting to internal for foreign errors.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// ErrCircuitOpen is returned while the generator breaker rejects calls.
var ErrCircuitOpen = errors.New("generator circuit open")
