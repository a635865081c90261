package schedule

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a failure of a schedule operation.
//
// Every failure leaves schedule state unchanged - there is no partial
// cycle advance and no partial issuance. Callers distinguish the five
// categories by code:
//   - NOT_YET_DUE: try again later
//   - SCHEDULE_EXHAUSTED: nothing left to do, ever
//   - UNAUTHORIZED: caller is not the designated authority
//   - INVALID_CONFIGURATION / SUPPLY_CAP_EXCEEDED: the system is misconfigured
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Cycle is the schedule cycle at the time of failure.
	Cycle int

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes schedule errors.
type ErrorCode string

const (
	// ErrCodeInvalidConfiguration indicates malformed construction
	// parameters or a `now` before the deployment time.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// ErrCodeUnauthorized indicates the caller is not the designated authority.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeScheduleExhausted indicates the terminal cycle has been reached.
	ErrCodeScheduleExhausted ErrorCode = "SCHEDULE_EXHAUSTED"

	// ErrCodeNotYetDue indicates insufficient time has elapsed to advance.
	ErrCodeNotYetDue ErrorCode = "NOT_YET_DUE"

	// ErrCodeSupplyCapExceeded indicates an issuance would exceed the
	// hard supply ceiling. Unreachable while the fixed percentages sum
	// to 100%.
	ErrCodeSupplyCapExceeded ErrorCode = "SUPPLY_CAP_EXCEEDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (cycle=%d)", e.Code, e.Message, e.Cycle)
}

// CodeOf extracts the schedule error code from an error.
// Returns the empty code for nil and for foreign errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotYetDue returns true if the error means "try again later".
func IsNotYetDue(err error) bool { return CodeOf(err) == ErrCodeNotYetDue }

// IsExhausted returns true if the error means the schedule is complete.
func IsExhausted(err error) bool { return CodeOf(err) == ErrCodeScheduleExhausted }

// IsUnauthorized returns true if the caller was rejected by the access gate.
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsInvalidConfiguration returns true for construction-parameter failures.
func IsInvalidConfiguration(err error) bool { return CodeOf(err) == ErrCodeInvalidConfiguration }

// IsSupplyCapExceeded returns true if the cap check fired.
func IsSupplyCapExceeded(err error) bool { return CodeOf(err) == ErrCodeSupplyCapExceeded }

// newInvalidConfiguration creates an Error for malformed parameters.
func newInvalidConfiguration(cycle int, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfiguration,
		Message: message,
		Cycle:   cycle,
	}
}

// newUnauthorized creates an Error for a rejected caller.
func newUnauthorized(cycle int, caller string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: "caller is not the designated authority",
		Cycle:   cycle,
		Details: map[string]string{"caller": caller},
	}
}

// newScheduleExhausted creates an Error for the terminal cycle.
func newScheduleExhausted() *Error {
	return &Error{
		Code:    ErrCodeScheduleExhausted,
		Message: fmt.Sprintf("all %d cycles issued", MaxCycle),
		Cycle:   MaxCycle,
	}
}

// newNotYetDue creates an Error carrying the next due time so callers
// know how long to wait.
func newNotYetDue(cycle int, nextDue time.Time) *Error {
	return &Error{
		Code:    ErrCodeNotYetDue,
		Message: "emission interval has not elapsed",
		Cycle:   cycle,
		Details: map[string]string{"next_due": nextDue.UTC().Format(time.RFC3339)},
	}
}

// newSupplyCapExceeded creates an Error for the supply cap check.
func newSupplyCapExceeded(cycle int, totalIssued, amount, maxSupply uint64) *Error {
	return &Error{
		Code:    ErrCodeSupplyCapExceeded,
		Message: "issuance would exceed max supply",
		Cycle:   cycle,
		Details: map[string]string{
			"total_issued": fmt.Sprintf("%d", totalIssued),
			"amount":       fmt.Sprintf("%d", amount),
			"max_supply":   fmt.Sprintf("%d", maxSupply),
		},
	}
}
