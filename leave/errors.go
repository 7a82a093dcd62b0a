/*
errors.go - Centralized error types for the leave domain

PURPOSE:
  All domain error types in one place for consistency and discoverability.
  Callers classify errors with errors.Is/errors.As; the HTTP layer maps
  them to status codes via the helpers at the bottom.

ERROR CATEGORIES:
  1. Date parsing errors - malformed or truncated date input
  2. Eligibility errors  - role or quota prevents an action
  3. Lookup errors       - referenced entity does not exist
  4. Transition errors   - request already in the target state

SEE ALSO:
  - dates.go: Raises the parsing errors
  - service.go: Raises eligibility/lookup/transition errors
  - api/handlers.go: Maps these to HTTP status codes
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingDateTokens is returned when a date string has fewer than
	// three slash-delimited tokens. This is the "bounds" failure mode.
	ErrMissingDateTokens = errors.New("date requires three slash-delimited tokens")

	// ErrInvalidDate is returned when a token is non-numeric, empty, or the
	// tokens form an impossible calendar date. This is the "value" failure mode.
	ErrInvalidDate = errors.New("invalid calendar date")

	// ErrEndBeforeStart is returned when a request's end date precedes its
	// start date.
	ErrEndBeforeStart = errors.New("end date before start date")

	// ErrNoCategory is returned when quota arithmetic is attempted for a user
	// without a leave category. There is no default category fallback.
	ErrNoCategory = errors.New("user has no leave category")

	// ErrNotEligible is returned when the submitter's role cannot file requests.
	ErrNotEligible = errors.New("role is not eligible to submit requests")

	// ErrInsufficientDays is returned when a request would overrun the quota.
	ErrInsufficientDays = errors.New("insufficient days left")

	// ErrAlreadyInState is returned when a transition targets the request's
	// current state. Re-applying accept or decline is rejected so the day
	// counter moves exactly once per effective transition.
	ErrAlreadyInState = errors.New("request already in target state")

	// ErrUnknownRole is returned when a role string is outside the closed set.
	ErrUnknownRole = errors.New("unknown role")

	// ErrDuplicateCategory is returned when a category name already exists.
	ErrDuplicateCategory = errors.New("duplicate category name")

	// ErrUserNotFound is returned when a referenced user doesn't exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRequestNotFound is returned when a referenced request doesn't exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrCategoryNotFound is returned when a referenced category doesn't exist.
	ErrCategoryNotFound = errors.New("leave category not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientDaysError reports a quota shortage at submission time.
type InsufficientDaysError struct {
	Requested int
	Left      int
}

func (e *InsufficientDaysError) Error() string {
	return fmt.Sprintf("requested %d days but only %d left", e.Requested, e.Left)
}

func (e *InsufficientDaysError) Unwrap() error {
	return ErrInsufficientDays
}

// UnknownRoleError reports a role string outside the closed set.
type UnknownRoleError struct {
	Value string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Value)
}

func (e *UnknownRoleError) Unwrap() error {
	return ErrUnknownRole
}

// DateError reports a failure to parse a slash-delimited date string.
type DateError struct {
	Input string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("parse date %q: %v", e.Input, e.Err)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// TransitionError reports a rejected state transition.
type TransitionError struct {
	RequestID int64
	From      RequestState
	To        RequestState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %d: cannot transition %s -> %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrAlreadyInState
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingDateTokens) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrEndBeforeStart) ||
		errors.Is(err, ErrNoCategory) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrInsufficientDays) ||
		errors.Is(err, ErrAlreadyInState) ||
		errors.Is(err, ErrUnknownRole) ||
		errors.Is(err, ErrDuplicateCategory)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
