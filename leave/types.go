/*
types.go - Core domain types for leave tracking

PURPOSE:
  Defines the three persistent entities (User, LeaveCategory, LeaveRequest)
  and the closed enumerations that govern them. Everything else in this
  package operates on these types.

ROLE MODEL:
  Roles form a closed set. Raw strings coming from the outside world MUST
  pass through ParseRole before being written anywhere; there is no
  free-form role assignment.

RESERVATION MODEL:
  User.Days is the cumulative number of days reserved against the quota by
  pending and accepted requests. Days are reserved at submission time, not
  at acceptance. See service.go for the transition rules.

SEE ALSO:
  - service.go: Request lifecycle using these types
  - accounting.go: Quota arithmetic
  - store.go: Persistence interfaces
*/
package leave

import "time"

// =============================================================================
// ROLES
// =============================================================================

// Role classifies a user's access level.
type Role string

const (
	RoleUnapproved    Role = "unapproved"
	RoleViewer        Role = "viewer"
	RoleEmployee      Role = "employee"
	RoleAdministrator Role = "administrator"
)

// Roles lists every valid role, in escalation order.
var Roles = []Role{RoleUnapproved, RoleViewer, RoleEmployee, RoleAdministrator}

// ParseRole validates a raw role string at the write boundary.
// Unknown values are rejected; roles are a closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnapproved, RoleViewer, RoleEmployee, RoleAdministrator:
		return Role(s), nil
	}
	return "", &UnknownRoleError{Value: s}
}

// =============================================================================
// REQUEST STATES
// =============================================================================

// RequestState is the tri-state status of a leave request.
type RequestState string

const (
	StatePending  RequestState = "pending"
	StateAccepted RequestState = "accepted"
	StateDeclined RequestState = "declined"
)

// =============================================================================
// ENTITIES
// =============================================================================

// User is an account known to the tracker. Users are created on first
// successful external-identity login; the very first user ever created
// becomes an administrator, everyone after starts unapproved.
type User struct {
	ID              int64
	Email           string
	Role            Role
	Days            int // days reserved by pending/accepted requests
	Notification    bool
	LeaveCategoryID *int64
	CreatedAt       time.Time
}

// IsAdministrator reports whether the user holds the administrator role.
func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}

// DefaultMaxDays is applied when a category is created without a ceiling.
const DefaultMaxDays = 20

// LeaveCategory is a named quota bucket capping total days a user may consume.
type LeaveCategory struct {
	ID        int64
	Category  string
	MaxDays   int
	CreatedAt time.Time
}

// LeaveRequest is a single time-off application spanning an inclusive
// calendar date range, owned by one user.
type LeaveRequest struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
	State     RequestState
	UserID    int64
	CreatedAt time.Time
}

// Span returns the inclusive day count of the request.
// A single-day request (start == end) has a span of 1.
func (r *LeaveRequest) Span() int {
	return InclusiveDays(r.StartDate, r.EndDate)
}

// InclusiveDays counts the calendar days in [start, end], both ends included.
func InclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
