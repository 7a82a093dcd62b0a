/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Payload: Request body types from clients

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/leavedesk/leavedesk/leave"
)

const dateLayout = "2006-01-02"

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID              int64  `json:"id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	Days            int    `json:"days"`
	Notification    bool   `json:"notification"`
	LeaveCategoryID *int64 `json:"leave_category_id,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

func toUserDTO(u *leave.User) UserDTO {
	dto := UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		Role:            string(u.Role),
		Days:            u.Days,
		Notification:    u.Notification,
		LeaveCategoryID: u.LeaveCategoryID,
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// CategoryDTO represents a leave category in API responses.
type CategoryDTO struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	MaxDays  int    `json:"max_days"`
}

func toCategoryDTO(c *leave.LeaveCategory) CategoryDTO {
	return CategoryDTO{ID: c.ID, Category: c.Category, MaxDays: c.MaxDays}
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID        int64  `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Span      int    `json:"span"`
	State     string `json:"state"`
	UserID    int64  `json:"user_id"`
}

func toRequestDTO(r *leave.LeaveRequest) RequestDTO {
	return RequestDTO{
		ID:        r.ID,
		StartDate: r.StartDate.Format(dateLayout),
		EndDate:   r.EndDate.Format(dateLayout),
		Span:      r.Span(),
		State:     string(r.State),
		UserID:    r.UserID,
	}
}

func toRequestDTOs(rs []*leave.LeaveRequest) []RequestDTO {
	dtos := make([]RequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

// LandingDTO is the response of the landing page.
type LandingDTO struct {
	Service string   `json:"service"`
	User    *UserDTO `json:"user"`
}

// TokenDTO is returned after a successful login exchange.
type TokenDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// AccountDTO is the self-service account view.
type AccountDTO struct {
	User        UserDTO      `json:"user"`
	DaysLeft    *int         `json:"days_left,omitempty"`
	Utilization string       `json:"utilization,omitempty"` // percent, two decimals
	NoCategory  bool         `json:"no_category,omitempty"`
	Requests    []RequestDTO `json:"requests"`
}

// RequestPageDTO is one page of a request listing.
type RequestPageDTO struct {
	Requests []RequestDTO `json:"requests"`
	Page     int          `json:"page"`
	HasNext  bool         `json:"has_next"`
	HasPrev  bool         `json:"has_prev"`
}

// AdminConsoleDTO is the admin console view.
type AdminConsoleDTO struct {
	Users           []UserDTO      `json:"users"`
	Categories      []CategoryDTO  `json:"categories"`
	PendingRequests RequestPageDTO `json:"pending_requests"`
	Roles           []string       `json:"roles"`
}

// StatusDTO acknowledges a mutation with no richer payload.
type StatusDTO struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// LoginPayload carries the email verified by the external OAuth exchange.
type LoginPayload struct {
	Email string `json:"email"`
}

// SubmitRequestPayload files a leave request. Dates are MM/DD/YYYY.
type SubmitRequestPayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// HandleRequestPayload accepts or declines a request by id.
type HandleRequestPayload struct {
	ID     int64  `json:"id"`
	Action string `json:"action"` // "accept" or "decline"
}

// HandleAccountPayload drives account administration. Exactly one action:
//   approve      - promote an unapproved registration to viewer
//   decline      - delete the registration
//   role         - assign Role (validated against the closed set)
//   category     - assign CategoryID
//   notification - toggle the Enabled flag (self-service or admin)
type HandleAccountPayload struct {
	Action     string `json:"action"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// HandleCategoryPayload adds or deletes a leave category.
type HandleCategoryPayload struct {
	Action   string `json:"action"` // "add" or "delete"
	Category string `json:"category,omitempty"`
	MaxDays  *int   `json:"max_days,omitempty"`
	ID       int64  `json:"id,omitempty"`
}

// ReportPayload is a free-text incident report.
type ReportPayload struct {
	Report string `json:"report"`
}
