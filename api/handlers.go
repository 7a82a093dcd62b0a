/*
handlers.go - HTTP handlers for the leave tracker

PURPOSE:
  Exposes the leave domain via a JSON API. Handles HTTP request/response
  and delegates every mutation to the lifecycle service.

ENDPOINTS:
  GET  /                  Landing: identity and service info
  POST /login/authorized  OAuth-callback ingress, returns a session token
  POST /logout            Acknowledgement (tokens are stateless)
  GET  /account           Own account, days left, own requests
  GET  /admin             Admin console: users, categories, pending queue
  GET  /requests          All requests, paginated, ordered by start date
  POST /save_request      Submit a leave request
  POST /handle_request    Accept/decline a request by id
  POST /handle_acc        Account administration
  POST /handle_cat        Add/delete a leave category
  POST /report            Free-text incident report (file + email)

ERROR HANDLING:
  Domain errors map to JSON error bodies with appropriate status:
  - 400: malformed input, date parse failures, unknown roles
  - 401: missing/invalid session
  - 403: role not permitted
  - 404: entity not found
  - 409: quota overrun, duplicate category, repeated transition
  - 500: persistence failures

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Identity middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leavedesk/leavedesk/leave"
	"github.com/leavedesk/leavedesk/metrics"
)

// serviceName identifies the API on the landing response.
const serviceName = "leavedesk"

// DirectMailer delivers mail to an explicit recipient list. Satisfied by
// notify.Dispatcher.
type DirectMailer interface {
	Direct(to []string, subject, body string)
}

// PageSizes configures listing page sizes per view.
type PageSizes struct {
	Requests int
	Admin    int
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    leave.Store
	Service  *leave.Service
	Auth     *Auth
	Mail     DirectMailer
	Log      *slog.Logger
	Pages    PageSizes
	Reports  string // directory for incident report files
	Operator string // incident reports are mailed here
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(store leave.Store, svc *leave.Service, auth *Auth, mail DirectMailer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Store:   store,
		Service: svc,
		Auth:    auth,
		Mail:    mail,
		Log:     log,
		Pages:   PageSizes{Requests: 10, Admin: 5},
	}
}

// =============================================================================
// LANDING AND SESSION
// =============================================================================

// Landing returns the current identity, if any.
// GET /
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	resp := LandingDTO{Service: serviceName}
	if u := CurrentUser(r.Context()); u != nil {
		dto := toUserDTO(u)
		resp.User = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// Authorized receives the email verified by the external OAuth exchange,
// provisions the account on first sight and returns a session token.
// POST /login/authorized
func (h *Handler) Authorized(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "A verified email is required", nil)
		return
	}

	u, err := h.Service.RegisterLogin(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, "Login failed", err)
		return
	}

	token, err := h.Auth.IssueToken(u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue session token", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenDTO{Token: token, User: toUserDTO(u)})
}

// Logout acknowledges the logout; tokens are stateless and discarded
// client-side.
// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusDTO{Status: "logged out"})
}

// =============================================================================
// ACCOUNT VIEWS
// =============================================================================

// Account returns the caller's account, quota standing and requests.
// GET /account
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	u := CurrentUser(r.Context())

	resp := AccountDTO{User: toUserDTO(u)}

	left, err := h.Service.DaysLeftFor(r.Context(), u)
	switch {
	case errors.Is(err, leave.ErrNoCategory):
		resp.NoCategory = true
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to compute days left", err)
		return
	default:
		resp.DaysLeft = &left
		if u.LeaveCategoryID != nil {
			if cat, err := h.Store.GetCategory(r.Context(), *u.LeaveCategoryID); err == nil && cat != nil {
				if pct, err := leave.Utilization(u, cat); err == nil {
					resp.Utilization = pct.StringFixed(2)
				}
			}
		}
	}

	reqs, err := h.Store.ListRequestsByUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	resp.Requests = toRequestDTOs(reqs)

	writeJSON(w, http.StatusOK, resp)
}

// AdminConsole returns users, categories and the pending request queue.
// GET /admin
func (h *Handler) AdminConsole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	categories, err := h.Store.ListCategories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	page := pageParam(r)
	pending, hasNext, err := h.requestPage(r, func(p leave.Page) ([]*leave.LeaveRequest, error) {
		return h.Store.ListRequestsByState(ctx, leave.StatePending, p)
	}, h.Pages.Admin)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}

	resp := AdminConsoleDTO{
		Users:      make([]UserDTO, len(users)),
		Categories: make([]CategoryDTO, len(categories)),
		PendingRequests: RequestPageDTO{
			Requests: toRequestDTOs(pending),
			Page:     page,
			HasNext:  hasNext,
			HasPrev:  page > 1,
		},
		Roles: roleNames(),
	}
	for i, u := range users {
		resp.Users[i] = toUserDTO(u)
	}
	for i, c := range categories {
		resp.Categories[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRequests returns one page of all requests ordered by start date.
// GET /requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	reqs, hasNext, err := h.requestPage(r, func(p leave.Page) ([]*leave.LeaveRequest, error) {
		return h.Store.ListRequests(r.Context(), p)
	}, h.Pages.Requests)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, RequestPageDTO{
		Requests: toRequestDTOs(reqs),
		Page:     page,
		HasNext:  hasNext,
		HasPrev:  page > 1,
	})
}

// requestPage fetches one page plus a lookahead row to detect a next page.
func (h *Handler) requestPage(r *http.Request, list func(leave.Page) ([]*leave.LeaveRequest, error), size int) ([]*leave.LeaveRequest, bool, error) {
	if size <= 0 {
		out, err := list(leave.Page{})
		return out, false, err
	}
	out, err := list(leave.Page{Number: pageParam(r), Size: size, Lookahead: 1})
	if err != nil {
		return nil, false, err
	}
	hasNext := len(out) > size
	if hasNext {
		out = out[:size]
	}
	return out, hasNext, nil
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// SubmitRequest files a leave request for the caller.
// POST /save_request
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var payload SubmitRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	u := CurrentUser(r.Context())
	req, err := h.Service.Submit(r.Context(), u, payload.StartDate, payload.EndDate)
	if err != nil {
		h.writeDomainError(w, "Failed to submit request", err)
		return
	}

	metrics.RequestsSubmitted.Inc()
	writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

// HandleRequest accepts or declines a request by id.
// POST /handle_request
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var payload HandleRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		req *leave.LeaveRequest
		err error
	)
	switch payload.Action {
	case "accept":
		req, err = h.Service.Accept(r.Context(), payload.ID)
	case "decline":
		req, err = h.Service.Decline(r.Context(), payload.ID)
	default:
		writeError(w, http.StatusBadRequest, "Action must be accept or decline", nil)
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to handle request", err)
		return
	}

	metrics.RequestTransitions.WithLabelValues(string(req.State)).Inc()
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// ACCOUNT ADMINISTRATION
// =============================================================================

// HandleAccount drives account administration. Notification toggles are
// self-service; every other action requires the administrator role.
// POST /handle_acc
func (h *Handler) HandleAccount(w http.ResponseWriter, r *http.Request) {
	var payload HandleAccountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	caller := CurrentUser(r.Context())
	target := payload.Email
	if target == "" {
		target = caller.Email
	}

	// Only the notification toggle is self-service, and only on one's own
	// account.
	selfToggle := payload.Action == "notification" && target == caller.Email
	if !selfToggle && !leave.CanAdministrate(caller.Role) {
		writeError(w, http.StatusForbidden, "Administrator role required", nil)
		return
	}

	var (
		u   *leave.User
		err error
	)
	switch payload.Action {
	case "approve":
		u, err = h.Service.ApproveRegistration(r.Context(), target)
	case "decline":
		if err = h.Service.DeclineRegistration(r.Context(), target); err == nil {
			writeJSON(w, http.StatusOK, StatusDTO{Status: "registration declined"})
			return
		}
	case "role":
		u, err = h.Service.ChangeRole(r.Context(), target, payload.Role)
	case "category":
		u, err = h.Service.ChangeCategory(r.Context(), target, payload.CategoryID)
	case "notification":
		if payload.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled flag is required", nil)
			return
		}
		u, err = h.Service.SetNotification(r.Context(), target, *payload.Enabled)
	default:
		writeError(w, http.StatusBadRequest, "Unknown account action", nil)
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to update account", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// HandleCategory adds or deletes a leave category.
// POST /handle_cat
func (h *Handler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	var payload HandleCategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	switch payload.Action {
	case "add":
		if strings.TrimSpace(payload.Category) == "" {
			writeError(w, http.StatusBadRequest, "Category name is required", nil)
			return
		}
		cat, err := h.Service.AddCategory(r.Context(), payload.Category, payload.MaxDays)
		if err != nil {
			h.writeDomainError(w, "Failed to add category", err)
			return
		}
		writeJSON(w, http.StatusCreated, toCategoryDTO(cat))
	case "delete":
		if err := h.Service.DeleteCategory(r.Context(), payload.ID); err != nil {
			h.writeDomainError(w, "Failed to delete category", err)
			return
		}
		writeJSON(w, http.StatusOK, StatusDTO{Status: "category deleted"})
	default:
		writeError(w, http.StatusBadRequest, "Action must be add or delete", nil)
	}
}

// =============================================================================
// INCIDENT REPORTS
// =============================================================================

// Report appends a free-text incident report to a dated file and mails it
// to the operator address. File or mail trouble never fails the response
// beyond the file write itself.
// POST /report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var payload ReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(payload.Report) == "" {
		writeError(w, http.StatusBadRequest, "Report text is required", nil)
		return
	}

	u := CurrentUser(r.Context())
	now := time.Now()
	line := fmt.Sprintf("%s %s %s\n", u.Email, now.Format("2006-01-02 15:04:05"), payload.Report)

	if err := h.appendReport(now, line); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record report", err)
		return
	}

	if h.Mail != nil && h.Operator != "" {
		h.Mail.Direct([]string{h.Operator}, "Vacation Management Error Report", "New report: "+strings.TrimSpace(line))
	}

	writeJSON(w, http.StatusOK, StatusDTO{Status: "report recorded"})
}

func (h *Handler) appendReport(now time.Time, line string) error {
	dir := h.Reports
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, now.Format(dateLayout))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, leave.ErrNotEligible):
		writeError(w, http.StatusForbidden, message, err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrInsufficientDays),
		errors.Is(err, leave.ErrAlreadyInState),
		errors.Is(err, leave.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, message, err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error(message, "err", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func roleNames() []string {
	names := make([]string, len(leave.Roles))
	for i, r := range leave.Roles {
		names[i] = string(r)
	}
	return names
}
