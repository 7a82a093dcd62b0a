/*
service.go - Request lifecycle manager and account administration

PURPOSE:
  Implements every state-changing operation of the tracker: first-login
  registration, request submission, accept/decline transitions, account
  administration (roles, categories, notification flags) and category
  management. This is the only place the Days counter is mutated.

RESERVATION MODEL:
  Days are reserved against the quota at submission time, not acceptance:
    submit            -> Days += span   (request starts pending; accepted
                                         immediately for administrators)
    decline           -> Days -= span
    accept (declined) -> Days += span   (restores the reservation)
    accept (pending)  -> no change      (already reserved at submission)
  Re-applying a transition the request is already in is rejected with
  ErrAlreadyInState, so the counter moves exactly once per effective
  transition.

TRANSACTIONS:
  Each mutation runs inside Store.WithTx. The counter update and the
  request row commit or roll back together; a failed eligibility check
  leaves no partial state.

NOTIFICATIONS:
  Fired after the transaction commits, never inside it. Delivery is the
  dispatcher's problem; the service only names the change and the
  affected account.

SEE ALSO:
  - store.go: Persistence interfaces
  - notify/: Dispatcher implementing Notifier
*/
package leave

import (
	"context"
	"log/slog"
)

// Notifier receives change descriptions for asynchronous delivery.
// The affected email, when present, is added to the recipient set if that
// user wants notifications and is not an administrator (administrators are
// always included via the admin recipient list).
type Notifier interface {
	Notify(change string, affected ...string)
}

// NopNotifier discards all notifications. Useful in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(string, ...string) {}

// Service is the request lifecycle manager.
type Service struct {
	store  Store
	notify Notifier
	log    *slog.Logger
}

// NewService creates a lifecycle service over the given store.
func NewService(store Store, notifier Notifier, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, notify: notifier, log: log}
}

// =============================================================================
// REGISTRATION - first-login user provisioning
// =============================================================================

// RegisterLogin resolves an externally verified email to a user, creating
// the account on first sight. The very first user ever created becomes an
// administrator and triggers the default category seed; later sign-ups
// start unapproved.
func (s *Service) RegisterLogin(ctx context.Context, email string) (*User, error) {
	var (
		u       *User
		created bool
		first   bool
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			u = existing
			return nil
		}

		count, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}
		first = count == 0

		u = &User{Email: email, Role: RoleUnapproved, Notification: true}
		if first {
			u.Role = RoleAdministrator
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		created = true

		if first {
			return seedDefaultCategories(ctx, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case created && first:
		s.notify.Notify(u.Email + " logged in for the first time. You are administrator now!")
		s.log.Info("first user registered as administrator", "email", u.Email)
	case created:
		s.notify.Notify(u.Email + " logged in for the first time.")
		s.log.Info("user registered", "email", u.Email)
	default:
		s.log.Info("user logged in", "email", u.Email)
	}
	return u, nil
}

// seedDefaultCategories populates an empty category table with the two
// stock quota buckets.
func seedDefaultCategories(ctx context.Context, tx Store) error {
	existing, err := tx.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range []LeaveCategory{
		{Category: "Young", MaxDays: 20},
		{Category: "Old", MaxDays: 30},
	} {
		cat := c
		if err := tx.CreateCategory(ctx, &cat); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// Submit files a leave request for the submitter. The start and end dates
// arrive as slash-delimited strings. Days are reserved immediately; if the
// span would overrun the quota, nothing is persisted.
func (s *Service) Submit(ctx context.Context, submitter *User, startRaw, endRaw string) (*LeaveRequest, error) {
	if !CanSubmitRequests(submitter.Role) {
		return nil, ErrNotEligible
	}

	start, end, err := ParseDateRange(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	span := InclusiveDays(start, end)

	var req *LeaveRequest
	err = s.store.WithTx(ctx, func(tx Store) error {
		u, err := s.userByEmail(ctx, tx, submitter.Email)
		if err != nil {
			return err
		}

		left, err := s.daysLeft(ctx, tx, u)
		if err != nil {
			return err
		}
		if span > left {
			return &InsufficientDaysError{Requested: span, Left: left}
		}

		state := StatePending
		if u.Role == RoleAdministrator {
			state = StateAccepted
		}
		req = &LeaveRequest{StartDate: start, EndDate: end, State: state, UserID: u.ID}
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}

		u.Days += span
		return tx.UpdateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(submitter.Email + " created a leave request.")
	s.log.Info("leave request created",
		"email", submitter.Email, "request_id", req.ID, "span", span, "state", req.State)
	return req, nil
}

// Accept transitions a request to accepted. Accepting from pending adds no
// days (they were reserved at submission); accepting a declined request
// restores the reservation.
func (s *Service) Accept(ctx context.Context, requestID int64) (*LeaveRequest, error) {
	return s.transition(ctx, requestID, StateAccepted)
}

// Decline transitions a request to declined and refunds the reserved days.
func (s *Service) Decline(ctx context.Context, requestID int64) (*LeaveRequest, error) {
	return s.transition(ctx, requestID, StateDeclined)
}

func (s *Service) transition(ctx context.Context, requestID int64, target RequestState) (*LeaveRequest, error) {
	var (
		req   *LeaveRequest
		owner *User
	)
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		req, err = tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrRequestNotFound
		}
		if req.State == target {
			return &TransitionError{RequestID: requestID, From: req.State, To: target}
		}

		owner, err = tx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		switch target {
		case StateAccepted:
			// Pending requests were reserved at submission; only a
			// previously declined request needs its reservation restored.
			if req.State == StateDeclined {
				owner.Days += req.Span()
				if err := tx.UpdateUser(ctx, owner); err != nil {
					return err
				}
			}
		case StateDeclined:
			owner.Days -= req.Span()
			if err := tx.UpdateUser(ctx, owner); err != nil {
				return err
			}
		}

		req.State = target
		return tx.UpdateRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	verb := "accepted"
	if target == StateDeclined {
		verb = "declined"
	}
	s.notify.Notify(owner.Email+"'s leave request has been "+verb+".", owner.Email)
	s.log.Info("leave request "+verb, "request_id", req.ID, "email", owner.Email)
	return req, nil
}

// =============================================================================
// ACCOUNTING LOOKUPS
// =============================================================================

// DaysLeftFor loads the user's category and returns the remaining quota.
func (s *Service) DaysLeftFor(ctx context.Context, u *User) (int, error) {
	return s.daysLeft(ctx, s.store, u)
}

func (s *Service) daysLeft(ctx context.Context, st Store, u *User) (int, error) {
	if u.LeaveCategoryID == nil {
		return 0, ErrNoCategory
	}
	cat, err := st.GetCategory(ctx, *u.LeaveCategoryID)
	if err != nil {
		return 0, err
	}
	return DaysLeft(u, cat)
}

func (s *Service) userByEmail(ctx context.Context, st Store, email string) (*User, error) {
	u, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// =============================================================================
// ACCOUNT ADMINISTRATION
// =============================================================================

// ApproveRegistration promotes an unapproved user to viewer.
func (s *Service) ApproveRegistration(ctx context.Context, email string) (*User, error) {
	u, err := s.userByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	u.Role = RoleViewer
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.notify.Notify(u.Email+" has been approved.", u.Email)
	s.log.Info("registration approved", "email", u.Email)
	return u, nil
}

// DeclineRegistration deletes the user outright. This is the only hard
// delete in the normal flow.
func (s *Service) DeclineRegistration(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, s.store, email)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	s.notify.Notify("The registration of " + u.Email + " has been declined!")
	s.log.Info("registration declined", "email", u.Email)
	return nil
}

// ChangeRole assigns a new role. The raw string is validated against the
// closed role set before anything is written.
func (s *Service) ChangeRole(ctx context.Context, email, roleRaw string) (*User, error) {
	role, err := ParseRole(roleRaw)
	if err != nil {
		return nil, err
	}
	u, err := s.userByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.notify.Notify(u.Email+"'s user group has been changed.", u.Email)
	s.log.Info("role changed", "email", u.Email, "role", role)
	return u, nil
}

// ChangeCategory assigns a leave category to a user.
func (s *Service) ChangeCategory(ctx context.Context, email string, categoryID int64) (*User, error) {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}
	u, err := s.userByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	u.LeaveCategoryID = &cat.ID
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.notify.Notify(u.Email+"'s category has been changed.", u.Email)
	s.log.Info("category changed", "email", u.Email, "category", cat.Category)
	return u, nil
}

// SetNotification toggles a user's notification flag.
func (s *Service) SetNotification(ctx context.Context, email string, enabled bool) (*User, error) {
	u, err := s.userByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	u.Notification = enabled
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("notification flag changed", "email", u.Email, "enabled", enabled)
	return u, nil
}

// =============================================================================
// CATEGORY MANAGEMENT
// =============================================================================

// AddCategory creates a leave category. A nil maxDays falls back to
// DefaultMaxDays. Duplicate names are rejected.
func (s *Service) AddCategory(ctx context.Context, name string, maxDays *int) (*LeaveCategory, error) {
	max := DefaultMaxDays
	if maxDays != nil {
		max = *maxDays
	}

	var cat *LeaveCategory
	err := s.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.GetCategoryByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateCategory
		}
		cat = &LeaveCategory{Category: name, MaxDays: max}
		return tx.CreateCategory(ctx, cat)
	})
	if err != nil {
		return nil, err
	}

	s.notify.Notify(cat.Category + " leave category has been added.")
	s.log.Info("category added", "category", cat.Category, "max_days", cat.MaxDays)
	return cat, nil
}

// DeleteCategory removes a leave category. Users referencing it have their
// category cleared by the store, never left dangling.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	cat, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrCategoryNotFound
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.notify.Notify(cat.Category + " leave category has been deleted.")
	s.log.Info("category deleted", "category", cat.Category)
	return nil
}
