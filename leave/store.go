/*
store.go - Persistence interfaces for the leave domain

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  UserStore:     User records keyed by id and email
  CategoryStore: Leave category records
  RequestStore:  Leave request records with paginated listings
  Store:         All of the above plus transactional execution

TRANSACTIONS:
  Every lifecycle mutation (submit, accept, decline, first-login
  registration) runs inside WithTx so counter updates and state changes
  commit or roll back together. Two concurrent transitions on the same
  request cannot interleave their read-modify-write cycles.

NOT-FOUND CONVENTION:
  Get* methods return (nil, nil) when the record does not exist. The
  service layer converts that into the domain's *NotFound errors.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - store/memory: In-memory store for tests and dev
*/
package leave

import "context"

// Page selects one page of a listing. A non-positive Size disables paging.
// Lookahead extends the fetch window past the page so callers can detect a
// following page without a second query.
type Page struct {
	Number    int
	Size      int
	Lookahead int
}

// Offset returns the row offset of the page's first item.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Limit returns the fetch window size, or -1 when paging is disabled.
func (p Page) Limit() int {
	if p.Size <= 0 {
		return -1
	}
	return p.Size + p.Lookahead
}

// UserStore persists User records.
type UserStore interface {
	// CreateUser inserts a user and assigns its ID.
	CreateUser(ctx context.Context, u *User) error

	// GetUser returns the user with the given id, or nil when absent.
	GetUser(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail returns the user with the given email, or nil when absent.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers returns all users ordered by id.
	ListUsers(ctx context.Context) ([]*User, error)

	// ListNotifiedAdmins returns administrators with notifications enabled.
	ListNotifiedAdmins(ctx context.Context) ([]*User, error)

	// UpdateUser persists all mutable fields of the user.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes the user and cascades to their requests.
	DeleteUser(ctx context.Context, id int64) error

	// CountUsers returns the total number of users.
	CountUsers(ctx context.Context) (int, error)
}

// CategoryStore persists LeaveCategory records.
type CategoryStore interface {
	// CreateCategory inserts a category and assigns its ID.
	CreateCategory(ctx context.Context, c *LeaveCategory) error

	// GetCategory returns the category with the given id, or nil when absent.
	GetCategory(ctx context.Context, id int64) (*LeaveCategory, error)

	// GetCategoryByName returns the category with the given name, or nil when absent.
	GetCategoryByName(ctx context.Context, name string) (*LeaveCategory, error)

	// ListCategories returns all categories ordered by id.
	ListCategories(ctx context.Context) ([]*LeaveCategory, error)

	// DeleteCategory removes the category. Referencing users' category ids
	// are nulled, never dangled.
	DeleteCategory(ctx context.Context, id int64) error
}

// RequestStore persists LeaveRequest records.
type RequestStore interface {
	// CreateRequest inserts a request and assigns its ID.
	CreateRequest(ctx context.Context, r *LeaveRequest) error

	// GetRequest returns the request with the given id, or nil when absent.
	GetRequest(ctx context.Context, id int64) (*LeaveRequest, error)

	// ListRequests returns one page of requests ordered by start date.
	ListRequests(ctx context.Context, p Page) ([]*LeaveRequest, error)

	// ListRequestsByState returns one page of requests in the given state,
	// ordered by start date.
	ListRequestsByState(ctx context.Context, state RequestState, p Page) ([]*LeaveRequest, error)

	// ListRequestsByUser returns all requests owned by the user,
	// ordered by start date.
	ListRequestsByUser(ctx context.Context, userID int64) ([]*LeaveRequest, error)

	// UpdateRequest persists the request's mutable fields.
	UpdateRequest(ctx context.Context, r *LeaveRequest) error
}

// Store aggregates all persistence interfaces with transactional execution.
type Store interface {
	UserStore
	CategoryStore
	RequestStore

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
