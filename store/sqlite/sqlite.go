/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

PURPOSE:
  Implements all persistence interfaces (UserStore, CategoryStore,
  RequestStore) over database/sql with the mattn/go-sqlite3 driver.
  The same patterns apply to PostgreSQL - only minor dialect differences.

SCHEMA:
  users:            accounts with role, reserved-day counter, category ref
  leave_categories: named quota buckets
  leave_requests:   date-ranged requests with tri-state status

  leave_category_id carries ON DELETE SET NULL: deleting a category never
  leaves a dangling reference, the user simply loses their bucket.

MIGRATIONS:
  Versioned SQL migrations embedded in the binary and applied with goose
  on New(). No inline schema strings.

TRANSACTIONS:
  WithTx wraps fn in a database transaction. The Store type doubles as the
  transactional view: both *sql.DB and *sql.Tx satisfy the internal querier
  interface, so the same query methods serve both paths.

WAL MODE:
  Opened with WAL and foreign keys on. Multiple readers don't block, a
  single writer at a time, better crash recovery.

DATES:
  Stored as ISO "2006-01-02" strings; the domain has no timezone concept,
  dates load pinned to UTC midnight.

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/leavedesk/leavedesk/leave"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

var _ leave.Store = (*Store)(nil)

// New creates a SQLite store at the given path and applies pending
// migrations. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids lock
	// contention and keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	if _, isTx := s.q.(*sql.Tx); isTx {
		// Already inside a transaction; SQLite has no nesting.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u *leave.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO users (email, user_group, days, notification, leave_category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, string(u.Role), u.Days, boolToInt(u.Notification), u.LeaveCategoryID,
		u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*leave.User, error) {
	return s.scanUser(s.q.QueryRowContext(ctx, userColumns+` WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*leave.User, error) {
	return s.scanUser(s.q.QueryRowContext(ctx, userColumns+` WHERE email = ?`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]*leave.User, error) {
	return s.queryUsers(ctx, userColumns+` ORDER BY id`)
}

func (s *Store) ListNotifiedAdmins(ctx context.Context) ([]*leave.User, error) {
	return s.queryUsers(ctx,
		userColumns+` WHERE user_group = ? AND notification = 1 ORDER BY id`,
		string(leave.RoleAdministrator))
}

func (s *Store) UpdateUser(ctx context.Context, u *leave.User) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE users SET email = ?, user_group = ?, days = ?, notification = ?, leave_category_id = ?
		WHERE id = ?`,
		u.Email, string(u.Role), u.Days, boolToInt(u.Notification), u.LeaveCategoryID, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res, leave.ErrUserNotFound)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res, leave.ErrUserNotFound)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

const userColumns = `SELECT id, email, user_group, days, notification, leave_category_id, created_at FROM users`

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]*leave.User, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*leave.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(row *sql.Row) (*leave.User, error) {
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func scanUserRow(row rowScanner) (*leave.User, error) {
	var (
		u         leave.User
		role      string
		notify    int
		catID     sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &role, &u.Days, &notify, &catID, &createdAt); err != nil {
		return nil, err
	}
	u.Role = leave.Role(role)
	u.Notification = notify != 0
	if catID.Valid {
		u.LeaveCategoryID = &catID.Int64
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(ctx context.Context, c *leave.LeaveCategory) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO leave_categories (category, max_days, created_at) VALUES (?, ?, ?)`,
		c.Category, c.MaxDays, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*leave.LeaveCategory, error) {
	return s.scanCategory(s.q.QueryRowContext(ctx, categoryColumns+` WHERE id = ?`, id))
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*leave.LeaveCategory, error) {
	return s.scanCategory(s.q.QueryRowContext(ctx, categoryColumns+` WHERE category = ?`, name))
}

func (s *Store) ListCategories(ctx context.Context) ([]*leave.LeaveCategory, error) {
	rows, err := s.q.QueryContext(ctx, categoryColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []*leave.LeaveCategory
	for rows.Next() {
		c, err := scanCategoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM leave_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, leave.ErrCategoryNotFound)
}

const categoryColumns = `SELECT id, category, max_days, created_at FROM leave_categories`

func (s *Store) scanCategory(row *sql.Row) (*leave.LeaveCategory, error) {
	c, err := scanCategoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanCategoryRow(row rowScanner) (*leave.LeaveCategory, error) {
	var (
		c         leave.LeaveCategory
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Category, &c.MaxDays, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, r *leave.LeaveRequest) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO leave_requests (start_date, end_date, state, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout),
		string(r.State), r.UserID, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*leave.LeaveRequest, error) {
	r, err := scanRequestRow(s.q.QueryRowContext(ctx, requestColumns+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, p leave.Page) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		requestColumns+` ORDER BY start_date, id LIMIT ? OFFSET ?`,
		limitOf(p), p.Offset())
}

func (s *Store) ListRequestsByState(ctx context.Context, state leave.RequestState, p leave.Page) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		requestColumns+` WHERE state = ? ORDER BY start_date, id LIMIT ? OFFSET ?`,
		string(state), limitOf(p), p.Offset())
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID int64) ([]*leave.LeaveRequest, error) {
	return s.queryRequests(ctx,
		requestColumns+` WHERE user_id = ? ORDER BY start_date, id`, userID)
}

func (s *Store) UpdateRequest(ctx context.Context, r *leave.LeaveRequest) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE leave_requests SET start_date = ?, end_date = ?, state = ? WHERE id = ?`,
		r.StartDate.Format(dateLayout), r.EndDate.Format(dateLayout), string(r.State), r.ID)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return requireRow(res, leave.ErrRequestNotFound)
}

const requestColumns = `SELECT id, start_date, end_date, state, user_id, created_at FROM leave_requests`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]*leave.LeaveRequest, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequestRow(row rowScanner) (*leave.LeaveRequest, error) {
	var (
		r          leave.LeaveRequest
		start, end string
		state      string
		createdAt  string
	)
	if err := row.Scan(&r.ID, &start, &end, &state, &r.UserID, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if r.StartDate, err = time.Parse(dateLayout, start); err != nil {
		return nil, fmt.Errorf("parse start_date: %w", err)
	}
	if r.EndDate, err = time.Parse(dateLayout, end); err != nil {
		return nil, fmt.Errorf("parse end_date: %w", err)
	}
	r.State = leave.RequestState(state)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// limitOf maps a Page to a SQLite LIMIT value; -1 means no limit.
func limitOf(p leave.Page) int {
	return p.Limit()
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
