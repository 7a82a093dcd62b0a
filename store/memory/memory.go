// Package memory provides an in-memory leave.Store implementation
// (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/leavedesk/leavedesk/leave"
)

// Store keeps all records in maps guarded by a mutex.
//
// WithTx serializes callers but does not roll back on error; that is
// acceptable for tests, which assert on the error path separately.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users      map[int64]*leave.User
	categories map[int64]*leave.LeaveCategory
	requests   map[int64]*leave.LeaveRequest

	nextUserID     int64
	nextCategoryID int64
	nextRequestID  int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:      make(map[int64]*leave.User),
		categories: make(map[int64]*leave.LeaveCategory),
		requests:   make(map[int64]*leave.LeaveRequest),
	}
}

var _ leave.Store = (*Store)(nil)

// WithTx serializes fn against other transactions. Individual operations
// remain individually locked, so fn observes a consistent view.
func (s *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(_ context.Context, u *leave.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListUsers(_ context.Context) ([]*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*leave.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListNotifiedAdmins(_ context.Context) ([]*leave.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.User
	for _, u := range s.users {
		if u.Role == leave.RoleAdministrator && u.Notification {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *leave.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return leave.ErrUserNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for rid, r := range s.requests {
		if r.UserID == id {
			delete(s.requests, rid)
		}
	}
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) CreateCategory(_ context.Context, c *leave.LeaveCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCategoryID++
	c.ID = s.nextCategoryID
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (*leave.LeaveCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) GetCategoryByName(_ context.Context, name string) (*leave.LeaveCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Category == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*leave.LeaveCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*leave.LeaveCategory, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	// Mirror the SQL store's ON DELETE SET NULL.
	for _, u := range s.users {
		if u.LeaveCategoryID != nil && *u.LeaveCategoryID == id {
			u.LeaveCategoryID = nil
		}
	}
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) CreateRequest(_ context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRequestID++
	r.ID = s.nextRequestID
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *Store) GetRequest(_ context.Context, id int64) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRequests(_ context.Context, p leave.Page) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.collect(func(*leave.LeaveRequest) bool { return true }), p), nil
}

func (s *Store) ListRequestsByState(_ context.Context, state leave.RequestState, p leave.Page) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.collect(func(r *leave.LeaveRequest) bool { return r.State == state }), p), nil
}

func (s *Store) ListRequestsByUser(_ context.Context, userID int64) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *leave.LeaveRequest) bool { return r.UserID == userID }), nil
}

func (s *Store) UpdateRequest(_ context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return leave.ErrRequestNotFound
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

// collect returns matching requests ordered by start date. Callers must
// hold at least the read lock.
func (s *Store) collect(match func(*leave.LeaveRequest) bool) []*leave.LeaveRequest {
	var out []*leave.LeaveRequest
	for _, r := range s.requests {
		if match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func paginate(rs []*leave.LeaveRequest, p leave.Page) []*leave.LeaveRequest {
	if p.Size <= 0 {
		return rs
	}
	off := p.Offset()
	if off >= len(rs) {
		return nil
	}
	end := off + p.Limit()
	if end > len(rs) {
		end = len(rs)
	}
	return rs[off:end]
}
