package leave_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/leave"
	"github.com/leavedesk/leavedesk/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// recordingNotifier captures change descriptions for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []string
}

func (n *recordingNotifier) Notify(change string, _ ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.changes...)
}

func newTestService(t *testing.T) (*leave.Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	notifier := &recordingNotifier{}
	return leave.NewService(st, notifier, nil), st, notifier
}

func seedCategory(t *testing.T, st *memory.Store, name string, maxDays int) *leave.LeaveCategory {
	t.Helper()
	cat := &leave.LeaveCategory{Category: name, MaxDays: maxDays}
	require.NoError(t, st.CreateCategory(context.Background(), cat))
	return cat
}

func seedUser(t *testing.T, st *memory.Store, email string, role leave.Role, catID *int64) *leave.User {
	t.Helper()
	u := &leave.User{Email: email, Role: role, Notification: true, LeaveCategoryID: catID}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmit_EmployeeReservesDays(t *testing.T) {
	// GIVEN: category(max_days=20), employee with days=0
	// WHEN:  submitting 03/14-03/19 (6 inclusive days)
	// THEN:  request is pending and the counter is reserved immediately

	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)
	assert.Equal(t, leave.StatePending, req.State)
	assert.Equal(t, 6, req.Span())

	stored, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Days)

	assert.Contains(t, notifier.all(), "emp@corp.test created a leave request.")
}

func TestSubmit_AdministratorAutoAccepted(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Old", 30)
	u := seedUser(t, st, "boss@corp.test", leave.RoleAdministrator, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)
	assert.Equal(t, leave.StateAccepted, req.State)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days)
}

func TestSubmit_OverQuotaLeavesNoPartialState(t *testing.T) {
	// GIVEN: 6 of 20 days already reserved
	// WHEN:  submitting a 25-day span (exceeds the remaining 14)
	// THEN:  no request row, counter untouched

	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	_, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, u, "04/01/2019", "04/25/2019")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientDays)

	var ide *leave.InsufficientDaysError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 25, ide.Requested)
	assert.Equal(t, 14, ide.Left)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days)

	reqs, err := st.ListRequestsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestSubmit_ExactRemainderAllowed(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Tight", 6)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	_, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days)
}

func TestSubmit_IneligibleRoles(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	for _, role := range []leave.Role{leave.RoleViewer, leave.RoleUnapproved} {
		u := seedUser(t, st, string(role)+"@corp.test", role, &cat.ID)
		_, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
		assert.ErrorIs(t, err, leave.ErrNotEligible, role)
	}
}

func TestSubmit_NoCategory(t *testing.T) {
	svc, st, _ := newTestService(t)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, nil)

	_, err := svc.Submit(context.Background(), u, "03/14/2019", "03/19/2019")
	assert.ErrorIs(t, err, leave.ErrNoCategory)
}

func TestSubmit_BadDates(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	_, err := svc.Submit(ctx, u, "03/xx/2019", "03/19/2019")
	assert.ErrorIs(t, err, leave.ErrInvalidDate)

	_, err = svc.Submit(ctx, u, "03/19/2019", "03/14/2019")
	assert.ErrorIs(t, err, leave.ErrEndBeforeStart)

	reqs, _ := st.ListRequestsByUser(ctx, u.ID)
	assert.Empty(t, reqs)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestDecline_RefundsReservation(t *testing.T) {
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	declined, err := svc.Decline(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StateDeclined, declined.State)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 0, stored.Days)

	assert.Contains(t, notifier.all(), "emp@corp.test's leave request has been declined.")
}

func TestAccept_FromPendingAddsNothing(t *testing.T) {
	// Days were reserved at submission; accepting must not double-count.
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	accepted, err := svc.Accept(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StateAccepted, accepted.State)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days)
}

func TestDeclineThenAccept_NetNeutral(t *testing.T) {
	// decline refunds span+1, re-accept restores it: a full round trip
	// leaves the counter exactly where submission put it.
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	_, err = svc.Decline(ctx, req.ID)
	require.NoError(t, err)

	accepted, err := svc.Accept(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StateAccepted, accepted.State)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days)
}

func TestTransitions_RepeatApplicationRejected(t *testing.T) {
	// Re-applying a transition must not move the counter again.
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	req, err := svc.Submit(ctx, u, "03/14/2019", "03/19/2019")
	require.NoError(t, err)

	_, err = svc.Decline(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.Decline(ctx, req.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrAlreadyInState)

	stored, _ := st.GetUser(ctx, u.ID)
	assert.Equal(t, 0, stored.Days, "double decline must not double-subtract")

	_, err = svc.Accept(ctx, req.ID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, req.ID)
	assert.ErrorIs(t, err, leave.ErrAlreadyInState)

	stored, _ = st.GetUser(ctx, u.ID)
	assert.Equal(t, 6, stored.Days, "double accept must not double-add")
}

func TestTransition_UnknownRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Accept(context.Background(), 999)
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

// =============================================================================
// REGISTRATION
// =============================================================================

func TestRegisterLogin_FirstUserBecomesAdministrator(t *testing.T) {
	svc, st, notifier := newTestService(t)
	ctx := context.Background()

	u, err := svc.RegisterLogin(ctx, "founder@corp.test")
	require.NoError(t, err)
	assert.Equal(t, leave.RoleAdministrator, u.Role)

	cats, err := st.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Young", cats[0].Category)
	assert.Equal(t, 20, cats[0].MaxDays)
	assert.Equal(t, "Old", cats[1].Category)
	assert.Equal(t, 30, cats[1].MaxDays)

	assert.Contains(t, notifier.all(),
		"founder@corp.test logged in for the first time. You are administrator now!")
}

func TestRegisterLogin_LaterUsersStartUnapproved(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterLogin(ctx, "founder@corp.test")
	require.NoError(t, err)

	u, err := svc.RegisterLogin(ctx, "new@corp.test")
	require.NoError(t, err)
	assert.Equal(t, leave.RoleUnapproved, u.Role)
	assert.True(t, u.Notification)

	// No duplicate seed on subsequent sign-ups.
	cats, _ := st.ListCategories(ctx)
	assert.Len(t, cats, 2)
}

func TestRegisterLogin_ExistingUserUnchanged(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RegisterLogin(ctx, "founder@corp.test")
	require.NoError(t, err)

	again, err := svc.RegisterLogin(ctx, "founder@corp.test")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, leave.RoleAdministrator, again.Role)

	count, _ := st.CountUsers(ctx)
	assert.Equal(t, 1, count)
}

// =============================================================================
// ACCOUNT ADMINISTRATION
// =============================================================================

func TestApproveRegistration(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	seedUser(t, st, "new@corp.test", leave.RoleUnapproved, nil)

	u, err := svc.ApproveRegistration(ctx, "new@corp.test")
	require.NoError(t, err)
	assert.Equal(t, leave.RoleViewer, u.Role)
}

func TestDeclineRegistration_DeletesUser(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	seedUser(t, st, "new@corp.test", leave.RoleUnapproved, nil)
	require.NoError(t, svc.DeclineRegistration(ctx, "new@corp.test"))

	gone, err := st.GetUserByEmail(ctx, "new@corp.test")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestChangeRole_ValidatesAtWriteBoundary(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	seedUser(t, st, "emp@corp.test", leave.RoleViewer, nil)

	u, err := svc.ChangeRole(ctx, "emp@corp.test", "employee")
	require.NoError(t, err)
	assert.Equal(t, leave.RoleEmployee, u.Role)

	_, err = svc.ChangeRole(ctx, "emp@corp.test", "superuser")
	assert.ErrorIs(t, err, leave.ErrUnknownRole)

	stored, _ := st.GetUserByEmail(ctx, "emp@corp.test")
	assert.Equal(t, leave.RoleEmployee, stored.Role, "rejected role must not be written")
}

func TestChangeCategory(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Old", 30)
	seedUser(t, st, "emp@corp.test", leave.RoleEmployee, nil)

	u, err := svc.ChangeCategory(ctx, "emp@corp.test", cat.ID)
	require.NoError(t, err)
	require.NotNil(t, u.LeaveCategoryID)
	assert.Equal(t, cat.ID, *u.LeaveCategoryID)

	_, err = svc.ChangeCategory(ctx, "emp@corp.test", 999)
	assert.ErrorIs(t, err, leave.ErrCategoryNotFound)
}

func TestSetNotification(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	seedUser(t, st, "emp@corp.test", leave.RoleEmployee, nil)

	u, err := svc.SetNotification(ctx, "emp@corp.test", false)
	require.NoError(t, err)
	assert.False(t, u.Notification)

	u, err = svc.SetNotification(ctx, "emp@corp.test", true)
	require.NoError(t, err)
	assert.True(t, u.Notification)
}

// =============================================================================
// CATEGORY MANAGEMENT
// =============================================================================

func TestAddCategory_DefaultCeiling(t *testing.T) {
	svc, _, _ := newTestService(t)

	cat, err := svc.AddCategory(context.Background(), "Intern", nil)
	require.NoError(t, err)
	assert.Equal(t, leave.DefaultMaxDays, cat.MaxDays)
}

func TestAddCategory_RejectsDuplicateName(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	max := 15
	_, err := svc.AddCategory(ctx, "Intern", &max)
	require.NoError(t, err)

	_, err = svc.AddCategory(ctx, "Intern", &max)
	assert.ErrorIs(t, err, leave.ErrDuplicateCategory)

	cats, _ := st.ListCategories(ctx)
	assert.Len(t, cats, 1)
}

func TestDeleteCategory_OrphansUsers(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	cat := seedCategory(t, st, "Young", 20)
	u := seedUser(t, st, "emp@corp.test", leave.RoleEmployee, &cat.ID)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	stored, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LeaveCategoryID)

	err = svc.DeleteCategory(ctx, cat.ID)
	assert.ErrorIs(t, err, leave.ErrCategoryNotFound)
}
