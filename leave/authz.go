// authz.go - Role-based authorization gate.
//
// Rules observed across the HTTP surface:
//   administrator - full access: admin console, request queue, role and
//                   category management, auto-accepted submissions
//   employee      - self-service submission and own-account viewing
//   viewer        - read-only landing page
//   unapproved    - read-only landing page, awaiting registration approval
package leave

// CanSubmitRequests reports whether a role may file leave requests.
// Viewers and unapproved users are blocked.
func CanSubmitRequests(r Role) bool {
	return r == RoleEmployee || r == RoleAdministrator
}

// CanAdministrate reports whether a role may manage users, categories and
// the request queue.
func CanAdministrate(r Role) bool {
	return r == RoleAdministrator
}
