package auth

// Resources and actions known to the permission system. Matching is exact on
// the (resource, action) pair; there are no wildcards.
const (
	ResourceEmployees      = "employees"
	ResourceDepartments    = "departments"
	ResourceChangeRequests = "change_requests"

	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Scopes bound how far a permission reaches within a resource.
const (
	ScopeAll  = "all"
	ScopeTeam = "team"
	ScopeSelf = "self"
)

// RoleManager is the role that allows deciding on direct reports. The admin
// switch lives on the user record, not here.
const RoleManager = "manager"
