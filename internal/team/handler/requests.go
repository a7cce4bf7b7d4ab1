package handler

// AssignMemberRequest adds one user to the team in the URL.
type AssignMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// BulkAssignRequest adds several users to the team in the URL at one role.
type BulkAssignRequest struct {
	UserIDs []string `json:"user_ids"`
	Role    string   `json:"role"`
}

// ChangeRoleRequest moves an existing member to a new role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// CreateStaffRequest registers a staff profile ahead of team assignment.
type CreateStaffRequest struct {
	UserID          string   `json:"user_id"`
	BasePermissions []string `json:"base_permissions,omitempty"`
}
