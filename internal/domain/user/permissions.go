package user

// Permissions are the capability flags the UI and handlers check per role.
type Permissions struct {
	CanChangeStatus    bool   `json:"can_change_status"`
	CanEditStudentMemo bool   `json:"can_edit_student_memo"`
	CanReadStudentMemo bool   `json:"can_read_student_memo"`
	CanEditAdminMemo   bool   `json:"can_edit_admin_memo"`
	CanEditYoutube     bool   `json:"can_edit_youtube"`
	CanOpenDetail      bool   `json:"can_open_detail"`
	CanAccessAdmin     bool   `json:"can_access_admin"`
	Label              string `json:"label"`
}

var rolePermissions = map[Role]Permissions{
	RoleAdmin: {
		CanChangeStatus:    true,
		CanReadStudentMemo: true,
		CanEditAdminMemo:   true,
		CanEditYoutube:     true,
		CanOpenDetail:      true,
		CanAccessAdmin:     true,
		Label:              "관리자",
	},
	RoleStudent: {
		CanChangeStatus:    true,
		CanEditStudentMemo: true,
		CanReadStudentMemo: true,
		CanOpenDetail:      true,
		Label:              "학생",
	},
	RoleParent:  {Label: "학부모"},
	RolePending: {Label: "승인대기"},
}

// PermissionsFor returns the flags for r; unknown roles get none.
func PermissionsFor(r Role) Permissions {
	return rolePermissions[r]
}
