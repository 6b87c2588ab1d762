package authz

// Role names. Keep these stable; they are part of persisted membership rows
// and API responses.

type PlatformRole string

const (
	PlatformRoleNone    PlatformRole = "none"
	PlatformRoleManager PlatformRole = "platform_manager"
	PlatformRoleAdmin   PlatformRole = "platform_admin"
)

type OrgRole string

const (
	OrgRoleNone    OrgRole = "none"
	OrgRoleOwner   OrgRole = "org_owner"
	OrgRoleAdmin   OrgRole = "org_admin"
	OrgRoleManager OrgRole = "org_manager"
	OrgRoleAgent   OrgRole = "agent"
	OrgRoleMember  OrgRole = "member"
)

// IsAdmin reports whether the role carries full authority within the org.
func (r OrgRole) IsAdmin() bool { return r == OrgRoleOwner || r == OrgRoleAdmin }

// ValidOrgRole reports whether r is an assignable membership role.
func ValidOrgRole(r OrgRole) bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleManager, OrgRoleAgent, OrgRoleMember:
		return true
	default:
		return false
	}
}

// NormalizePlatformRole maps a stored global-role value onto the closed set.
// The legacy value "admin" is still present in older profile rows and is
// treated as platform_admin.
func NormalizePlatformRole(v string) PlatformRole {
	switch v {
	case string(PlatformRoleAdmin), "admin":
		return PlatformRoleAdmin
	case string(PlatformRoleManager):
		return PlatformRoleManager
	default:
		return PlatformRoleNone
	}
}

// NormalizeOrgRole maps a stored membership role onto the closed set.
// Legacy tables occasionally hold free-form values; anything unrecognized
// collapses to the least-privileged member role at this boundary so the
// resolver never branches on unknown strings.
func NormalizeOrgRole(v string) OrgRole {
	switch OrgRole(v) {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleManager, OrgRoleAgent, OrgRoleMember:
		return OrgRole(v)
	default:
		return OrgRoleMember
	}
}

// Permissions is the granular capability set applied to org_manager roles.
// Absence of a stored overlay row means all four are false.
type Permissions struct {
	CanManageAgents       bool `json:"can_manage_agents"`
	CanManagePhoneNumbers bool `json:"can_manage_phone_numbers"`
	CanEditServiceTargets bool `json:"can_edit_service_targets"`
	CanViewBilling        bool `json:"can_view_billing"`
}

func fullPermissions() Permissions {
	return Permissions{
		CanManageAgents:       true,
		CanManagePhoneNumbers: true,
		CanEditServiceTargets: true,
		CanViewBilling:        true,
	}
}

// Authority is the resolved caller authority for one (caller, org) question.
// OrgRole is "none" when the caller has no membership or no org was asked about.
type Authority struct {
	PlatformRole PlatformRole `json:"platform_role"`
	OrgRole      OrgRole      `json:"org_role"`
	IsOrgAdmin   bool         `json:"is_org_admin"`
	Permissions  Permissions  `json:"effective_permissions"`
}
