package domain

// UserRoleType is a role claim carried by the caller's token
type UserRoleType string

const (
	RoleTenantAdmin    UserRoleType = "tenant_admin"
	RolePricingManager UserRoleType = "pricing_manager"
	RoleEstimator      UserRoleType = "estimator"
	RoleViewer         UserRoleType = "viewer"
	RoleAPIService     UserRoleType = "api_service"
)

// PermissionType is a capability granted through roles
type PermissionType string

const (
	PermissionRFQRead        PermissionType = "rfq:read"
	PermissionRFQWrite       PermissionType = "rfq:write"
	PermissionPricingRead    PermissionType = "pricing:read"
	PermissionPricingWrite   PermissionType = "pricing:write"
	PermissionPricingSubmit  PermissionType = "pricing:submit"
	PermissionPricingApprove PermissionType = "pricing:approve"
)

// RolePermissions lists the permissions each role grants
var RolePermissions = map[UserRoleType][]PermissionType{
	RoleTenantAdmin: {
		PermissionRFQRead, PermissionRFQWrite,
		PermissionPricingRead, PermissionPricingWrite, PermissionPricingSubmit, PermissionPricingApprove,
	},
	RolePricingManager: {
		PermissionRFQRead,
		PermissionPricingRead, PermissionPricingWrite, PermissionPricingSubmit, PermissionPricingApprove,
	},
	RoleEstimator: {
		PermissionRFQRead, PermissionRFQWrite,
		PermissionPricingRead, PermissionPricingWrite, PermissionPricingSubmit,
	},
	RoleViewer: {
		PermissionRFQRead,
		PermissionPricingRead,
	},
	RoleAPIService: {
		PermissionRFQRead, PermissionRFQWrite,
		PermissionPricingRead, PermissionPricingWrite,
	},
}
