package audit

// Audit actions.
const (
	ActionRootPasswordGenerated   = "ROOT_PASSWORD_GENERATED"
	ActionRootLogin               = "ROOT_LOGIN"
	ActionRootLoginFailed         = "ROOT_LOGIN_FAILED"
	ActionRootLoginBlocked        = "ROOT_LOGIN_BLOCKED"
	ActionRootTokenRefreshed      = "ROOT_TOKEN_REFRESHED"
	ActionRootPasswordChanged     = "ROOT_PASSWORD_CHANGED"
	ActionRootOnboardingStarted   = "ROOT_ONBOARDING_STARTED"
	ActionRootSocietyCreated      = "ROOT_SOCIETY_CREATED"
	ActionRootAdminCreated        = "ROOT_ADMIN_CREATED"
	ActionRootOnboardingCompleted = "ROOT_ONBOARDING_COMPLETED"

	ActionAuthLogin           = "AUTH_LOGIN"
	ActionAuthLoginFailed     = "AUTH_LOGIN_FAILED"
	ActionAuthLoginLocked     = "AUTH_LOGIN_LOCKED"
	ActionAuthRefresh         = "AUTH_REFRESH"
	ActionAuthPasswordChanged = "AUTH_PASSWORD_CHANGED"

	ActionTenantBootstrapped = "TENANT_BOOTSTRAPPED"

	ActionAmenityCreated = "AMENITY_CREATED"
	ActionAmenityUpdated = "AMENITY_UPDATED"
	ActionAmenityDeleted = "AMENITY_DELETED"
)

// Entity types.
const (
	EntityRootAccount = "platform_root_account"
	EntityTenant      = "tenant"
	EntityUser        = "user"
	EntityAmenity     = "amenity"
)
