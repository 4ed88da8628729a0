package admission

// Headers injected toward backends. Downstream services trust these without
// re-verifying the credential, which assumes the gateway sits at a trust
// boundary no client can bypass.
const (
	HeaderUserID          = "X-User-Id"
	HeaderUserEmail       = "X-User-Email"
	HeaderUserRole        = "X-User-Role"
	HeaderAuthenticated   = "X-Authenticated"
	HeaderTenantID        = "X-Tenant-Id"
	HeaderTenantSubdomain = "X-Tenant-Subdomain"

	// HeaderUserTenant carries the tenant encoded in the credential. It is
	// trusted input: only the gateway itself injects it.
	HeaderUserTenant = "X-User-Tenant-Id"

	// HeaderError carries the terminal message on halted requests.
	HeaderError = "X-Error-Message"
)

// identityHeaders are stripped from inbound requests before the chain runs
// so clients cannot smuggle identity past authentication.
var identityHeaders = []string{
	HeaderUserID,
	HeaderUserEmail,
	HeaderUserRole,
	HeaderAuthenticated,
	HeaderUserTenant,
}
