package admission

import (
	"log/slog"
	"net/http"

	"github.com/bmsedge/edge-gateway/internal/tenant"
)

// TenantFilter resolves the tenant a request belongs to and injects it as
// headers for downstream data isolation. Authentication and infrastructure
// paths skip resolution.
type TenantFilter struct {
	resolver *tenant.Resolver
	logger   *slog.Logger
}

// NewTenantFilter creates the tenant isolation filter.
func NewTenantFilter(resolver *tenant.Resolver, logger *slog.Logger) *TenantFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantFilter{resolver: resolver, logger: logger}
}

func (f *TenantFilter) Name() string { return "tenant-isolation" }

func (f *TenantFilter) Order() int { return 0 }

// Apply resolves the tenant by precedence. Requests off the excluded paths
// that resolve to nothing are rejected.
func (f *TenantFilter) Apply(req *RequestContext) Outcome {
	if req.Method == http.MethodOptions {
		return Continue()
	}

	if f.resolver.Excluded(req.Path) {
		return Continue()
	}

	tc, ok := f.resolver.Resolve(tenant.Signals{
		IdentityTenant: req.HeaderValue(HeaderUserTenant),
		HeaderTenant:   req.HeaderValue(HeaderTenantID),
		Host:           req.Host,
		QueryTenant:    req.QueryValue("tenantId"),
	})
	if !ok {
		f.logger.Warn("no tenant resolved", slog.String("path", req.Path))
		return Halt(http.StatusBadRequest, "missing tenant identifier")
	}

	f.logger.Debug("tenant resolved",
		slog.String("tenant", tc.ID),
		slog.String("path", req.Path))

	return ContinueWith(map[string]string{
		HeaderTenantID:        tc.ID,
		HeaderTenantSubdomain: tc.Subdomain,
	})
}
