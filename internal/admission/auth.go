package admission

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bmsedge/edge-gateway/internal/endpoint"
	"github.com/bmsedge/edge-gateway/internal/token"
)

const bearerPrefix = "Bearer "

// AuthFilter requires a valid bearer credential on protected endpoints and
// injects the asserted identity as headers for downstream services. Public
// endpoints and CORS preflights pass through untouched.
type AuthFilter struct {
	classifier *endpoint.Classifier
	validator  *token.Validator
	logger     *slog.Logger
}

// NewAuthFilter creates the authentication filter.
func NewAuthFilter(classifier *endpoint.Classifier, validator *token.Validator, logger *slog.Logger) *AuthFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFilter{classifier: classifier, validator: validator, logger: logger}
}

func (f *AuthFilter) Name() string { return "authentication" }

func (f *AuthFilter) Order() int { return -1 }

// Apply runs the endpoint classification and, for protected paths, the
// token check. Identity headers are injected only on success.
func (f *AuthFilter) Apply(req *RequestContext) Outcome {
	if req.Method == http.MethodOptions {
		return Continue()
	}

	if f.classifier.IsPublic(req.Path) {
		return Continue()
	}

	authz := req.HeaderValue("Authorization")
	if !strings.HasPrefix(authz, bearerPrefix) {
		f.logger.Warn("unauthorized: no bearer credential",
			slog.String("path", req.Path))
		return Halt(http.StatusUnauthorized, "missing or invalid authorization header")
	}

	id, err := f.validator.Validate(authz[len(bearerPrefix):])
	if err != nil {
		f.logger.Warn("unauthorized: token rejected",
			slog.String("path", req.Path),
			slog.String("reason", err.Error()))
		return Halt(http.StatusUnauthorized, authFailureMessage(err))
	}

	f.logger.Info("authorized",
		slog.String("user", id.Subject),
		slog.String("role", id.Role),
		slog.String("path", req.Path))

	headers := map[string]string{
		HeaderUserID:        id.Subject,
		HeaderUserEmail:     id.Subject,
		HeaderUserRole:      id.Role,
		HeaderAuthenticated: "true",
	}
	if id.Tenant != "" {
		headers[HeaderUserTenant] = id.Tenant
	}
	return ContinueWith(headers)
}

// authFailureMessage maps a validation error class onto the client-facing
// message. Unknown classes collapse into the generic one.
func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return token.ErrExpired.Error()
	case errors.Is(err, token.ErrMalformed):
		return token.ErrMalformed.Error()
	case errors.Is(err, token.ErrBadSignature):
		return token.ErrBadSignature.Error()
	default:
		return token.ErrFailed.Error()
	}
}
