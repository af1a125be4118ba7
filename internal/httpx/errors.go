package httpx

import (
	"errors"
	"net/http"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	orgdomain "society-shield/backend/internal/organization/domain"
	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/security"
	"society-shield/backend/internal/tenant"
	userdomain "society-shield/backend/internal/user/domain"
)

var (
	// ErrBadRequest wraps malformed or invalid request input.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned by services for rows that are absent or not visible in
	// the caller's tenant; the two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")
)

// BadRequestError carries field-level violations for a 400 response.
type BadRequestError struct {
	Message    string
	Violations []string
}

func (e *BadRequestError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrBadRequest) match.
func (e *BadRequestError) Unwrap() error { return ErrBadRequest }

// Error maps err to a status and writes it. Unknown errors and isolation failures are
// logged and answered with a generic 500 that carries no tenant detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pv *security.PolicyViolationError
		br *BadRequestError
	)
	switch {
	case errors.As(err, &pv):
		WriteError(w, http.StatusBadRequest, CodeBadRequest, pv.Label+" does not meet security policy", pv.Violations)
	case errors.As(err, &br):
		WriteError(w, http.StatusBadRequest, CodeBadRequest, br.Message, br.Violations)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, orgdomain.ErrInvalidTenant),
		errors.Is(err, userdomain.ErrInvalidUser):
		WriteError(w, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
	case errors.Is(err, principal.ErrUnauthenticated), errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrWrongTokenKind):
		Unauthorized(w, "unauthorized")
	case errors.Is(err, principal.ErrForbidden), errors.Is(err, engine.ErrDenied):
		WriteError(w, http.StatusForbidden, CodeForbidden, "access denied", nil)
	case errors.Is(err, ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
	case errors.Is(err, userdomain.ErrEmailTaken), errors.Is(err, orgdomain.ErrNameTaken):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	default:
		l := logger.From(r.Context())
		if isIsolationFailure(err) {
			l.Error("isolation failure", logger.Path(r.URL.Path), logger.Err(err))
		} else {
			l.Error("request failed", logger.Path(r.URL.Path), logger.Err(err))
		}
		WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

func isIsolationFailure(err error) bool {
	return errors.Is(err, tenant.ErrTenantContextMissing) ||
		errors.Is(err, db.ErrEnforcerActivation) ||
		errors.Is(err, db.ErrTenantMismatch) ||
		errors.Is(err, db.ErrNoUnitOfWork) ||
		errors.Is(err, db.ErrRowPolicy)
}
