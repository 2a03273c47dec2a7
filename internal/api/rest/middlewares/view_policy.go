package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/enforcer"
)

const (
	internalServerErrorMessage = "internal server error"
	forbiddenMessage           = "action not allowed on this view"
)

// ActionResolver extracts the view and action a request targets.
type ActionResolver func(r *http.Request) (view, action string)

// PathAction reads the view and action from the {view} and {action} path values.
func PathAction(r *http.Request) (string, string) {
	return r.PathValue("view"), r.PathValue("action")
}

// FixedAction targets the same view and action for every request.
func FixedAction(view, action string) ActionResolver {
	return func(*http.Request) (string, string) {
		return view, action
	}
}

// ViewPolicyMiddleware rejects actions the policy does not offer on a view.
type ViewPolicyMiddleware struct {
	enforcer enforcer.Enforcer
	resolve  ActionResolver
	logger   *slog.Logger
}

// Handle enforces the policy before calling next.
func (m *ViewPolicyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view, action := m.resolve(r)

		err := enforcer.Authorize(r.Context(), m.enforcer, view, action)
		var denied *enforcer.ActionNotAllowedError
		switch {
		case errors.As(err, &denied):
			m.logger.WarnContext(r.Context(), "action denied by policy", "view", view, "action", action)
			response.JSONErrorResponse(w, http.StatusForbidden, forbiddenMessage)
			return
		case err != nil:
			m.logger.ErrorContext(r.Context(), "failed to enforce action policy", "error", err)
			response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewViewPolicyMiddleware returns a middleware enforcing e on the action resolve extracts.
func NewViewPolicyMiddleware(e enforcer.Enforcer, resolve ActionResolver, logger *slog.Logger) Middleware {
	return &ViewPolicyMiddleware{
		enforcer: e,
		resolve:  resolve,
		logger:   logger,
	}
}
