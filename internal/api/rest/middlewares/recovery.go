package middlewares

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
)

// Recovery turns a panicking handler into a 500 response.
func Recovery(logger *slog.Logger) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "handler panicked",
					"request_id", RequestIDFrom(r.Context()),
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
			}()

			next.ServeHTTP(w, r)
		})
	})
}
