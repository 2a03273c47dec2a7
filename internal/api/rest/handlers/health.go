package handlers

import (
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/version"
)

// HealthHandler reports that the server is up.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.JSONResponse(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	})
}
