package rest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CameronXie/order-desk/internal/api/rest/middlewares"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	})
}

func deny() middlewares.Middleware {
	return middlewares.MiddlewareFunc(func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	})
}

func allow() middlewares.Middleware {
	return middlewares.MiddlewareFunc(func(next http.Handler) http.Handler {
		return next
	})
}

func TestNewMuxWithHandlers(t *testing.T) {
	mux := NewMuxWithHandlers(&RouterConfig{
		HealthHandler:        named("health"),
		ListOrdersHandler:    named("list"),
		ActionHandler:        named("action"),
		EditSizeHandler:      named("size"),
		UploadPreviewHandler: named("preview"),
		UploadSubmitHandler:  named("upload"),
		ExportHandler:        named("export"),
		DashboardHandler:     named("dashboard"),
		ListJournalHandler:   named("journal"),
		GetJournalHandler:    named("entry"),
		ActionPolicy:         allow(),
		EditPolicy:           deny(),
		Logger:               slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	cases := map[string]struct {
		method         string
		target         string
		expectedStatus int
		expectedBody   string
	}{
		"should route health":            {http.MethodGet, "/health", http.StatusOK, "health"},
		"should route order lists":       {http.MethodGet, "/api/v1/orders/pending", http.StatusOK, "list"},
		"should route actions":           {http.MethodPost, "/api/v1/orders/pending/actions/confirm", http.StatusOK, "action"},
		"should guard size corrections":  {http.MethodPost, "/api/v1/orders/abc/size", http.StatusForbidden, ""},
		"should route upload previews":   {http.MethodPost, "/api/v1/uploads/preview", http.StatusOK, "preview"},
		"should route uploads":           {http.MethodPost, "/api/v1/uploads", http.StatusOK, "upload"},
		"should route exports":           {http.MethodGet, "/api/v1/exports/confirmed", http.StatusOK, "export"},
		"should route the dashboard":     {http.MethodGet, "/api/v1/dashboard", http.StatusOK, "dashboard"},
		"should route the journal":       {http.MethodGet, "/api/v1/journal", http.StatusOK, "journal"},
		"should route journal entries":   {http.MethodGet, "/api/v1/journal/1", http.StatusOK, "entry"},
		"should reject wrong methods":    {http.MethodDelete, "/api/v1/orders/pending", http.StatusMethodNotAllowed, ""},
		"should not mount absent routes": {http.MethodGet, "/metrics", http.StatusNotFound, ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, http.NoBody))

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, w.Body.String())
			}
			assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))
		})
	}
}
