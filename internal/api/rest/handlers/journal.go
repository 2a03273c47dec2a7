package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/journal"
)

const defaultJournalLimit = 50

// ListJournalHandler lists recent journal entries, newest first.
type ListJournalHandler struct {
	repo   journal.Repository
	logger *slog.Logger
}

// ServeHTTP handles GET /api/v1/journal.
func (h *ListJournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.JSONErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list journal", "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}

	response.JSONResponse(w, http.StatusOK, entries)
}

// NewListJournalHandler creates the journal list handler.
func NewListJournalHandler(repo journal.Repository, logger *slog.Logger) http.Handler {
	return &ListJournalHandler{repo: repo, logger: logger}
}

// GetJournalHandler returns one journal entry.
type GetJournalHandler struct {
	repo   journal.Repository
	logger *slog.Logger
}

// ServeHTTP handles GET /api/v1/journal/{id}.
func (h *GetJournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, "invalid journal entry id")
		return
	}

	entry, err := h.repo.Get(r.Context(), id)
	if err != nil {
		var notFound *journal.NotFoundError
		if errors.As(err, &notFound) {
			response.JSONErrorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get journal entry", "id", id, "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
		return
	}

	response.JSONResponse(w, http.StatusOK, entry)
}

// NewGetJournalHandler creates the journal entry handler.
func NewGetJournalHandler(repo journal.Repository, logger *slog.Logger) http.Handler {
	return &GetJournalHandler{repo: repo, logger: logger}
}
