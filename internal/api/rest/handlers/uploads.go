package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/CameronXie/order-desk/internal/api/rest/response"
	"github.com/CameronXie/order-desk/internal/batch"
	"github.com/CameronXie/order-desk/internal/ingest"
)

const (
	uploadField    = "file"
	maxUploadBytes = 10 << 20
)

// Uploader previews and submits CSV uploads.
type Uploader interface {
	Load(r io.Reader) ([]ingest.Row, error)
	Preview(r io.Reader) (*ingest.Preview, error)
	Submit(ctx context.Context, rows []ingest.Row, progress batch.ProgressFunc) (*ingest.Report, error)
}

// UploadPreviewHandler normalises an upload without sending it.
type UploadPreviewHandler struct {
	uploader Uploader
	logger   *slog.Logger
}

// ServeHTTP handles POST /api/v1/uploads/preview.
func (h *UploadPreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file, err := uploadedFile(w, r)
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	preview, err := h.uploader.Preview(file)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	response.JSONResponse(w, http.StatusOK, preview)
}

// NewUploadPreviewHandler creates the upload preview handler.
func NewUploadPreviewHandler(uploader Uploader, logger *slog.Logger) http.Handler {
	return &UploadPreviewHandler{uploader: uploader, logger: logger}
}

// UploadSubmitHandler normalises an upload and sends it upstream.
type UploadSubmitHandler struct {
	uploader Uploader
	logger   *slog.Logger
}

// ServeHTTP handles POST /api/v1/uploads.
func (h *UploadSubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	file, err := uploadedFile(w, r)
	if err != nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	rows, err := h.uploader.Load(file)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	report, err := h.uploader.Submit(r.Context(), rows, nil)
	if err != nil {
		if errors.Is(err, ingest.ErrNoRows) {
			response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to submit upload", "error", err)
		response.JSONErrorResponse(w, errorStatus(err), err.Error())
		return
	}

	response.JSONResponse(w, http.StatusOK, report)
}

// NewUploadSubmitHandler creates the upload submit handler.
func NewUploadSubmitHandler(uploader Uploader, logger *slog.Logger) http.Handler {
	return &UploadSubmitHandler{uploader: uploader, logger: logger}
}

func uploadedFile(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, errors.New("a CSV file is required in the file field")
	}

	if err := ingest.CheckFileName(header.Filename); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

func writeIngestError(w http.ResponseWriter, err error) {
	var parseErr *ingest.ParseError
	switch {
	case errors.As(err, &parseErr), errors.Is(err, ingest.ErrNotCSV):
		response.JSONErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		response.JSONErrorResponse(w, http.StatusBadRequest, err.Error())
	}
}
