package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/yadoya/receipt-ledger/internal/api/middleware"
	"github.com/yadoya/receipt-ledger/internal/gcsuploader"
	"github.com/yadoya/receipt-ledger/internal/jobs"
	"github.com/yadoya/receipt-ledger/internal/pipeline"
)

// ReceiptScanner runs one extraction invocation for a base64-encoded JPEG.
type ReceiptScanner interface {
	Scan(ctx context.Context, encodedImage string) (*pipeline.ReceiptExtraction, error)
}

// ReceiptsHandler handles receipt intake endpoints.
type ReceiptsHandler struct {
	scanner   ReceiptScanner
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(scanner ReceiptScanner, publisher jobs.Publisher, bucket string, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		scanner:   scanner,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

type scanRequest struct {
	Image string `json:"image"` // base64-encoded JPEG
}

// ScanReceipt handles POST /api/receipts: run the extraction inline and
// return the parsed result.
func (h *ReceiptsHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		middleware.WriteError(w, http.StatusBadRequest, "image is required")
		return
	}

	extraction, err := h.scanner.Scan(r.Context(), req.Image)
	if err != nil {
		h.log.Error().Err(err).Msg("Receipt scan failed")
		writePipelineError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, extraction)
}

// EnqueueScan handles POST /api/receipts/async: park the image in GCS and
// hand the scan to the background worker.
func (h *ReceiptsHandler) EnqueueScan(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Async intake is not configured")
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		middleware.WriteError(w, http.StatusBadRequest, "image is required")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "image is not valid base64")
		return
	}

	ctx := r.Context()
	gcsURI, err := gcsuploader.UploadReceiptImage(ctx, h.bucket, raw, "image/jpeg")
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upload receipt image")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}

	job := &jobs.ScanReceiptJob{GCSURI: gcsURI}
	if err := h.publisher.PublishScanReceipt(ctx, job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", gcsURI).Msg("Failed to enqueue scan job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue scan")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": gcsURI,
		"status":  string(job.Status),
	})
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses.
func writePipelineError(w http.ResponseWriter, err error) {
	var (
		tooLarge  *pipeline.PayloadTooLargeError
		upstream  *pipeline.UpstreamError
		malformed *pipeline.MalformedResponseError
		schema    *pipeline.SchemaViolationError
	)
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		middleware.WriteError(w, http.StatusInternalServerError, "Service is not configured")
	case errors.As(err, &tooLarge):
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
	case errors.Is(err, pipeline.ErrUpstreamTimeout):
		middleware.WriteError(w, http.StatusGatewayTimeout, "Model call timed out")
	case errors.Is(err, pipeline.ErrEmptyResponse):
		middleware.WriteError(w, http.StatusBadGateway, "Model returned no output")
	case errors.As(err, &upstream):
		middleware.WriteError(w, http.StatusBadGateway, upstream.Error())
	case errors.As(err, &malformed), errors.As(err, &schema):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		middleware.WriteError(w, http.StatusInternalServerError, "Receipt scan failed")
	}
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
