package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dvloznov/moneymagic/internal/api/middleware"
	"github.com/dvloznov/moneymagic/internal/calendar"
	"github.com/dvloznov/moneymagic/internal/coach"
	"github.com/dvloznov/moneymagic/internal/datasets"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/export"
	"github.com/dvloznov/moneymagic/internal/ingest"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/rs/zerolog"
)

// MaxUploadBytes bounds the size of an uploaded statement.
const MaxUploadBytes = 10 << 20

// Datasets is the dataset service used by the handlers.
type Datasets interface {
	CreateFromUpload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	CreateManual(ctx context.Context, in datasets.ManualInput) (string, error)
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	Transactions(ctx context.Context, id string) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, id string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error)
	UpdateTransaction(ctx context.Context, id, txID string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error)
	DeleteTransaction(ctx context.Context, id, txID string) (*domain.Dataset, error)
	SetGoals(ctx context.Context, id string, goals domain.Goals) (domain.Goals, error)
	Coach(ctx context.Context, id, question string) (coach.Response, error)
	CalendarEvents(ctx context.Context, id string, horizonDays int) ([]calendar.Event, error)
}

var _ Datasets = (*datasets.Service)(nil)

// Health handles GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DatasetsHandler handles dataset endpoints.
type DatasetsHandler struct {
	svc Datasets
	log zerolog.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(svc Datasets, log zerolog.Logger) *DatasetsHandler {
	return &DatasetsHandler{
		svc: svc,
		log: log,
	}
}

// Upload handles POST /api/datasets/upload
func (h *DatasetsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Expected a multipart upload with a file field.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Unable to read uploaded file.")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Uploaded file is empty.")
		return
	}

	id, err := h.svc.CreateFromUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.writeError(w, err, "Failed to create dataset")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"dataset_id": id})
}

// CreateManual handles POST /api/datasets/manual
func (h *DatasetsHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transactions  []pipeline.Record `json:"transactions"`
		Goals         domain.Goals      `json:"goals"`
		Subscriptions []pipeline.Record `json:"subscriptions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.svc.CreateManual(r.Context(), datasets.ManualInput{
		Transactions:  req.Transactions,
		Goals:         req.Goals,
		Subscriptions: req.Subscriptions,
	})
	if err != nil {
		h.writeError(w, err, "Failed to create dataset")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"dataset_id": id})
}

type summaryResponse struct {
	DatasetID string `json:"dataset_id"`
	domain.Summary
	Goals domain.Goals `json:"goals"`
}

// Summary handles GET /api/datasets/{id}/summary
func (h *DatasetsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ds, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to load dataset")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summaryResponse{
		DatasetID: id,
		Summary:   ds.Summary,
		Goals:     ds.Goals,
	})
}

// Subscriptions handles GET /api/datasets/{id}/subscriptions
func (h *DatasetsHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ds, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to load dataset")
		return
	}

	subs := ds.Subscriptions
	if subs == nil {
		subs = []domain.Subscription{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id":    id,
		"subscriptions": subs,
	})
}

// ListTransactions handles GET /api/datasets/{id}/transactions
func (h *DatasetsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	txs, err := h.svc.Transactions(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to load transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id":   id,
		"transactions": txs,
	})
}

// AddTransaction handles POST /api/datasets/{id}/transactions
func (h *DatasetsHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var rec pipeline.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, ds, err := h.svc.AddTransaction(r.Context(), id, rec)
	if err != nil {
		h.writeError(w, err, "Failed to add transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id":  id,
		"transaction": tx,
		"summary":     ds.Summary,
	})
}

// UpdateTransaction handles PUT /api/datasets/{id}/transactions/{tx_id}
func (h *DatasetsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var rec pipeline.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, ds, err := h.svc.UpdateTransaction(r.Context(), id, r.PathValue("tx_id"), rec)
	if err != nil {
		h.writeError(w, err, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id":  id,
		"transaction": tx,
		"summary":     ds.Summary,
	})
}

// DeleteTransaction handles DELETE /api/datasets/{id}/transactions/{tx_id}
func (h *DatasetsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	txID := r.PathValue("tx_id")

	ds, err := h.svc.DeleteTransaction(r.Context(), id, txID)
	if err != nil {
		h.writeError(w, err, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id": id,
		"deleted":    txID,
		"summary":    ds.Summary,
	})
}

// SetGoals handles PUT /api/datasets/{id}/goals
func (h *DatasetsHandler) SetGoals(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var goals domain.Goals
	if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.svc.SetGoals(r.Context(), id, goals)
	if err != nil {
		h.writeError(w, err, "Failed to save goals")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id": id,
		"goals":      saved,
	})
}

// CalendarEvents handles GET /api/datasets/{id}/calendar-events
func (h *DatasetsHandler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	horizon := calendar.DefaultHorizonDays
	if s := r.URL.Query().Get("horizon_days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "horizon_days must be a positive integer")
			return
		}
		horizon = v
	}

	events, err := h.svc.CalendarEvents(r.Context(), id, horizon)
	if err != nil {
		h.writeError(w, err, "Failed to build calendar events")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_id": id,
		"events":     events,
	})
}

type coachResponse struct {
	DatasetID string `json:"dataset_id"`
	coach.Response
}

// Coach handles POST /api/datasets/{id}/coach
func (h *DatasetsHandler) Coach(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Question string `json:"question"`
	}
	// An unreadable body counts as a missing question, which the service
	// reports only after confirming the dataset exists.
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := h.svc.Coach(r.Context(), id, req.Question)
	if err != nil {
		h.writeError(w, err, "Failed to answer question")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, coachResponse{DatasetID: id, Response: resp})
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and reported as msg.
func (h *DatasetsHandler) writeError(w http.ResponseWriter, err error, msg string) {
	var parseErr *ingest.ParseError
	var validationErr *datasets.ValidationError

	switch {
	case errors.As(err, &parseErr):
		middleware.WriteError(w, http.StatusBadRequest, parseErr.Msg)
	case errors.As(err, &validationErr):
		middleware.WriteError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.Is(err, datasets.ErrTransactionNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Dataset not found")
	default:
		h.log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// JobsHandler exposes warehouse export jobs.
type JobsHandler struct {
	store export.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store export.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/export-jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Debug().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/export-jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := export.JobFilter{
		DatasetID: query.Get("dataset_id"),
		Status:    export.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if jobsList == nil {
		jobsList = []*export.Job{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
