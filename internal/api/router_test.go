package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/moneymagic/internal/api/handlers"
	"github.com/dvloznov/moneymagic/internal/coach"
	"github.com/dvloznov/moneymagic/internal/datasets"
	"github.com/dvloznov/moneymagic/internal/export"
	exportmem "github.com/dvloznov/moneymagic/internal/export/inmemory"
	"github.com/dvloznov/moneymagic/internal/store/inmemory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *exportmem.Store) {
	t.Helper()
	log := zerolog.New(io.Discard)
	svc := datasets.NewService(inmemory.NewStore(), coach.NewResponder(nil, 0, log), log)
	jobs := exportmem.NewStore()

	return NewRouter(RouterConfig{
		Datasets:    handlers.NewDatasetsHandler(svc, log),
		Jobs:        handlers.NewJobsHandler(jobs, log),
		CORSOrigins: []string{"*"},
		Log:         log,
	}), jobs
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func upload(t *testing.T, h http.Handler, filename string, content []byte) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func manualPayload() map[string]interface{} {
	return map[string]interface{}{
		"transactions": []map[string]interface{}{
			{"tx_id": "n1", "date": "2024-01-01", "merchant": "Netflix", "amount": 15.99},
			{"tx_id": "n2", "date": "2024-01-31", "merchant": "Netflix", "amount": 15.99},
			{"tx_id": "n3", "date": "2024-03-01", "merchant": "Netflix", "amount": 15.99},
			{"tx_id": "r1", "date": "2024-03-02", "merchant": "Landlord", "amount": 1200},
		},
		"goals": map[string]interface{}{"monthly_budget": 2000},
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	code, body := do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestDatasetLifecycle(t *testing.T) {
	h, _ := newTestRouter(t)

	code, body := do(t, h, http.MethodPost, "/api/datasets/manual", manualPayload())
	require.Equal(t, http.StatusOK, code, body)
	id := body["dataset_id"].(string)
	require.NotEmpty(t, id)

	code, body = do(t, h, http.MethodGet, "/api/datasets/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["dataset_id"])
	assert.Equal(t, 1215.99, body["total_spent_this_month"])
	assert.Equal(t, 15.99, body["subscription_monthly_total"])
	assert.Equal(t, map[string]interface{}{"name": "Rent", "amount": 1200.0}, body["biggest_category"])
	assert.Equal(t, map[string]interface{}{"monthly_budget": 2000.0}, body["goals"])

	code, body = do(t, h, http.MethodGet, "/api/datasets/"+id+"/subscriptions", nil)
	require.Equal(t, http.StatusOK, code)
	subs := body["subscriptions"].([]interface{})
	require.Len(t, subs, 1)
	sub := subs[0].(map[string]interface{})
	assert.Equal(t, "Netflix", sub["merchant"])
	assert.Equal(t, 30.0, sub["interval_days"])
	assert.Equal(t, 1.0, sub["confidence"])

	code, body = do(t, h, http.MethodGet, "/api/datasets/"+id+"/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	txs := body["transactions"].([]interface{})
	require.Len(t, txs, 4)
	assert.Equal(t, "r1", txs[0].(map[string]interface{})["tx_id"])

	code, body = do(t, h, http.MethodPost, "/api/datasets/"+id+"/transactions", map[string]interface{}{
		"date": "2024-03-10", "merchant": "Blue Bottle Cafe", "amount": 6.5,
	})
	require.Equal(t, http.StatusOK, code, body)
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "Food", tx["category"])
	assert.Equal(t, "manual", tx["source"])
	assert.Equal(t, 1222.49, body["summary"].(map[string]interface{})["total_spent_this_month"])

	code, body = do(t, h, http.MethodPut, "/api/datasets/"+id+"/transactions/r1", map[string]interface{}{
		"date": "2024-03-02", "merchant": "Landlord", "amount": 1000,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "r1", body["transaction"].(map[string]interface{})["tx_id"])
	assert.Equal(t, 1022.49, body["summary"].(map[string]interface{})["total_spent_this_month"])

	code, body = do(t, h, http.MethodDelete, "/api/datasets/"+id+"/transactions/n1", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "n1", body["deleted"])
	assert.Equal(t, 0.0, body["summary"].(map[string]interface{})["subscription_monthly_total"])

	code, body = do(t, h, http.MethodDelete, "/api/datasets/"+id+"/transactions/n1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Transaction not found", body["error"])

	code, body = do(t, h, http.MethodPut, "/api/datasets/"+id+"/goals", map[string]interface{}{"savings_goal": 300})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"savings_goal": 300.0}, body["goals"])

	code, body = do(t, h, http.MethodPost, "/api/datasets/"+id+"/coach", map[string]interface{}{"question": "How can I save?"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["dataset_id"])
	assert.Equal(t, coach.SourceRules, body["source"])
	assert.NotEmpty(t, body["summary_text"])
	assert.NotEmpty(t, body["recommendations"])
}

func TestCalendarEventsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	_, body := do(t, h, http.MethodPost, "/api/datasets/manual", manualPayload())
	id := body["dataset_id"].(string)

	code, body := do(t, h, http.MethodGet, "/api/datasets/"+id+"/calendar-events?horizon_days=30", nil)
	require.Equal(t, http.StatusOK, code)
	events := body["events"].([]interface{})
	require.Len(t, events, 2)
	first := events[0].(map[string]interface{})
	assert.Equal(t, "2024-03-31", first["date"])
	assert.Equal(t, "subscription", first["kind"])
	assert.Contains(t, first["google_calendar_url"], "https://calendar.google.com/calendar/render?")

	code, body = do(t, h, http.MethodGet, "/api/datasets/"+id+"/calendar-events?horizon_days=soon", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])
}

func TestUpload(t *testing.T) {
	h, _ := newTestRouter(t)

	csv := []byte("Date,Description,Amount\n2024-03-01,Target,25.00\n2024-03-03,Uber,12.40\n")
	code, body := upload(t, h, "statement.csv", csv)
	require.Equal(t, http.StatusOK, code, body)
	id := body["dataset_id"].(string)

	code, body = do(t, h, http.MethodGet, "/api/datasets/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 37.4, body["total_spent_this_month"])
}

func TestUpload_Errors(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name     string
		filename string
		content  []byte
		want     string
	}{
		{"missing file", "", nil, "Missing file field."},
		{"empty file", "statement.csv", []byte{}, "Uploaded file is empty."},
		{"no date column", "statement.csv", []byte("Merchant,Amount\nTarget,5\n"), "Could not find a date column."},
		{"no valid rows", "statement.csv", []byte("Date,Merchant,Amount\nnot a date,Target,5\n"), "No valid transaction rows found after normalization."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := upload(t, h, tt.filename, tt.content)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestValidationAndNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	code, body := do(t, h, http.MethodGet, "/api/datasets/missing/summary", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Dataset not found", body["error"])

	code, _ = do(t, h, http.MethodPost, "/api/datasets/missing/coach", map[string]interface{}{"question": "hi"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/api/datasets/missing/coach", map[string]interface{}{"question": ""})
	assert.Equal(t, http.StatusNotFound, code)

	_, body = do(t, h, http.MethodPost, "/api/datasets/manual", manualPayload())
	id := body["dataset_id"].(string)

	code, body = do(t, h, http.MethodPost, "/api/datasets/"+id+"/coach", map[string]interface{}{"question": " "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "question is required", body["error"])

	code, body = do(t, h, http.MethodPost, "/api/datasets/"+id+"/transactions", map[string]interface{}{"date": "03/10/2024x", "merchant": "Cafe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "date must be a valid YYYY-MM-DD date", body["error"])

	code, body = do(t, h, http.MethodPost, "/api/datasets/"+id+"/transactions", map[string]interface{}{"date": "2024-03-10"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "merchant is required", body["error"])
}

func TestExportJobsEndpoints(t *testing.T) {
	h, jobs := newTestRouter(t)

	require.NoError(t, jobs.SaveJob(t.Context(), &export.Job{JobID: "j1", DatasetID: "d1", Status: export.JobStatusCompleted, RowsWritten: 4}))

	code, body := do(t, h, http.MethodGet, "/api/export-jobs?dataset_id=d1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	code, body = do(t, h, http.MethodGet, "/api/export-jobs/j1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, 4.0, body["rows_written"])

	code, _ = do(t, h, http.MethodGet, "/api/export-jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
