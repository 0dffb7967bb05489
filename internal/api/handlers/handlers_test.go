package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/moneymagic/internal/calendar"
	"github.com/dvloznov/moneymagic/internal/coach"
	"github.com/dvloznov/moneymagic/internal/datasets"
	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/pipeline"
	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// stubDatasets fails every call with err.
type stubDatasets struct {
	err error
}

func (s stubDatasets) CreateFromUpload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	return "", s.err
}

func (s stubDatasets) CreateManual(ctx context.Context, in datasets.ManualInput) (string, error) {
	return "", s.err
}

func (s stubDatasets) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	return nil, s.err
}

func (s stubDatasets) Transactions(ctx context.Context, id string) ([]domain.Transaction, error) {
	return nil, s.err
}

func (s stubDatasets) AddTransaction(ctx context.Context, id string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error) {
	return domain.Transaction{}, nil, s.err
}

func (s stubDatasets) UpdateTransaction(ctx context.Context, id, txID string, rec pipeline.Record) (domain.Transaction, *domain.Dataset, error) {
	return domain.Transaction{}, nil, s.err
}

func (s stubDatasets) DeleteTransaction(ctx context.Context, id, txID string) (*domain.Dataset, error) {
	return nil, s.err
}

func (s stubDatasets) SetGoals(ctx context.Context, id string, goals domain.Goals) (domain.Goals, error) {
	return domain.Goals{}, s.err
}

func (s stubDatasets) Coach(ctx context.Context, id, question string) (coach.Response, error) {
	return coach.Response{}, s.err
}

func (s stubDatasets) CalendarEvents(ctx context.Context, id string, horizonDays int) ([]calendar.Event, error) {
	return nil, s.err
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", fmt.Errorf("Get: load dataset x: %w", store.ErrNotFound), http.StatusNotFound, `{"error":"Dataset not found"}`},
		{"tx not found", fmt.Errorf("DeleteTransaction: t1: %w", datasets.ErrTransactionNotFound), http.StatusNotFound, `{"error":"Transaction not found"}`},
		{"validation", &datasets.ValidationError{Msg: "merchant is required"}, http.StatusBadRequest, `{"error":"merchant is required"}`},
		{"internal", errors.New("bucket unreachable"), http.StatusInternalServerError, `{"error":"Failed to load dataset"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := NewDatasetsHandler(stubDatasets{err: tt.err}, zerolog.New(&logs))

			req := httptest.NewRequest(http.MethodGet, "/api/datasets/x/summary", nil)
			req.SetPathValue("id", "x")
			rec := httptest.NewRecorder()
			h.Summary(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			if tt.status == http.StatusInternalServerError {
				assert.Contains(t, logs.String(), "bucket unreachable")
			}
		})
	}
}

func TestInvalidBodies(t *testing.T) {
	h := NewDatasetsHandler(stubDatasets{}, zerolog.Nop())

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"manual", h.CreateManual},
		{"add transaction", h.AddTransaction},
		{"update transaction", h.UpdateTransaction},
		{"goals", h.SetGoals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
			rec := httptest.NewRecorder()
			tt.handler(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	h := NewDatasetsHandler(stubDatasets{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/upload", strings.NewReader("date,amount"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoach_UnknownDatasetBeforeBodyCheck(t *testing.T) {
	h := NewDatasetsHandler(stubDatasets{err: fmt.Errorf("Get: load dataset x: %w", store.ErrNotFound)}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/x/coach", strings.NewReader("{not json"))
	req.SetPathValue("id", "x")
	rec := httptest.NewRecorder()
	h.Coach(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Dataset not found"}`, rec.Body.String())
}

func TestCoach_MalformedBodyIsMissingQuestion(t *testing.T) {
	h := NewDatasetsHandler(stubDatasets{err: &datasets.ValidationError{Msg: "question is required"}}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/x/coach", strings.NewReader("{not json"))
	req.SetPathValue("id", "x")
	rec := httptest.NewRecorder()
	h.Coach(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"question is required"}`, rec.Body.String())
}
