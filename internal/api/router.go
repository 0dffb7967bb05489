package api

import (
	"net/http"

	"github.com/dvloznov/moneymagic/internal/api/handlers"
	"github.com/dvloznov/moneymagic/internal/api/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds what the router needs to mount every endpoint.
// Jobs is optional; export job endpoints are only mounted when it is set.
type RouterConfig struct {
	Datasets    *handlers.DatasetsHandler
	Jobs        *handlers.JobsHandler
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter builds the HTTP handler with the full middleware chain applied.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health)

	d := cfg.Datasets
	mux.HandleFunc("POST /api/datasets/upload", d.Upload)
	mux.HandleFunc("POST /api/datasets/manual", d.CreateManual)
	mux.HandleFunc("GET /api/datasets/{id}/summary", d.Summary)
	mux.HandleFunc("GET /api/datasets/{id}/subscriptions", d.Subscriptions)
	mux.HandleFunc("GET /api/datasets/{id}/transactions", d.ListTransactions)
	mux.HandleFunc("POST /api/datasets/{id}/transactions", d.AddTransaction)
	mux.HandleFunc("PUT /api/datasets/{id}/transactions/{tx_id}", d.UpdateTransaction)
	mux.HandleFunc("DELETE /api/datasets/{id}/transactions/{tx_id}", d.DeleteTransaction)
	mux.HandleFunc("PUT /api/datasets/{id}/goals", d.SetGoals)
	mux.HandleFunc("GET /api/datasets/{id}/calendar-events", d.CalendarEvents)
	mux.HandleFunc("POST /api/datasets/{id}/coach", d.Coach)

	if cfg.Jobs != nil {
		mux.HandleFunc("GET /api/export-jobs", cfg.Jobs.ListJobs)
		mux.HandleFunc("GET /api/export-jobs/{id}", cfg.Jobs.GetJob)
	}

	return middleware.Recovery(cfg.Log)(
		middleware.Logger(cfg.Log)(
			middleware.RequestID(
				middleware.CORS(cfg.CORSOrigins)(mux),
			),
		),
	)
}
