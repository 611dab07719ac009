package handler

import (
	"net/http"
)

func NewRouter(dbctx *DBContext) *http.ServeMux {
	mux := http.NewServeMux()

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Main routes
	mux.HandleFunc("GET /{$}", dbctx.MainPage)

	// API routes
	mux.HandleFunc("GET /api/v1/health", dbctx.HealthCheck)
	mux.HandleFunc("GET /api/v1/runs", dbctx.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{run_id}/cutoffs", dbctx.RunCutoffs)
	mux.HandleFunc("GET /api/v1/runs/{run_id}/candidates", dbctx.RunCandidates)

	return mux
}
