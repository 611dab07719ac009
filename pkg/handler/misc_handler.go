// Handler for miscellaneous endpoints such as health check

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/hgtmatch/logger"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (dbctx *DBContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Database:  "ok",
		Timestamp: time.Now(),
	}

	status := http.StatusOK
	if err := dbctx.Results.Ping(r.Context()); err != nil {
		logger.Warn("Result database unreachable", zap.Error(err))
		response.Health = "degraded"
		response.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Fail to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
