package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/hgtmatch/logger"
	"github.com/yumyai/hgtmatch/pkg/db"
	"github.com/yumyai/hgtmatch/pkg/model"
	"github.com/yumyai/hgtmatch/pkg/render"
)

// ListRuns returns every stored run, newest first.
func (dbctx *DBContext) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := dbctx.Results.Runs(r.Context())
	if err != nil {
		logger.Error("Fail to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "fail to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// RunCutoffs returns the group pair cutoff table of a run.
func (dbctx *DBContext) RunCutoffs(w http.ResponseWriter, r *http.Request) {
	runID, ok := dbctx.requireRun(w, r)
	if !ok {
		return
	}

	cutoffs, err := dbctx.Results.Cutoffs(r.Context(), runID)
	if err != nil {
		logger.Error("Fail to read cutoffs", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "fail to read cutoffs")
		return
	}
	if cutoffs == nil {
		cutoffs = []model.PairThreshold{}
	}
	writeJSON(w, http.StatusOK, cutoffs)
}

// RunCandidates returns the annotated candidates of a run. An optional
// ?category= keeps only one match category.
func (dbctx *DBContext) RunCandidates(w http.ResponseWriter, r *http.Request) {
	runID, ok := dbctx.requireRun(w, r)
	if !ok {
		return
	}

	var only model.MatchCategory
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, err := model.ParseMatchCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		only = c
	}

	candidates, err := dbctx.Results.Candidates(r.Context(), runID)
	if err != nil {
		logger.Error("Fail to read candidates", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "fail to read candidates")
		return
	}

	out := make([]*model.AnnotatedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if only == "" || c.Category == only {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// MainPage renders the candidate table of the latest run.
func (dbctx *DBContext) MainPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	run, err := dbctx.Results.LatestRun(ctx)
	if errors.Is(err, db.ErrRunNotFound) {
		if err := render.RenderCandidatePage(w, nil, nil, nil); err != nil {
			logger.Error("Fail to render page", zap.Error(err))
		}
		return
	}
	if err != nil {
		logger.Error("Fail to read latest run", zap.Error(err))
		http.Error(w, "fail to read latest run", http.StatusInternalServerError)
		return
	}

	cutoffs, err := dbctx.Results.Cutoffs(ctx, run.RunID)
	if err != nil {
		http.Error(w, "fail to read cutoffs", http.StatusInternalServerError)
		return
	}
	candidates, err := dbctx.Results.Candidates(ctx, run.RunID)
	if err != nil {
		http.Error(w, "fail to read candidates", http.StatusInternalServerError)
		return
	}

	if err := render.RenderCandidatePage(w, &run, cutoffs, candidates); err != nil {
		logger.Error("Fail to render page", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

// requireRun writes 404 when the {run_id} path value is unknown.
func (dbctx *DBContext) requireRun(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID := r.PathValue("run_id")
	if _, err := dbctx.Results.Run(r.Context(), runID); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			logger.Error("Fail to read run", zap.String("run_id", runID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "fail to read run")
		}
		return "", false
	}
	return runID, true
}
