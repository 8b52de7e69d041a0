package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
	"github.com/gilchrisn/satgirg-clustering/pkg/experiment"
)

const (
	maxBodyBytes = 64 << 20
	// maxRunDimension and maxRunThreads bound generated runs alongside the node limit.
	maxRunDimension = 32
	maxRunThreads   = 256
	// runIDHeader carries the ID of a stored run.
	runIDHeader = "X-Run-ID"
)

// ClusteringRequest is a bipartite graph given by its edge list; clause
// endpoints use the combined numbering [n, n+m).
type ClusteringRequest struct {
	N     int      `json:"n"`
	M     int      `json:"m"`
	Edges [][2]int `json:"edges"`
}

// Handlers contains HTTP request handlers
type Handlers struct {
	runService *RunService
	maxNodes   int
	startedAt  time.Time
}

// NewHandlers creates new API handlers. maxNodes bounds n+m of submitted
// graphs and generated runs.
func NewHandlers(runService *RunService, maxNodes int) *Handlers {
	return &Handlers{runService: runService, maxNodes: maxNodes, startedAt: time.Now()}
}

// withinNodeLimit reports whether 0 <= n, 0 <= m and n+m <= limit, without
// overflowing.
func withinNodeLimit(n, m, limit int) bool {
	return n >= 0 && m >= 0 && n <= limit && m <= limit-n
}

// ComputeClustering measures a posted graph.
func (h *Handlers) ComputeClustering(w http.ResponseWriter, r *http.Request) {
	var req ClusteringRequest
	if err := decodeBody(w, r, &req); err != nil {
		clusteringRequests.WithLabelValues("bad_request").Inc()
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !withinNodeLimit(req.N, req.M, h.maxNodes) {
		clusteringRequests.WithLabelValues("bad_request").Inc()
		WriteValidationErrorResponse(w, "Invalid graph size", map[string]string{
			"n": fmt.Sprintf("n and m must be non-negative with n+m <= %d", h.maxNodes),
		})
		return
	}

	result, err := clustering.Compute(req.N, req.M, req.Edges)
	if err != nil {
		clusteringRequests.WithLabelValues("bad_request").Inc()
		var rangeErr *clustering.InputRangeError
		if errors.As(err, &rangeErr) {
			WriteValidationErrorResponse(w, "Edge index out of range", map[string]string{
				fmt.Sprintf("edges[%d]", rangeErr.Edge): rangeErr.Error(),
			})
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid graph", err)
		return
	}

	clusteringRequests.WithLabelValues("ok").Inc()
	clusteringEdges.Observe(float64(len(req.Edges)))
	log.Debug().
		Int("n", req.N).
		Int("m", req.M).
		Int("edges", len(req.Edges)).
		Int64("four_paths", result.FourPaths).
		Int64("four_cycles", result.FourCycles).
		Msg("Clustering computed")

	WriteSuccessResponse(w, "Clustering computed", result)
}

// CreateRun generates and measures one instance.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	params := experiment.Params{Threads: 1}
	if err := decodeBody(w, r, &params); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if errs := h.runLimits(params); len(errs) > 0 {
		WriteValidationErrorResponse(w, "Run exceeds server limits", errs)
		return
	}

	run, err := h.runService.Execute(r.Context(), params)
	if run != nil {
		w.Header().Set(runIDHeader, run.ID)
	}
	if err != nil {
		var ve experiment.ValidationError
		if errors.As(err, &ve) {
			WriteValidationErrorResponse(w, "Invalid run parameters", map[string]string{ve.Field: ve.Error()})
			return
		}
		if run == nil {
			WriteErrorResponse(w, http.StatusServiceUnavailable, "Run was not started", err)
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, "Run failed", err)
		return
	}

	WriteSuccessResponse(w, "Run completed", run)
}

// runLimits checks the sizes a server accepts to generate. Negative values are
// left to Params.Validate.
func (h *Handlers) runLimits(p experiment.Params) map[string]string {
	errs := make(map[string]string)
	if p.N >= 0 && p.M >= 0 && !withinNodeLimit(p.N, p.M, h.maxNodes) {
		errs["n"] = fmt.Sprintf("n+m must be at most %d", h.maxNodes)
	}
	if p.Dimension > maxRunDimension {
		errs["d"] = fmt.Sprintf("must be at most %d", maxRunDimension)
	}
	if p.Threads > maxRunThreads {
		errs["threads"] = fmt.Sprintf("must be at most %d", maxRunThreads)
	}
	return errs
}

// GetRun retrieves a stored run
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	if _, err := uuid.Parse(runID); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid run ID", err)
		return
	}

	run, err := h.runService.Get(runID)
	if err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "Run not found", err)
		return
	}
	WriteSuccessResponse(w, "Run retrieved successfully", run)
}

// ListRuns lists the stored runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Runs retrieved successfully", h.runService.List())
}

// HealthCheck returns server health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}
	WriteSuccessResponse(w, "Service is healthy", health)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}
