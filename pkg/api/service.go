package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/satgirg-clustering/pkg/experiment"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ErrRunNotFound is returned for unknown or evicted run IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored generation run.
type Run struct {
	ID          string            `json:"run_id"`
	Params      experiment.Params `json:"params"`
	Status      RunStatus         `json:"status"`
	Row         *experiment.Row   `json:"row,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// RunService executes runs with bounded concurrency and keeps the most recent
// ones for lookup.
type RunService struct {
	runs      map[string]*Run
	order     []string
	workers   chan struct{}
	maxStored int
	mutex     sync.RWMutex
}

// NewRunService creates a service running at most maxConcurrent runs at once
// and remembering at most maxStored of them.
func NewRunService(maxConcurrent, maxStored int) *RunService {
	return &RunService{
		runs:      make(map[string]*Run),
		workers:   make(chan struct{}, max(maxConcurrent, 1)),
		maxStored: max(maxStored, 1),
	}
}

// Execute validates params, waits for a worker slot and measures the run.
// Invalid parameters return the validation error without storing anything;
// a run that fails after starting is stored with status failed.
func (s *RunService) Execute(ctx context.Context, params experiment.Params) (*Run, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for worker: %w", ctx.Err())
	}
	runsInFlight.Inc()
	defer func() {
		<-s.workers
		runsInFlight.Dec()
	}()

	run := &Run{
		ID:        uuid.New().String(),
		Params:    params,
		CreatedAt: time.Now(),
	}

	row, err := experiment.Measure(ctx, params, log.Logger)
	run.CompletedAt = time.Now()
	runDuration.WithLabelValues(strconv.Itoa(params.Dimension)).Observe(run.CompletedAt.Sub(run.CreatedAt).Seconds())

	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		log.Error().Str("run_id", run.ID).Err(err).Msg("Run failed")
	} else {
		run.Status = RunStatusCompleted
		run.Row = &row
		log.Info().
			Str("run_id", run.ID).
			Int("edges", row.EdgeCount).
			Int64("four_paths", row.Clustering.FourPaths).
			Int64("four_cycles", row.Clustering.FourCycles).
			Msg("Run completed")
	}
	runsTotal.WithLabelValues(string(run.Status)).Inc()

	s.store(run)
	return run, err
}

func (s *RunService) store(run *Run) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for len(s.order) > s.maxStored {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

// Get retrieves a run by ID
func (s *RunService) Get(runID string) (*Run, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// List returns the stored runs, oldest first.
func (s *RunService) List() []*Run {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	runs := make([]*Run, 0, len(s.order))
	for _, id := range s.order {
		runs = append(runs, s.runs[id])
	}
	return runs
}
