package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
	"github.com/gilchrisn/satgirg-clustering/pkg/girg"
)

// Instance is a generated SAT graph. Clause nodes are indexed from N on, and
// edges use that combined numbering.
type Instance struct {
	Params    Params      `json:"params"`
	Seeds     Seeds       `json:"seeds"`
	Variables []girg.Node `json:"variables"`
	Clauses   []girg.Node `json:"clauses"`
	Edges     [][2]int    `json:"edges"`
}

// Row is one output line of an experiment.
type Row struct {
	Params             Params            `json:"params"`
	EdgeCount          int               `json:"edge_count"`
	VariablesPerClause int               `json:"variables_per_clause"`
	Clustering         clustering.Result `json:"clustering"`
	RuntimeMS          int64             `json:"runtime_ms"`
}

// Generate creates the instance described by p. Clause nodes all have weight 1.
func Generate(ctx context.Context, p Params, logger zerolog.Logger) (*Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seeds := DeriveSeeds(p.Seed)

	weights, err := girg.GenerateWeights(p.N, p.PLE, seeds.Weights)
	if err != nil {
		return nil, fmt.Errorf("variable weights: %w", err)
	}
	varPositions, err := girg.GeneratePositions(p.N, p.Dimension, seeds.Variables)
	if err != nil {
		return nil, fmt.Errorf("variable positions: %w", err)
	}
	variables, err := girg.ConvertToNodes(varPositions, weights, 0)
	if err != nil {
		return nil, fmt.Errorf("variable nodes: %w", err)
	}

	clausePositions, err := girg.GeneratePositions(p.M, p.Dimension, seeds.Clauses)
	if err != nil {
		return nil, fmt.Errorf("clause positions: %w", err)
	}
	pseudoWeights := make([]float64, p.M)
	for i := range pseudoWeights {
		pseudoWeights[i] = 1
	}
	clauses, err := girg.ConvertToNodes(clausePositions, pseudoWeights, len(variables))
	if err != nil {
		return nil, fmt.Errorf("clause nodes: %w", err)
	}

	opts := girg.EdgeOptions{Threads: p.Threads, Bipartite: true, Logger: logger}
	edges, err := girg.GenerateEdges(ctx, clauses, variables, float64(p.K), p.Temperature, seeds.Edges, opts)
	if err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}

	return &Instance{
		Params:    p,
		Seeds:     seeds,
		Variables: variables,
		Clauses:   clauses,
		Edges:     edges,
	}, nil
}

// Measure generates the instance for p and computes its clustering statistics.
func Measure(ctx context.Context, p Params, logger zerolog.Logger) (Row, error) {
	start := time.Now()

	inst, err := Generate(ctx, p, logger)
	if err != nil {
		return Row{}, err
	}

	result, err := clustering.Compute(p.N, p.M, inst.Edges)
	if err != nil {
		return Row{}, fmt.Errorf("clustering: %w", err)
	}

	row := Row{
		Params:             p,
		EdgeCount:          len(inst.Edges),
		VariablesPerClause: len(inst.Edges) / p.M,
		Clustering:         result,
		RuntimeMS:          time.Since(start).Milliseconds(),
	}

	logger.Debug().
		Int("d", p.Dimension).
		Float64("t", p.Temperature).
		Int64("seed", p.Seed).
		Int("edges", row.EdgeCount).
		Int64("four_paths", result.FourPaths).
		Int64("four_cycles", result.FourCycles).
		Int64("runtime_ms", row.RuntimeMS).
		Msg("Run measured")

	return row, nil
}
