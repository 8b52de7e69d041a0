package experiment

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func smallParams() Params {
	return Params{Dimension: 2, N: 80, M: 160, K: 3, Temperature: 0.5, PLE: 2.5, Threads: 1, Seed: 1, Plot: 2}
}

func TestDeriveSeeds(t *testing.T) {
	assert.Equal(t, Seeds{Variables: 10007, Clauses: 10008, Weights: 10009, Edges: 100007}, DeriveSeeds(7))
	assert.Equal(t, DeriveSeeds(7), DeriveSeeds(7))
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, smallParams().Validate())

	tests := []struct {
		field  string
		mutate func(p *Params)
	}{
		{"d", func(p *Params) { p.Dimension = 0 }},
		{"n", func(p *Params) { p.N = 0 }},
		{"m", func(p *Params) { p.M = 0 }},
		{"k", func(p *Params) { p.K = 0 }},
		{"k", func(p *Params) { p.K = p.N + 1 }},
		{"t", func(p *Params) { p.Temperature = -1 }},
		{"t", func(p *Params) { p.Temperature = math.NaN() }},
		{"ple", func(p *Params) { p.PLE = 1 }},
		{"threads", func(p *Params) { p.Threads = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p := smallParams()
			tt.mutate(&p)

			var ve ValidationError
			require.True(t, errors.As(p.Validate(), &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	p := smallParams()

	first, err := Generate(ctx, p, logger)
	require.NoError(t, err)
	second, err := Generate(ctx, p, logger)
	require.NoError(t, err)
	assert.Equal(t, first.Edges, second.Edges)
	assert.Equal(t, DeriveSeeds(p.Seed), first.Seeds)

	p.Threads = 3
	threaded, err := Generate(ctx, p, logger)
	require.NoError(t, err)
	assert.Equal(t, first.Edges, threaded.Edges)

	p.Seed = 2
	other, err := Generate(ctx, p, logger)
	require.NoError(t, err)
	assert.NotEqual(t, first.Edges, other.Edges)
}

func TestGenerateInstanceLayout(t *testing.T) {
	p := smallParams()
	inst, err := Generate(context.Background(), p, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, inst.Variables, p.N)
	require.Len(t, inst.Clauses, p.M)
	for i, c := range inst.Clauses {
		assert.Equal(t, p.N+i, c.Index)
		assert.Equal(t, 1.0, c.Weight)
	}

	adj, err := clustering.BuildAdjacency(p.N, p.M, inst.Edges)
	require.NoError(t, err)
	require.NoError(t, adj.CheckTranspose())
	assert.Equal(t, clustering.CountFourCyclesByIntersection(adj), clustering.CountFourCycles(adj))
}

func TestMeasure(t *testing.T) {
	p := smallParams()
	row, err := Measure(context.Background(), p, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, p, row.Params)
	assert.Equal(t, row.EdgeCount/p.M, row.VariablesPerClause)

	again, err := Measure(context.Background(), p, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, row.EdgeCount, again.EdgeCount)
	assert.Equal(t, row.Clustering.FourPaths, again.Clustering.FourPaths)
	assert.Equal(t, row.Clustering.FourCycles, again.Clustering.FourCycles)

	_, err = Measure(context.Background(), Params{}, zerolog.Nop())
	var ve ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestGridParams(t *testing.T) {
	grid := Grid{
		Base:         smallParams(),
		Dimensions:   []int{1, 2},
		Temperatures: []float64{0.2, 0.4, 0.6},
		Reps:         2,
		Seed:         10,
	}
	params := grid.Params()
	require.Len(t, params, grid.Runs())
	require.Equal(t, 12, grid.Runs())

	for i, p := range params {
		assert.Equal(t, int64(11+i), p.Seed)
	}
	assert.Equal(t, 1, params[0].Dimension)
	assert.Equal(t, 0.2, params[0].Temperature)
	assert.Equal(t, 0.2, params[1].Temperature)
	assert.Equal(t, 0.4, params[2].Temperature)
	assert.Equal(t, 2, params[6].Dimension)
	assert.Equal(t, smallParams().N, params[11].N)
}

func TestSweep(t *testing.T) {
	grid := Grid{
		Base:         smallParams(),
		Dimensions:   []int{1, 3},
		Temperatures: []float64{0.3, 0.9},
		Reps:         2,
	}

	var rows []Row
	err := Sweep(context.Background(), grid, zerolog.Nop(), func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 8)
	for i, row := range rows {
		assert.Equal(t, int64(i+1), row.Params.Seed)
	}
}

func TestSweepStopsOnFirstFailure(t *testing.T) {
	grid := Grid{Base: smallParams(), Dimensions: []int{1}, Temperatures: []float64{0.5}, Reps: 5}

	calls := 0
	stop := errors.New("disk full")
	err := Sweep(context.Background(), grid, zerolog.Nop(), func(Row) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)

	bad := grid
	bad.Base.K = 0
	calls = 0
	err = Sweep(context.Background(), bad, zerolog.Nop(), func(Row) error { calls++; return nil })
	assert.Error(t, err)
	assert.Zero(t, calls)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := Grid{Base: smallParams(), Dimensions: []int{1}, Temperatures: []float64{0.5}, Reps: 1}
	err := Sweep(ctx, grid, zerolog.Nop(), func(Row) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRowWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRowWriter(&buf)
	require.NoError(t, rw.WriteHeader())

	row := Row{
		Params:             Params{Dimension: 2, N: 1000, M: 4000, K: 3, Temperature: 0.1, PLE: 2.5, Threads: 1, Seed: 7, Plot: 2},
		EdgeCount:          12001,
		VariablesPerClause: 3,
		Clustering:         clustering.Result{FourPaths: 300, FourCycles: 25, ClosedProbability: 1.0 / 3},
	}
	require.NoError(t, rw.Write(row))

	undefined := row
	undefined.Clustering = clustering.Result{ClosedProbability: math.NaN()}
	require.NoError(t, rw.Write(undefined))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "d,n,m,k,t,ple,threads,seed,plot,edgeCount,variablesPerClause,fourPaths,fourCycles,closedProbability", lines[0])
	assert.Equal(t, "2,1000,4000,3,0.1,2.5,1,7,2,12001,3,300,25,0.333333", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",0,0,nan"), lines[2])
}

func TestSummarize(t *testing.T) {
	mk := func(d int, temp float64, edges int, prob float64, paths int64) Row {
		return Row{
			Params:     Params{Dimension: d, Temperature: temp},
			EdgeCount:  edges,
			Clustering: clustering.Result{FourPaths: paths, ClosedProbability: prob},
		}
	}
	rows := []Row{
		mk(1, 0.5, 10, 0.6, 5),
		mk(1, 0.5, 20, 0.2, 5),
		mk(2, 0.5, 30, math.NaN(), 0),
		mk(1, 0.5, 30, 0.4, 5),
	}

	summaries := Summarize(rows)
	require.Len(t, summaries, 2)

	first := summaries[0]
	assert.Equal(t, 1, first.Dimension)
	assert.Equal(t, 3, first.Runs)
	assert.Equal(t, 3, first.Defined)
	assert.InDelta(t, 20.0, first.MeanEdgeCount, 1e-12)
	assert.InDelta(t, 0.4, first.MeanProb, 1e-12)
	assert.InDelta(t, 0.2, first.StdDevProb, 1e-12)
	assert.InDelta(t, 0.4, first.MedianProb, 1e-12)

	second := summaries[1]
	assert.Equal(t, 2, second.Dimension)
	assert.Equal(t, 0, second.Defined)
	assert.True(t, math.IsNaN(second.MeanProb))

	var buf bytes.Buffer
	require.NoError(t, NewRowWriter(&buf).WriteSummaries(summaries))
	assert.True(t, strings.HasPrefix(buf.String(), "d,t,runs,defined,"))
}
