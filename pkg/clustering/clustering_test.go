package clustering

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomBipartite links each (variable, clause) pair with probability p and
// returns the edges shuffled, clauses in combined numbering.
func randomBipartite(rng *rand.Rand, n, m int, p float64) [][2]int {
	var edges [][2]int
	for v := 0; v < n; v++ {
		for c := 0; c < m; c++ {
			if rng.Float64() < p {
				edges = append(edges, [2]int{v, n + c})
			}
		}
	}
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
	return edges
}

func completeBipartite(a, b int) [][2]int {
	edges := make([][2]int, 0, a*b)
	for c := 0; c < b; c++ {
		for v := 0; v < a; v++ {
			edges = append(edges, [2]int{v, a + c})
		}
	}
	return edges
}

func TestComputeSmallGraphs(t *testing.T) {
	tests := []struct {
		name        string
		n, m        int
		edges       [][2]int
		paths       int64
		cycles      int64
		probability float64 // NaN means undefined
	}{
		{name: "no nodes", n: 0, m: 0, paths: 0, cycles: 0, probability: math.NaN()},
		{name: "no clauses", n: 4, m: 0, paths: 0, cycles: 0, probability: math.NaN()},
		{name: "no edges", n: 3, m: 2, paths: 0, cycles: 0, probability: math.NaN()},
		{
			name:  "single clause star",
			n:     3,
			m:     1,
			edges: [][2]int{{0, 3}, {1, 3}, {2, 3}},
			paths: 0, cycles: 0, probability: math.NaN(),
		},
		{
			name:  "open path",
			n:     3,
			m:     2,
			edges: [][2]int{{0, 3}, {1, 3}, {1, 4}, {2, 4}},
			paths: 2, cycles: 0, probability: 0,
		},
		{
			name:  "two clauses sharing two variables",
			n:     2,
			m:     2,
			edges: [][2]int{{0, 2}, {1, 2}, {0, 3}, {1, 3}},
			paths: 4, cycles: 1, probability: 1,
		},
		{
			name:  "complete K3,4",
			n:     3,
			m:     4,
			edges: completeBipartite(3, 4),
			paths: 72, cycles: 18, probability: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compute(tt.n, tt.m, tt.edges)
			require.NoError(t, err)

			assert.Equal(t, tt.paths, result.FourPaths)
			assert.Equal(t, tt.cycles, result.FourCycles)
			if math.IsNaN(tt.probability) {
				assert.True(t, math.IsNaN(result.ClosedProbability), "expected NaN, got %v", result.ClosedProbability)
				assert.False(t, result.ProbabilityDefined())
			} else {
				assert.True(t, result.ProbabilityDefined())
				assert.InDelta(t, tt.probability, result.ClosedProbability, 1e-12)
			}
		})
	}
}

func TestComputeRejectsOutOfRangeEdges(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int
		bad   int
	}{
		{name: "negative variable", edges: [][2]int{{0, 2}, {-1, 2}}, bad: 1},
		{name: "variable equals n", edges: [][2]int{{2, 3}}, bad: 0},
		{name: "clause below offset", edges: [][2]int{{0, 2}, {1, 3}, {0, 1}}, bad: 2},
		{name: "clause past end", edges: [][2]int{{0, 4}}, bad: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(2, 2, tt.edges)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInputRange))

			var rangeErr *InputRangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, tt.bad, rangeErr.Edge)
			assert.Equal(t, 2, rangeErr.N)
			assert.Equal(t, 2, rangeErr.M)
		})
	}
}

func TestBuildAdjacencyRejectsNegativeCounts(t *testing.T) {
	_, err := BuildAdjacency(-1, 3, nil)
	assert.Error(t, err)
}

func TestDuplicateEdgesCollapse(t *testing.T) {
	edges := [][2]int{{0, 2}, {1, 2}, {0, 3}, {0, 2}, {1, 3}, {1, 3}}

	adj, err := BuildAdjacency(2, 2, edges)
	require.NoError(t, err)
	require.NoError(t, adj.CheckTranspose())
	assert.Equal(t, 4, adj.NumEdges())

	result := Measure(adj)
	assert.Equal(t, Result{FourPaths: 4, FourCycles: 1, ClosedProbability: 1}, result)
}

func TestAdjacencyViews(t *testing.T) {
	edges := [][2]int{{2, 5}, {0, 4}, {2, 3}, {1, 4}, {2, 4}}
	adj, err := BuildAdjacency(3, 3, edges)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1}, {1}, {0, 1, 2}}, adj.VariableAdj)
	assert.Equal(t, [][]int{{2}, {0, 1, 2}, {2}}, adj.ClauseAdj)
	assert.Equal(t, 3, adj.VariableDegree(2))
	assert.Equal(t, 3, adj.ClauseDegree(1))
	assert.Equal(t, 1, adj.SharedClauses(0, 2))
	assert.Equal(t, 1, adj.SharedClauses(0, 1))
}

func TestCheckTransposeDetectsCorruption(t *testing.T) {
	adj, err := BuildAdjacency(2, 2, [][2]int{{0, 2}, {1, 2}, {0, 3}})
	require.NoError(t, err)
	require.NoError(t, adj.CheckTranspose())

	adj.ClauseAdj[1] = append(adj.ClauseAdj[1], 1)
	assert.Error(t, adj.CheckTranspose())
}

func TestRandomGraphProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		n := rng.IntN(25)
		m := rng.IntN(25)
		p := rng.Float64() * 0.6
		edges := randomBipartite(rng, n, m, p)

		t.Run(fmt.Sprintf("graph_%d_n%d_m%d", i, n, m), func(t *testing.T) {
			adj, err := BuildAdjacency(n, m, edges)
			require.NoError(t, err)
			require.NoError(t, adj.CheckTranspose())
			assert.Equal(t, len(edges), adj.NumEdges())

			direct := CountFourCyclesByIntersection(adj)
			assert.Equal(t, direct, CountFourCycles(adj), "counting accumulation")
			assert.Equal(t, direct, MatrixCycles(adj), "shared-clause matrix")

			result := Measure(adj)
			assert.GreaterOrEqual(t, result.FourPaths, int64(0))
			assert.GreaterOrEqual(t, result.FourCycles, int64(0))
			if result.FourPaths == 0 {
				assert.True(t, math.IsNaN(result.ClosedProbability))
			}
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	edges := randomBipartite(rng, 40, 60, 0.1)

	first, err := Compute(40, 60, edges)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Compute(40, 60, edges)
		require.NoError(t, err)
		assert.Equal(t, first.FourPaths, again.FourPaths)
		assert.Equal(t, first.FourCycles, again.FourCycles)
		assert.Equal(t, math.Float64bits(first.ClosedProbability), math.Float64bits(again.ClosedProbability))
	}
}

func TestComputeConcurrentCalls(t *testing.T) {
	rng := rand.New(rand.NewPCG(19, 23))
	edges := randomBipartite(rng, 50, 80, 0.08)

	want, err := Compute(50, 80, edges)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = Compute(50, 80, edges)
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.FourPaths, results[i].FourPaths)
		assert.Equal(t, want.FourCycles, results[i].FourCycles)
	}
}

func TestResultJSON(t *testing.T) {
	data, err := json.Marshal(Result{FourPaths: 4, FourCycles: 1, ClosedProbability: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"four_paths":4,"four_cycles":1,"closed_probability":1}`, string(data))

	data, err = json.Marshal(Result{ClosedProbability: math.NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"four_paths":0,"four_cycles":0,"closed_probability":null}`, string(data))
}

func TestClosedProbability(t *testing.T) {
	assert.True(t, math.IsNaN(ClosedProbability(0, 0)))
	assert.Equal(t, 0.5, ClosedProbability(8, 1))
}
