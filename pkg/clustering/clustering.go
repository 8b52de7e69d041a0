// Package clustering counts four-paths and four-cycles in the bipartite
// variable/clause incidence graph of a SAT instance and derives the
// closed-triad probability 4·cycles/paths.
//
// Everything here is pure computation over freshly allocated structures, so
// independent calls may run concurrently.
package clustering

import (
	"encoding/json"
	"math"
)

// Result is the outcome of one clustering measurement.
type Result struct {
	FourPaths  int64 `json:"four_paths"`
	FourCycles int64 `json:"four_cycles"`
	// ClosedProbability is NaN when FourPaths is zero.
	ClosedProbability float64 `json:"closed_probability"`
}

// ProbabilityDefined reports whether ClosedProbability carries a value.
func (r Result) ProbabilityDefined() bool {
	return r.FourPaths != 0
}

// MarshalJSON encodes an undefined probability as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		FourPaths         int64    `json:"four_paths"`
		FourCycles        int64    `json:"four_cycles"`
		ClosedProbability *float64 `json:"closed_probability"`
	}{FourPaths: r.FourPaths, FourCycles: r.FourCycles}
	if r.ProbabilityDefined() {
		p := r.ClosedProbability
		out.ClosedProbability = &p
	}
	return json.Marshal(out)
}

// Compute builds the adjacency views for n variables and m clauses and measures them.
// Edges are (variable, n+clause) pairs.
func Compute(n, m int, edges [][2]int) (Result, error) {
	adj, err := BuildAdjacency(n, m, edges)
	if err != nil {
		return Result{}, err
	}
	return Measure(adj), nil
}

// Measure computes the clustering statistics of an already built adjacency.
func Measure(adj *Adjacency) Result {
	paths := CountFourPaths(adj)
	cycles := CountFourCycles(adj)
	return Result{
		FourPaths:         paths,
		FourCycles:        cycles,
		ClosedProbability: ClosedProbability(paths, cycles),
	}
}

// ClosedProbability returns 4·cycles/paths, or NaN if paths is zero.
func ClosedProbability(paths, cycles int64) float64 {
	if paths == 0 {
		return math.NaN()
	}
	return 4 * float64(cycles) / float64(paths)
}

// CountFourPaths sums (d_c - 1)·(deg(v) - 1) over every (clause, variable)
// incidence. Paths are counted once per orientation, not deduplicated.
func CountFourPaths(adj *Adjacency) int64 {
	var paths int64
	for _, vars := range adj.ClauseAdj {
		others := int64(len(vars) - 1)
		if others <= 0 {
			continue
		}
		for _, v := range vars {
			paths += others * int64(len(adj.VariableAdj[v])-1)
		}
	}
	return paths
}

// CountFourCyclesByIntersection is the direct definition: for every clause and
// every pair of its variables, add |adj(v1) ∩ adj(v2)| - 1, then halve.
// It is quadratic in clause degree; CountFourCycles returns the same value.
func CountFourCyclesByIntersection(adj *Adjacency) int64 {
	var cycles int64
	for _, vars := range adj.ClauseAdj {
		for i, v1 := range vars {
			for _, v2 := range vars[i+1:] {
				cycles += int64(adj.SharedClauses(v1, v2) - 1)
			}
		}
	}
	return cycles / 2
}

// CountFourCycles counts, for each variable v1, the clauses it shares with every
// v2 > v1 reachable through one of its clauses, and adds C(shared, 2) per pair.
// A pair sharing s clauses is seen in s clauses by the direct definition, each
// time contributing s-1, so both give s(s-1)/2.
func CountFourCycles(adj *Adjacency) int64 {
	shared := make([]int64, adj.NumVariables)
	touched := make([]int, 0, 64)

	var cycles int64
	for v1, clauses := range adj.VariableAdj {
		for _, c := range clauses {
			for _, v2 := range adj.ClauseAdj[c] {
				if v2 <= v1 {
					continue
				}
				if shared[v2] == 0 {
					touched = append(touched, v2)
				}
				shared[v2]++
			}
		}

		for _, v2 := range touched {
			s := shared[v2]
			cycles += s * (s - 1) / 2
			shared[v2] = 0
		}
		touched = touched[:0]
	}
	return cycles
}
