package clustering

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BiadjacencyMatrix returns the n×m 0/1 incidence matrix B of adj.
// It returns nil when either side is empty.
func BiadjacencyMatrix(adj *Adjacency) *mat.Dense {
	if adj.NumVariables == 0 || adj.NumClauses == 0 {
		return nil
	}
	b := mat.NewDense(adj.NumVariables, adj.NumClauses, nil)
	for v, clauses := range adj.VariableAdj {
		for _, c := range clauses {
			b.Set(v, c, 1)
		}
	}
	return b
}

// MatrixCycles counts four-cycles from the shared-clause matrix S = B·Bᵀ as
// Σ_{i<j} C(S_ij, 2). It is dense and meant for cross-checking small graphs.
func MatrixCycles(adj *Adjacency) int64 {
	b := BiadjacencyMatrix(adj)
	if b == nil {
		return 0
	}

	n := adj.NumVariables
	var s mat.Dense
	s.Mul(b, b.T())

	var cycles int64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			shared := int64(math.Round(s.At(i, j)))
			cycles += shared * (shared - 1) / 2
		}
	}
	return cycles
}
