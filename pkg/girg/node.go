// Package girg generates the geometric ingredients of a SAT instance: power-law
// variable weights, uniform positions on the unit torus, and a bipartite edge
// set sampled from a distance/weight kernel with a temperature parameter.
package girg

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadParameter is wrapped by every parameter validation error of this package.
var ErrBadParameter = errors.New("girg: bad parameter")

func badParameter(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadParameter, fmt.Sprintf(format, args...))
}

// Node is a weighted point on the D-dimensional unit torus.
type Node struct {
	Coord  []float64 `json:"coord"`   // every coordinate in [0,1)
	Weight float64   `json:"weight"`  // positive
	Index  int       `json:"index"`   // unique across variables and clauses
	CellID int       `json:"cell_id"` // set by CellIndex, 0 otherwise
}

// Equal reports whether both nodes carry the same index.
func (n Node) Equal(other Node) bool {
	return n.Index == other.Index
}

func (n Node) Dimension() int {
	return len(n.Coord)
}

// Distance returns the torus Chebyshev distance to other, always in [0, 0.5].
func (n Node) Distance(other Node) float64 {
	return TorusDistance(n.Coord, other.Coord)
}

// TorusDistance is the L∞ distance on the unit torus: per dimension the shorter
// of the direct and the wrapped difference, maximised over dimensions.
func TorusDistance(a, b []float64) float64 {
	result := 0.0
	for d := range a {
		result = math.Max(result, circularDistance(a[d], b[d]))
	}
	return result
}

func circularDistance(x, y float64) float64 {
	dist := math.Abs(x - y)
	return math.Min(dist, 1-dist)
}

// ConvertToNodes pairs positions with weights. Indices start at indexOffset,
// so clause nodes can be numbered after the variables.
func ConvertToNodes(positions [][]float64, weights []float64, indexOffset int) ([]Node, error) {
	if len(positions) != len(weights) {
		return nil, badParameter("%d positions but %d weights", len(positions), len(weights))
	}
	if indexOffset < 0 {
		return nil, badParameter("index offset %d", indexOffset)
	}

	nodes := make([]Node, len(positions))
	for i, pos := range positions {
		if len(pos) != len(positions[0]) {
			return nil, badParameter("position %d has dimension %d, expected %d", i, len(pos), len(positions[0]))
		}
		for _, x := range pos {
			if !(x >= 0 && x < 1) {
				return nil, badParameter("position %d coordinate %v outside [0,1)", i, x)
			}
		}
		if !(weights[i] > 0) || math.IsInf(weights[i], 1) {
			return nil, badParameter("weight %d must be positive and finite: %v", i, weights[i])
		}

		coord := make([]float64, len(pos))
		copy(coord, pos)
		nodes[i] = Node{Coord: coord, Weight: weights[i], Index: indexOffset + i}
	}
	return nodes, nil
}
