package girg

import "math"

// nodesPerCell is the average cell occupancy the grid aims for.
const nodesPerCell = 4.0

// CellIndex buckets nodes into a uniform grid of cellsPerDim^D cells over the
// torus. For every cell it keeps the largest weight, which together with
// MinDistance bounds the link probability of every node in the cell.
type CellIndex struct {
	dimension   int
	cellsPerDim int
	cells       [][]Node
	maxWeight   []float64
	lower       [][]float64 // lower[id][d] = lower corner of cell id in dimension d
}

// CellsPerDimension picks a grid resolution giving about nodesPerCell nodes per cell.
func CellsPerDimension(count, dimension int) int {
	target := float64(count) / nodesPerCell
	if target <= 1 || dimension < 1 {
		return 1
	}
	return max(int(math.Floor(math.Pow(target, 1/float64(dimension)))), 1)
}

// NewCellIndex copies nodes into their cells, recording each copy's CellID.
// Within a cell, nodes keep their input order.
func NewCellIndex(nodes []Node, dimension, cellsPerDim int) *CellIndex {
	numCells := 1
	for d := 0; d < dimension; d++ {
		numCells *= cellsPerDim
	}

	ci := &CellIndex{
		dimension:   dimension,
		cellsPerDim: cellsPerDim,
		cells:       make([][]Node, numCells),
		maxWeight:   make([]float64, numCells),
		lower:       make([][]float64, numCells),
	}

	width := 1 / float64(cellsPerDim)
	for id := range ci.lower {
		corner := make([]float64, dimension)
		rest := id
		for d := dimension - 1; d >= 0; d-- {
			corner[d] = float64(rest%cellsPerDim) * width
			rest /= cellsPerDim
		}
		ci.lower[id] = corner
	}

	for _, node := range nodes {
		id := ci.CellOf(node.Coord)
		node.CellID = id
		ci.cells[id] = append(ci.cells[id], node)
		ci.maxWeight[id] = math.Max(ci.maxWeight[id], node.Weight)
	}
	return ci
}

// CellOf returns the id of the cell containing coord.
func (ci *CellIndex) CellOf(coord []float64) int {
	id := 0
	for d := 0; d < ci.dimension; d++ {
		x := int(coord[d] * float64(ci.cellsPerDim))
		if x >= ci.cellsPerDim {
			x = ci.cellsPerDim - 1
		}
		id = id*ci.cellsPerDim + x
	}
	return id
}

func (ci *CellIndex) NumCells() int            { return len(ci.cells) }
func (ci *CellIndex) Cell(id int) []Node       { return ci.cells[id] }
func (ci *CellIndex) MaxWeight(id int) float64 { return ci.maxWeight[id] }

// MinDistance is a lower bound on the torus distance between coord and any
// point of cell id; it is 0 when coord lies inside the cell.
func (ci *CellIndex) MinDistance(coord []float64, id int) float64 {
	width := 1 / float64(ci.cellsPerDim)
	corner := ci.lower[id]

	result := 0.0
	for d, x := range coord {
		lo := corner[d]
		if x >= lo && x < lo+width {
			continue
		}
		// Outside an arc the nearest arc point is one of its ends.
		dist := math.Min(circularDistance(x, lo), circularDistance(x, lo+width))
		result = math.Max(result, dist)
	}
	return result
}
