package girg

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Stream identifiers keep weight and position draws independent even when the
// caller passes the same seed to both.
const (
	weightStream   uint64 = 0x5741
	positionStream uint64 = 0x504f
)

func newSource(seed int64, stream uint64) rand.Source {
	return rand.NewPCG(uint64(seed), stream)
}

// GenerateWeights draws n weights from a power law with exponent |ple|, i.e.
// P(w) ∝ w^-|ple| for w ≥ 1. The exponent must exceed 1.
func GenerateWeights(n int, ple float64, seed int64) ([]float64, error) {
	if n < 0 {
		return nil, badParameter("weight count n=%d", n)
	}
	exponent := math.Abs(ple)
	if !(exponent > 1) || math.IsInf(exponent, 1) {
		return nil, badParameter("power-law exponent ple=%v (|ple| must be > 1)", ple)
	}

	pareto := distuv.Pareto{Xm: 1, Alpha: exponent - 1, Src: newSource(seed, weightStream)}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = pareto.Rand()
	}
	return weights, nil
}

// GeneratePositions draws count points uniformly from [0,1)^dimension.
func GeneratePositions(count, dimension int, seed int64) ([][]float64, error) {
	if count < 0 {
		return nil, badParameter("position count=%d", count)
	}
	if dimension < 1 {
		return nil, badParameter("dimension=%d", dimension)
	}

	uniform := distuv.Uniform{Min: 0, Max: 1, Src: newSource(seed, positionStream)}
	positions := make([][]float64, count)
	for i := range positions {
		pos := make([]float64, dimension)
		for d := range pos {
			pos[d] = uniform.Rand()
		}
		positions[i] = pos
	}
	return positions, nil
}
