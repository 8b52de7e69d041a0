package girg

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// calibrationClauses is how many clauses are used to fit the kernel scale,
	// reduced so that at most calibrationPairs kernel values are held.
	calibrationClauses = 128
	calibrationPairs   = 1 << 22
	calibrationSteps   = 64
	maxScaleDoublings  = 256
	// clauseChunksPerThread controls work granularity of the sampler pool.
	clauseChunksPerThread = 4
)

// EdgeOptions configures GenerateEdges.
type EdgeOptions struct {
	Threads   int  // worker goroutines, values below 1 mean 1
	Bipartite bool // only the bipartite clause/variable model is supported
	Logger    zerolog.Logger
}

// DefaultEdgeOptions returns single-threaded bipartite sampling without logging.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{Threads: 1, Bipartite: true, Logger: zerolog.Nop()}
}

// kernel maps clause weight, variable weight and distance to a link probability:
//
//	base = scale·w_c·w_v / (W·(2·dist)^D)
//	p    = min(1, base)^(1/T)   for T > 0
//	p    = [base ≥ 1]           for T = 0
type kernel struct {
	dimension   float64
	temperature float64
	totalWeight float64
	scale       float64
}

// base returns the unscaled kernel argument; it is +Inf at distance 0.
func (k kernel) base(wc, wv, dist float64) float64 {
	volume := math.Pow(2*dist, k.dimension)
	if volume == 0 {
		return math.Inf(1)
	}
	return wc * wv / (k.totalWeight * volume)
}

func (k kernel) link(x float64) float64 {
	if x >= 1 {
		return 1
	}
	if k.temperature == 0 || x <= 0 {
		return 0
	}
	return math.Pow(x, 1/k.temperature)
}

func (k kernel) probability(wc, wv, dist float64) float64 {
	return k.link(k.scale * k.base(wc, wv, dist))
}

// calibrate finds the scale for which the mean expected degree over sample
// clauses equals target, by doubling an upper bound and then bisecting.
func (k kernel) calibrate(sample, variables []Node, target float64) float64 {
	bases := make([]float64, 0, len(sample)*len(variables))
	for _, c := range sample {
		for _, v := range variables {
			bases = append(bases, k.base(c.Weight, v.Weight, c.Distance(v)))
		}
	}

	expected := func(scale float64) float64 {
		sum := 0.0
		for _, b := range bases {
			sum += k.link(scale * b)
		}
		return sum / float64(len(sample))
	}

	hi := 1.0
	for i := 0; i < maxScaleDoublings && expected(hi) < target; i++ {
		hi *= 2
	}
	lo := 0.0
	for i := 0; i < calibrationSteps; i++ {
		mid := (lo + hi) / 2
		if expected(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// geometricSkip returns how many candidates to pass over before the next
// success of a Bernoulli(p) sequence, capped at limit.
func geometricSkip(rng *rand.Rand, p float64, limit int) int {
	if p >= 1 {
		return 0
	}
	u := 1 - rng.Float64() // (0, 1]
	skip := math.Floor(math.Log(u) / math.Log1p(-p))
	if skip >= float64(limit) {
		return limit
	}
	return int(skip)
}

type edgeSampler struct {
	kernel kernel
	index  *CellIndex
}

// sampleClause appends the variables linked to clause c. Each cell is scanned
// with geometric jumps at its probability bound and candidates are accepted
// with p/bound, which yields every pair independently with probability p.
func (s *edgeSampler) sampleClause(c Node, rng *rand.Rand, out [][2]int) [][2]int {
	for id := 0; id < s.index.NumCells(); id++ {
		cell := s.index.Cell(id)
		if len(cell) == 0 {
			continue
		}
		bound := s.kernel.probability(c.Weight, s.index.MaxWeight(id), s.index.MinDistance(c.Coord, id))
		if bound <= 0 {
			continue
		}

		for i := geometricSkip(rng, bound, len(cell)); i < len(cell); i += 1 + geometricSkip(rng, bound, len(cell)) {
			v := cell[i]
			p := s.kernel.probability(c.Weight, v.Weight, c.Distance(v))
			if p >= bound || rng.Float64()*bound < p {
				out = append(out, [2]int{v.Index, c.Index})
			}
		}
	}
	return out
}

// GenerateEdges samples bipartite edges between clauses and variables so that
// the expected clause degree is k. Each edge is (variable index, clause index)
// using the nodes' own indices, so clauses built with an offset of n land in
// [n, n+m). Clause i draws from its own generator seeded by (seed, i); the
// result is therefore identical for every thread count.
func GenerateEdges(ctx context.Context, clauses, variables []Node, k, temperature float64, seed int64, opts EdgeOptions) ([][2]int, error) {
	if !opts.Bipartite {
		return nil, badParameter("only bipartite sampling is supported")
	}
	if !(temperature >= 0) || math.IsInf(temperature, 1) {
		return nil, badParameter("temperature t=%v", temperature)
	}
	if !(k > 0) {
		return nil, badParameter("degree k=%v", k)
	}
	if len(clauses) == 0 || len(variables) == 0 {
		return [][2]int{}, nil
	}
	if k > float64(len(variables)) {
		return nil, badParameter("degree k=%v exceeds variable count %d", k, len(variables))
	}

	dimension := variables[0].Dimension()
	if dimension < 1 {
		return nil, badParameter("dimension=%d", dimension)
	}
	totalWeight := 0.0
	for _, v := range variables {
		if v.Dimension() != dimension {
			return nil, badParameter("variable %d has dimension %d, expected %d", v.Index, v.Dimension(), dimension)
		}
		totalWeight += v.Weight
	}
	for _, c := range clauses {
		if c.Dimension() != dimension {
			return nil, badParameter("clause %d has dimension %d, expected %d", c.Index, c.Dimension(), dimension)
		}
	}

	threads := min(max(opts.Threads, 1), len(clauses))
	logger := opts.Logger
	start := time.Now()

	kern := kernel{dimension: float64(dimension), temperature: temperature, totalWeight: totalWeight}
	sampleSize := max(min(len(clauses), calibrationClauses, calibrationPairs/len(variables)), 1)
	kern.scale = kern.calibrate(clauses[:sampleSize], variables, k)

	sampler := &edgeSampler{
		kernel: kern,
		index:  NewCellIndex(variables, dimension, CellsPerDimension(len(variables), dimension)),
	}

	logger.Debug().
		Int("dimension", dimension).
		Float64("k", k).
		Float64("temperature", temperature).
		Float64("scale", kern.scale).
		Int("cells", sampler.index.NumCells()).
		Dur("calibration", time.Since(start)).
		Msg("Kernel calibrated")

	numChunks := min(len(clauses), threads*clauseChunksPerThread)
	chunkSize := (len(clauses) + numChunks - 1) / numChunks
	chunks := make([][][2]int, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for ci := 0; ci < numChunks; ci++ {
		lo := ci * chunkSize
		hi := min(lo+chunkSize, len(clauses))
		g.Go(func() error {
			var out [][2]int
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := rand.New(rand.NewPCG(uint64(seed), uint64(i)))
				out = sampler.sampleClause(clauses[i], rng, out)
			}
			chunks[ci] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	edges := make([][2]int, 0, total)
	for _, chunk := range chunks {
		edges = append(edges, chunk...)
	}

	logger.Debug().
		Int("clauses", len(clauses)).
		Int("variables", len(variables)).
		Int("edges", len(edges)).
		Int("threads", threads).
		Dur("elapsed", time.Since(start)).
		Msg("Edges sampled")

	return edges, nil
}
