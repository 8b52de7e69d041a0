package experiment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Grid describes a sweep: every (dimension, temperature) pair is run Reps
// times. Base supplies the remaining parameters; its Dimension, Temperature and
// Seed are overwritten per run.
type Grid struct {
	Base         Params
	Dimensions   []int
	Temperatures []float64
	Reps         int
	// Seed is incremented before every run, so the first run uses Seed+1.
	Seed int64
}

// Runs returns the number of runs the grid produces.
func (g Grid) Runs() int {
	return len(g.Dimensions) * len(g.Temperatures) * max(g.Reps, 0)
}

// Params returns the parameters of every run, in sweep order.
func (g Grid) Params() []Params {
	params := make([]Params, 0, g.Runs())
	seed := g.Seed
	for _, d := range g.Dimensions {
		for _, t := range g.Temperatures {
			for rep := 0; rep < g.Reps; rep++ {
				seed++
				p := g.Base
				p.Dimension = d
				p.Temperature = t
				p.Seed = seed
				params = append(params, p)
			}
		}
	}
	return params
}

// Sweep measures every run of the grid in order and hands each row to emit.
// The first failing run or emit call aborts the sweep; rows already emitted stay
// emitted, the failing run produces none.
func Sweep(ctx context.Context, grid Grid, logger zerolog.Logger, emit func(Row) error) error {
	logger.Info().
		Ints("dimensions", grid.Dimensions).
		Floats64("temperatures", grid.Temperatures).
		Int("reps", grid.Reps).
		Int("runs", grid.Runs()).
		Msg("Starting sweep")

	lastD, lastT := -1, -1.0
	for i, p := range grid.Params() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.Dimension != lastD {
			logger.Info().Int("d", p.Dimension).Msg("Dimension")
			lastD, lastT = p.Dimension, -1
		}
		if p.Temperature != lastT {
			logger.Info().Int("d", p.Dimension).Float64("t", p.Temperature).Msg("Temperature")
			lastT = p.Temperature
		}
		logger.Debug().Int("rep", i%max(grid.Reps, 1)).Int64("seed", p.Seed).Msg("Repetition")

		row, err := Measure(ctx, p, logger)
		if err != nil {
			return fmt.Errorf("run d=%d t=%g seed=%d: %w", p.Dimension, p.Temperature, p.Seed, err)
		}
		if err := emit(row); err != nil {
			return fmt.Errorf("emit row: %w", err)
		}
	}

	logger.Info().Int("runs", grid.Runs()).Msg("Sweep completed")
	return nil
}
