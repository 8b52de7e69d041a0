// Package experiment runs the generation pipeline (weights, positions, edges)
// followed by the clustering measurement, and sweeps it over parameter grids.
package experiment

import (
	"fmt"
	"math"
)

// Params fully determines one generation run.
type Params struct {
	Dimension   int     `json:"d"`
	N           int     `json:"n"` // variables
	M           int     `json:"m"` // clauses
	K           int     `json:"k"` // expected variables per clause
	Temperature float64 `json:"t"`
	PLE         float64 `json:"ple"`
	Threads     int     `json:"threads"`
	Seed        int64   `json:"seed"`
	Plot        int     `json:"plot"` // label carried into the output row
}

// ValidationError reports an invalid parameter.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("validation error in field '%s': %s (value: %s)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// Validate checks the parameters a run needs before anything is generated.
func (p Params) Validate() error {
	switch {
	case p.Dimension < 1:
		return ValidationError{Field: "d", Message: "must be at least 1", Value: fmt.Sprint(p.Dimension)}
	case p.N < 1:
		return ValidationError{Field: "n", Message: "must be at least 1", Value: fmt.Sprint(p.N)}
	case p.M < 1:
		return ValidationError{Field: "m", Message: "must be at least 1", Value: fmt.Sprint(p.M)}
	case p.K < 1 || p.K > p.N:
		return ValidationError{Field: "k", Message: "must be in [1, n]", Value: fmt.Sprint(p.K)}
	case !(p.Temperature >= 0) || math.IsInf(p.Temperature, 1):
		return ValidationError{Field: "t", Message: "must be a finite non-negative number", Value: fmt.Sprint(p.Temperature)}
	case !(math.Abs(p.PLE) > 1) || math.IsInf(p.PLE, 0):
		return ValidationError{Field: "ple", Message: "magnitude must be finite and greater than 1", Value: fmt.Sprint(p.PLE)}
	case p.Threads < 1:
		return ValidationError{Field: "threads", Message: "must be at least 1", Value: fmt.Sprint(p.Threads)}
	}
	return nil
}

// Seeds are the sub-seeds of one run.
type Seeds struct {
	Variables int64 `json:"variables"` // non-clause positions
	Clauses   int64 `json:"clauses"`   // clause positions
	Weights   int64 `json:"weights"`
	Edges     int64 `json:"edges"`
}

// DeriveSeeds expands a run seed into its sub-seeds.
func DeriveSeeds(seed int64) Seeds {
	return Seeds{
		Variables: seed + 10000,
		Clauses:   seed + 10001,
		Weights:   seed + 10002,
		Edges:     seed + 100000,
	}
}
