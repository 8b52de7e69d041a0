package experiment

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the runs of one (dimension, temperature) cell of a sweep.
type Summary struct {
	Dimension   int     `json:"d"`
	Temperature float64 `json:"t"`
	Runs        int     `json:"runs"`
	// Defined counts runs whose closed probability exists.
	Defined       int     `json:"defined"`
	MeanEdgeCount float64 `json:"mean_edge_count"`
	MeanProb      float64 `json:"mean_closed_probability"`
	StdDevProb    float64 `json:"stddev_closed_probability"`
	MedianProb    float64 `json:"median_closed_probability"`
}

// SummaryHeader is the column layout of Summary.Record.
var SummaryHeader = []string{
	"d", "t", "runs", "defined", "meanEdgeCount",
	"meanClosedProbability", "stdDevClosedProbability", "medianClosedProbability",
}

func (s Summary) Record() []string {
	return []string{
		strconv.Itoa(s.Dimension),
		formatFloat(s.Temperature),
		strconv.Itoa(s.Runs),
		strconv.Itoa(s.Defined),
		formatFloat(s.MeanEdgeCount),
		formatFloat(s.MeanProb),
		formatFloat(s.StdDevProb),
		formatFloat(s.MedianProb),
	}
}

type summaryKey struct {
	d int
	t float64
}

// Summarize groups rows by (dimension, temperature) in first-seen order.
// Probability statistics skip runs without a defined probability and are NaN
// when none is left.
func Summarize(rows []Row) []Summary {
	var order []summaryKey
	groups := make(map[summaryKey][]Row)
	for _, row := range rows {
		key := summaryKey{d: row.Params.Dimension, t: row.Params.Temperature}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	summaries := make([]Summary, 0, len(order))
	for _, key := range order {
		group := groups[key]

		edgeCounts := make([]float64, len(group))
		var probs []float64
		for i, row := range group {
			edgeCounts[i] = float64(row.EdgeCount)
			if row.Clustering.ProbabilityDefined() {
				probs = append(probs, row.Clustering.ClosedProbability)
			}
		}

		s := Summary{
			Dimension:     key.d,
			Temperature:   key.t,
			Runs:          len(group),
			Defined:       len(probs),
			MeanEdgeCount: stat.Mean(edgeCounts, nil),
			MeanProb:      math.NaN(),
			StdDevProb:    math.NaN(),
			MedianProb:    math.NaN(),
		}
		if len(probs) > 0 {
			sort.Float64s(probs)
			s.MeanProb = stat.Mean(probs, nil)
			s.StdDevProb = 0
			if len(probs) > 1 {
				s.StdDevProb = stat.StdDev(probs, nil)
			}
			s.MedianProb = stat.Quantile(0.5, stat.Empirical, probs, nil)
		}
		summaries = append(summaries, s)
	}
	return summaries
}
