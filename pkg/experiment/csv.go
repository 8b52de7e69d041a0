package experiment

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// Header is the column layout of the experiment CSV.
var Header = []string{
	"d", "n", "m", "k", "t", "ple", "threads", "seed", "plot",
	"edgeCount", "variablesPerClause", "fourPaths", "fourCycles", "closedProbability",
}

// formatFloat prints six significant digits, and "nan" for undefined values.
func formatFloat(x float64) string {
	if math.IsNaN(x) {
		return "nan"
	}
	return strconv.FormatFloat(x, 'g', 6, 64)
}

// Record returns the CSV fields of the row in Header order.
func (r Row) Record() []string {
	p := r.Params
	return []string{
		strconv.Itoa(p.Dimension),
		strconv.Itoa(p.N),
		strconv.Itoa(p.M),
		strconv.Itoa(p.K),
		formatFloat(p.Temperature),
		formatFloat(p.PLE),
		strconv.Itoa(p.Threads),
		strconv.FormatInt(p.Seed, 10),
		strconv.Itoa(p.Plot),
		strconv.Itoa(r.EdgeCount),
		strconv.Itoa(r.VariablesPerClause),
		strconv.FormatInt(r.Clustering.FourPaths, 10),
		strconv.FormatInt(r.Clustering.FourCycles, 10),
		formatFloat(r.Clustering.ClosedProbability),
	}
}

// RowWriter streams rows as CSV, flushing after each one so that rows appear
// as soon as their run finishes.
type RowWriter struct {
	w *csv.Writer
}

// NewRowWriter wraps w in a CSV writer.
func NewRowWriter(w io.Writer) *RowWriter {
	return &RowWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes Header.
func (rw *RowWriter) WriteHeader() error {
	return rw.write(Header)
}

// Write writes one row and flushes it.
func (rw *RowWriter) Write(row Row) error {
	return rw.write(row.Record())
}

func (rw *RowWriter) write(record []string) error {
	if err := rw.w.Write(record); err != nil {
		return err
	}
	rw.w.Flush()
	return rw.w.Error()
}

// WriteSummaries writes SummaryHeader followed by one record per summary.
func (rw *RowWriter) WriteSummaries(summaries []Summary) error {
	if err := rw.write(SummaryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := rw.write(s.Record()); err != nil {
			return err
		}
	}
	return nil
}
