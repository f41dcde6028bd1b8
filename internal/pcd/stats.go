package pcd

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnStats summarises one column. NaN values (the usual marker for
// invalid points in organized clouds) are counted and excluded.
type ColumnStats struct {
	Name   string     `json:"name"`
	Type   ScalarType `json:"-"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"stddev"`
	Valid  int        `json:"valid"`
	NaN    int        `json:"nan"`
}

// Summarize returns statistics for every column of rs, in layout order.
// All-NaN columns report NaN for min, max, mean and stddev.
func Summarize(rs *RecordSet) []ColumnStats {
	out := make([]ColumnStats, 0, len(rs.columns))
	for _, c := range rs.columns {
		vals := make([]float64, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if v := c.Float64(i); !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		cs := ColumnStats{
			Name:  c.Name(),
			Type:  c.Type(),
			Valid: len(vals),
			NaN:   c.Len() - len(vals),
		}
		switch len(vals) {
		case 0:
			cs.Min, cs.Max, cs.Mean, cs.StdDev = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		case 1:
			cs.Min, cs.Max, cs.Mean = vals[0], vals[0], vals[0]
		default:
			cs.Min = floats.Min(vals)
			cs.Max = floats.Max(vals)
			cs.Mean, cs.StdDev = stat.MeanStdDev(vals, nil)
		}
		out = append(out, cs)
	}
	return out
}
