package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is the distribution of one measure over a view.
type Summary struct {
	Measure string  `json:"measure"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"` // sample standard deviation
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
}

// Describe summarizes each named measure; with none named, every measure of
// the view. Quantiles interpolate linearly between the two nearest ranks at
// position p·(n-1), so the median of an even count is the mean of the middle
// pair.
func Describe(view RecordView, measures ...string) ([]Summary, error) {
	if len(measures) == 0 {
		measures = view.MeasureKeys()
	}

	out := make([]Summary, 0, len(measures))
	for _, m := range measures {
		if !hasMeasure(view, m) {
			return nil, newError(ErrInvalidField, "describe", m, "not a measure")
		}

		s := Summary{Measure: m, Count: view.Len()}
		if s.Count == 0 {
			out = append(out, s)
			continue
		}

		x := make([]float64, view.Len())
		for i := range x {
			x[i] = view.Measure(i, m)
		}
		sort.Float64s(x)

		s.Mean, s.Std = stat.MeanStdDev(x, nil)
		if s.Count == 1 {
			s.Std = 0
		}
		s.Min, s.Max = floats.Min(x), floats.Max(x)
		s.Q25 = quantile(0.25, x)
		s.Median = quantile(0.5, x)
		s.Q75 = quantile(0.75, x)
		out = append(out, s)
	}
	return out, nil
}

// quantile reads p from sorted x by linear interpolation between ranks.
func quantile(p float64, sorted []float64) float64 {
	pos := p * float64(len(sorted)-1)
	below := int(math.Floor(pos))
	if below >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(below)
	return sorted[below] + frac*(sorted[below+1]-sorted[below])
}
