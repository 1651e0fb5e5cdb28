package certificate

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.]`)
	numericPrefix = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
)

// ParseMetric reads a metric string permissively. Every character other than
// digits and '.' is dropped and the longest leading number is parsed, so
// "7/10" reads as 710, "-3" as 3 and "1.2.3" as 1.2. ok is false when nothing
// numeric remains; an absent value is never treated as zero.
func ParseMetric(raw string) (value float64, ok bool) {
	if raw == "" {
		return 0, false
	}
	digits := nonNumeric.ReplaceAllString(raw, "")
	prefix := numericPrefix.FindString(digits)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Clamp10 bounds v to the [0,10] display scale.
func Clamp10(v float64) float64 {
	return clamp(v, 0, 10)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// SetMetric stores one side of a tracked dimension and runs the recompute
// pass when the stored string changed.
func (d *Draft) SetMetric(dim Dimension, side Side, raw string) error {
	return d.SetMetrics([]MetricUpdate{{Dimension: dim, Side: side, Value: raw}})
}

// MetricUpdate is one field of a batched metric edit.
type MetricUpdate struct {
	Dimension Dimension `json:"dimension"`
	Side      Side      `json:"side"`
	Value     string    `json:"value"`
}

// SetMetrics applies several edits and runs a single recompute pass, so the
// improvement percent is derived from the final values only. Invalid updates
// abort the batch before anything is written.
func (d *Draft) SetMetrics(updates []MetricUpdate) error {
	for _, u := range updates {
		if u.Dimension == DimensionOverall {
			return ErrDerivedDimension
		}
		if !u.Dimension.Tracked() {
			return ErrUnknownDimension
		}
		if u.Side != SideBefore && u.Side != SideAfter {
			return ErrUnknownSide
		}
	}
	changed := false
	for _, u := range updates {
		reading := d.Metrics[u.Dimension]
		if reading.value(u.Side) == u.Value {
			continue
		}
		if u.Side == SideBefore {
			reading.Before = u.Value
		} else {
			reading.After = u.Value
		}
		d.Metrics[u.Dimension] = reading
		changed = true
	}
	if changed {
		d.Recompute()
	}
	return nil
}

// SetImprovementPercent overwrites the improvement field. An empty value
// re-enables automatic derivation on the next Overall change.
func (d *Draft) SetImprovementPercent(v string) {
	d.ImprovementPercent = v
}

// Recompute refreshes Overall from the tracked dimensions and, when Overall
// moved, derives the improvement percent. It reports whether Overall changed.
func (d *Draft) Recompute() bool {
	prev := d.Metrics[DimensionOverall]
	next := prev
	if mean, ok := d.sideMean(SideBefore); ok {
		next.Before = formatOverall(mean)
	}
	if mean, ok := d.sideMean(SideAfter); ok {
		next.After = formatOverall(mean)
	}
	if next == prev {
		return false
	}
	d.Metrics[DimensionOverall] = next
	d.deriveImprovement()
	return true
}

func (d *Draft) sideMean(side Side) (float64, bool) {
	sum, n := 0.0, 0
	for _, dim := range TrackedDimensions {
		if v, ok := ParseMetric(d.Metrics[dim].value(side)); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (d *Draft) deriveImprovement() {
	if d.ImprovementPercent != "" {
		return
	}
	overall := d.Metrics[DimensionOverall]
	ob, okB := ParseMetric(overall.Before)
	oa, okA := ParseMetric(overall.After)
	if !okB || !okA || ob <= 0 || oa == 0 {
		return
	}
	imp := clamp((oa-ob)/ob*100, -100, 100)
	if imp > 0 {
		d.ImprovementPercent = FormatFixed(imp, 0) + "%"
	}
}

func formatOverall(v float64) string {
	return strings.TrimSuffix(FormatFixed(v, 1), ".0")
}

// FormatFixed renders v with exactly digits fractional digits, rounding the
// exact binary value half away from zero. 1.005 therefore renders as "1.00"
// and 0.25 as "0.3".
func FormatFixed(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if digits < 0 {
		digits = 0
	}
	neg := v < 0
	if neg {
		v = -v
	}
	scaled := new(big.Float).SetPrec(256).SetFloat64(v)
	scaled.Mul(scaled, new(big.Float).SetPrec(256).SetFloat64(math.Pow10(digits)))
	scaled.Add(scaled, big.NewFloat(0.5))
	n, _ := scaled.Int(nil)

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// FormatNumber renders a parsed metric the way it was typed, without
// trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
