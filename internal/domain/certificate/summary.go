package certificate

import (
	"fmt"
	"sort"
)

// Placeholder is shown wherever a value is absent.
const Placeholder = "—"

// MaxTopGains bounds the top-gains list.
const MaxTopGains = 3

// Gain is one entry of the top-gains list.
type Gain struct {
	Dimension Dimension `json:"dimension"`
	Percent   float64   `json:"percent"`
}

// BarSegmentKind is the CSS class that distinguishes bar segments.
type BarSegmentKind string

const (
	SegmentBefore  BarSegmentKind = "mini-before"
	SegmentImprove BarSegmentKind = "mini-after"
	SegmentRegress BarSegmentKind = "mini-regress"
)

// BarSegment spans [Left, Left+Width] percent of the bar.
type BarSegment struct {
	Kind  BarSegmentKind `json:"kind"`
	Left  float64        `json:"left"`
	Width float64        `json:"width"`
}

// MiniBar is the per-row progress bar.
type MiniBar struct {
	Segments   []BarSegment `json:"segments"`
	Regressing bool         `json:"regressing"`
}

// MetricRow is one rendered line of the metrics table.
type MetricRow struct {
	Dimension Dimension `json:"dimension"`
	Before    string    `json:"before"`
	After     string    `json:"after"`
	Delta     string    `json:"delta"`
	Bar       MiniBar   `json:"bar"`
	Computed  bool      `json:"computed,omitempty"`
}

// Summary collects every read-only aggregate shown on the certificate.
type Summary struct {
	ArticleName         string      `json:"article_name"`
	TransformationScore *float64    `json:"transformation_score,omitempty"`
	TopGains            []Gain      `json:"top_gains"`
	ImprovementPercent  string      `json:"improvement_percent"`
	Rows                []MetricRow `json:"rows"`
}

// Summarize derives the display aggregates of d without mutating it.
func Summarize(d *Draft) Summary {
	s := Summary{
		ArticleName:        d.ResolvedArticleName(),
		TopGains:           TopGains(d),
		ImprovementPercent: d.ImprovementPercent,
	}
	if score, ok := TransformationScore(d); ok {
		s.TransformationScore = &score
	}
	for _, dim := range TrackedDimensions {
		r := d.Metrics[dim]
		s.Rows = append(s.Rows, MetricRow{
			Dimension: dim,
			Before:    displayValue(r.Before),
			After:     displayValue(r.After),
			Delta:     RowDelta(r),
			Bar:       NewMiniBar(r.Before, r.After),
		})
	}
	overall := d.Metrics[DimensionOverall]
	s.Rows = append(s.Rows, MetricRow{
		Dimension: DimensionOverall,
		Before:    displayValue(overall.Before),
		After:     displayValue(overall.After),
		Delta:     OverallDelta(overall),
		Bar:       NewMiniBar(overall.Before, overall.After),
		Computed:  true,
	})
	return s
}

func displayValue(raw string) string {
	v, ok := ParseMetric(raw)
	if !ok {
		return Placeholder
	}
	return FormatNumber(v)
}

// clampedPair parses a reading and clamps both sides to the display scale.
func clampedPair(r Reading) (b, a float64, ok bool) {
	b, okB := ParseMetric(r.Before)
	a, okA := ParseMetric(r.After)
	if !okB || !okA {
		return 0, 0, false
	}
	return Clamp10(b), Clamp10(a), true
}

// TransformationScore averages the normalized progress of improving
// dimensions. With no improving pair it falls back to the mean after value
// scaled to 0..100; ok is false when nothing is present.
func TransformationScore(d *Draft) (score float64, ok bool) {
	var progress []float64
	for _, dim := range TrackedDimensions {
		b, a, present := clampedPair(d.Metrics[dim])
		if present && a > b && b < 10 {
			progress = append(progress, (a-b)/(10-b)*100)
		}
	}
	if len(progress) > 0 {
		return clamp(mean(progress), 0, 100), true
	}

	var after []float64
	for _, dim := range TrackedDimensions {
		if v, present := ParseMetric(d.Metrics[dim].After); present {
			after = append(after, Clamp10(v))
		}
	}
	if len(after) > 0 {
		return clamp(mean(after)/10*100, 0, 100), true
	}
	return 0, false
}

// TopGains returns up to MaxTopGains positive percent gains, largest first.
// Ties keep dimension order.
func TopGains(d *Draft) []Gain {
	gains := []Gain{}
	for _, dim := range TrackedDimensions {
		b, a, present := clampedPair(d.Metrics[dim])
		if !present || b <= 0 {
			continue
		}
		g := clamp((a-b)/b*100, -100, 100)
		if g > 0 {
			gains = append(gains, Gain{Dimension: dim, Percent: g})
		}
	}
	sort.SliceStable(gains, func(i, j int) bool { return gains[i].Percent > gains[j].Percent })
	if len(gains) > MaxTopGains {
		gains = gains[:MaxTopGains]
	}
	return gains
}

// RowDelta renders "after-before (pct%)" from the raw values, unclamped. The
// percent is a placeholder when before is zero.
func RowDelta(r Reading) string {
	b, okB := ParseMetric(r.Before)
	a, okA := ParseMetric(r.After)
	if !okB || !okA {
		return Placeholder
	}
	diff := a - b
	pct := Placeholder
	if b != 0 {
		pct = FormatFixed(diff/b*100, 0)
	}
	return fmt.Sprintf("%s (%s%%)", FormatNumber(diff), pct)
}

// OverallDelta renders the signed Overall change with its percent clamped
// to [-100,100].
func OverallDelta(r Reading) string {
	ob, okB := ParseMetric(r.Before)
	oa, okA := ParseMetric(r.After)
	if !okB || !okA {
		return Placeholder
	}
	diff := oa - ob
	sign := ""
	if diff > 0 {
		sign = "+"
	}
	pct := Placeholder
	if ob > 0 {
		pct = FormatFixed(clamp(diff/ob*100, -100, 100), 0)
	}
	return fmt.Sprintf("%s%s (%s%%)", sign, FormatNumber(diff), pct)
}

// NewMiniBar lays out the bar for one reading. Values are clamped to the
// display scale; an improvement draws the gain after the before fill while a
// regression shrinks the fill to the after value and marks the lost span.
func NewMiniBar(before, after string) MiniBar {
	bar := MiniBar{Segments: []BarSegment{}}
	b, okB := ParseMetric(before)
	if !okB {
		return bar
	}
	b = Clamp10(b)
	a, okA := ParseMetric(after)
	if !okA {
		bar.Segments = append(bar.Segments, BarSegment{Kind: SegmentBefore, Width: b * 10})
		return bar
	}
	a = Clamp10(a)
	if a < b {
		bar.Regressing = true
		bar.Segments = append(bar.Segments,
			BarSegment{Kind: SegmentBefore, Width: a * 10},
			BarSegment{Kind: SegmentRegress, Left: a * 10, Width: (b - a) * 10},
		)
		return bar
	}
	bar.Segments = append(bar.Segments,
		BarSegment{Kind: SegmentBefore, Width: b * 10},
		BarSegment{Kind: SegmentImprove, Left: b * 10, Width: (a - b) * 10},
	)
	return bar
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
