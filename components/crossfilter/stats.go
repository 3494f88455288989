package crossfilter

import (
	"math"
	"sort"
	"strconv"
)

// Median returns the middle value of values, averaging the two middle
// elements for even lengths. An empty input yields 0. values is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// histogramLayout holds equal-width bucket boundaries for a numeric column.
type histogramLayout struct {
	min    float64
	max    float64
	width  float64
	count  int
	labels []string
}

// bucketCount picks at most maxBuckets buckets, fewer for small samples.
func bucketCount(n, maxBuckets int) int {
	if maxBuckets < 1 {
		maxBuckets = 1
	}
	c := int(math.Round(math.Sqrt(float64(n))))
	if c > maxBuckets {
		c = maxBuckets
	}
	if c < 1 {
		c = 1
	}
	return c
}

func newHistogramLayout(values []float64, maxBuckets int, col ColumnDefinition) *histogramLayout {
	if len(values) == 0 {
		return nil
	}
	lo, hi := minMax(values)
	layout := &histogramLayout{min: lo, max: hi}
	if lo == hi {
		layout.count = 1
	} else {
		layout.count = bucketCount(len(values), maxBuckets)
		layout.width = (hi - lo) / float64(layout.count)
	}
	layout.labels = make([]string, layout.count)
	seen := make(map[string]struct{}, layout.count)
	for i := range layout.labels {
		lower, upper := layout.bounds(i)
		label := FormatNumber(lower, col)
		if lower != upper {
			label += " - " + FormatNumber(upper, col)
		}
		// labels double as filter keys so they must stay unique after rounding
		if _, dup := seen[label]; dup {
			label = label + " #" + strconv.Itoa(i+1)
		}
		seen[label] = struct{}{}
		layout.labels[i] = label
	}
	return layout
}

func (h *histogramLayout) bounds(i int) (float64, float64) {
	if h.count == 1 {
		return h.min, h.max
	}
	lower := h.min + float64(i)*h.width
	upper := lower + h.width
	if i == h.count-1 {
		upper = h.max
	}
	return lower, upper
}

// index maps v into a bucket. The maximum lands exactly on the last boundary
// and values outside the layout are clamped to the nearest bucket.
func (h *histogramLayout) index(v float64) int {
	if h.count == 1 || h.width == 0 {
		return 0
	}
	idx := int(math.Floor((v - h.min) / h.width))
	if idx < 0 {
		return 0
	}
	if idx >= h.count {
		return h.count - 1
	}
	return idx
}

func (h *histogramLayout) label(v float64) string {
	return h.labels[h.index(v)]
}
