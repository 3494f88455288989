package crossfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input must not be reordered")
}

func TestBucketCount(t *testing.T) {
	assert.Equal(t, 1, bucketCount(1, DefaultMaxBuckets))
	assert.Equal(t, 1, bucketCount(2, DefaultMaxBuckets))
	assert.Equal(t, 2, bucketCount(4, DefaultMaxBuckets))
	assert.Equal(t, 7, bucketCount(50, DefaultMaxBuckets))
	assert.Equal(t, 10, bucketCount(1000, DefaultMaxBuckets))
	assert.Equal(t, 1, bucketCount(1000, 0))
}

func TestHistogramLayoutPlacesMaximumInLastBucket(t *testing.T) {
	col := ColumnDefinition{ID: "n", DataType: DataTypeNumber}
	layout := newHistogramLayout([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, DefaultMaxBuckets, col)
	assert.Equal(t, 3, layout.count)
	assert.Equal(t, 2, layout.index(9))
	assert.Equal(t, 0, layout.index(-5))
	lower, upper := layout.bounds(2)
	assert.Equal(t, 6.0, lower)
	assert.Equal(t, 9.0, upper)
}

func TestHistogramLayoutKeepsLabelsUnique(t *testing.T) {
	col := ColumnDefinition{ID: "n", DataType: DataTypeNumber}
	// 0.1 wide buckets all round to the same integers.
	layout := newHistogramLayout([]float64{1, 1.1, 1.2, 1.3}, DefaultMaxBuckets, col)
	seen := map[string]bool{}
	for _, label := range layout.labels {
		assert.False(t, seen[label], "duplicate label %q", label)
		seen[label] = true
	}
}
