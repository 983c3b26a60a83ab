package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricValidate(t *testing.T) {
	tests := []struct {
		name    string
		metric  Metric
		wantErr bool
	}{
		{"cosine", MetricCosine, false},
		{"euclidean", MetricEuclidean, false},
		{"dot", MetricDot, false},
		{"unknown", Metric("manhattan"), true},
		{"empty", Metric(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.metric.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.5, 0.2, 0.8}
		assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	})

	t.Run("zero vector scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
		assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 1}, []float32{0, 0}))
	})
}

func TestEuclideanSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{3, 4}
		assert.InDelta(t, 1.0, similarity(MetricEuclidean, v, v, 0), 1e-9)
	})

	t.Run("without normalizer uses exponential falloff", func(t *testing.T) {
		// distance between (0,0) and (3,4) is 5
		got := similarity(MetricEuclidean, []float32{0, 0}, []float32{3, 4}, 0)
		assert.InDelta(t, math.Exp(-5), got, 1e-9)
	})

	t.Run("with normalizer maps distance linearly", func(t *testing.T) {
		got := similarity(MetricEuclidean, []float32{0, 0}, []float32{3, 4}, 10)
		assert.InDelta(t, 0.5, got, 1e-9)
	})

	t.Run("distance beyond normalizer clamps to 0", func(t *testing.T) {
		got := similarity(MetricEuclidean, []float32{0, 0}, []float32{3, 4}, 2)
		assert.InDelta(t, 0.0, got, 1e-9)
	})
}

func TestDotSimilarity(t *testing.T) {
	got := similarity(MetricDot, []float32{1, 2, 3}, []float32{4, 5, 6}, 0)
	assert.InDelta(t, 32.0, got, 1e-9)
}
