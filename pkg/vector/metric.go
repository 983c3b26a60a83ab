package vector

import (
	"fmt"
	"math"
)

// Metric identifies a similarity metric.
type Metric string

const (
	// MetricCosine scores by the cosine of the angle between vectors.
	MetricCosine Metric = "cosine"
	// MetricEuclidean scores by euclidean distance mapped into (0, 1].
	MetricEuclidean Metric = "euclidean"
	// MetricDot scores by raw dot product. Unbounded.
	MetricDot Metric = "dot"
)

// Validate rejects metrics outside the supported set.
func (m Metric) Validate() error {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDot:
		return nil
	}
	return fmt.Errorf("unknown similarity metric %q", string(m))
}

func (m Metric) String() string {
	return string(m)
}

// similarity scores two equal-length vectors with the given metric.
// Euclidean distance d becomes 1-min(d/maxDistance, 1) when a positive
// maxDistance is configured, exp(-d) otherwise.
func similarity(metric Metric, a, b []float32, maxDistance float64) float64 {
	switch metric {
	case MetricEuclidean:
		d := euclideanDistance(a, b)
		if maxDistance > 0 {
			return 1 - math.Min(d/maxDistance, 1)
		}
		return math.Exp(-d)
	case MetricDot:
		return dotProduct(a, b)
	default:
		return cosineSimilarity(a, b)
	}
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func dotProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
