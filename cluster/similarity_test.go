package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{1, 2, 3}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("scale invariant on raw vectors", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{10, 20, 30}
		assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
	})

	t.Run("result stays within unit interval", func(t *testing.T) {
		a := []float32{0.1, 0.1, 0.1}
		b := []float32{0.1, 0.1, 0.1}
		sim := CosineSimilarity(a, b)
		assert.LessOrEqual(t, sim, 1.0)
		assert.GreaterOrEqual(t, sim, -1.0)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
	})

	t.Run("empty vectors", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	})
}
