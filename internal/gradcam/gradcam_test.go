package gradcam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureMapValidation(t *testing.T) {
	_, err := NewFeatureMap(2, 2, 2, make([]float32, 8))
	require.NoError(t, err)

	_, err = NewFeatureMap(2, 2, 2, make([]float32, 7))
	assert.ErrorContains(t, err, "needs 8 values, got 7")

	_, err = NewFeatureMap(0, 2, 2, nil)
	assert.ErrorContains(t, err, "invalid feature map shape")

	_, err = NewFeatureMap(2, -1, 2, nil)
	assert.Error(t, err)
}

func TestSynthesizeKnownValues(t *testing.T) {
	// Channel 0 gradient is all ones, so its weight is 1; channel 1
	// gradient is all -2, so its weight is -2.
	acts, err := NewFeatureMap(2, 2, 2, []float32{
		1, 2, 3, 4,
		0, 1, 0, 1,
	})
	require.NoError(t, err)
	grads, err := NewFeatureMap(2, 2, 2, []float32{
		1, 1, 1, 1,
		-2, -2, -2, -2,
	})
	require.NoError(t, err)

	hm, err := Synthesize(acts, grads)
	require.NoError(t, err)

	// Raw map is [1, 0, 3, 2]; max-normalized to [1/3, 0, 1, 2/3].
	assert.Equal(t, 2, hm.Height)
	assert.Equal(t, 2, hm.Width)
	assert.InDelta(t, 1.0/3.0, hm.At(0, 0), 1e-12)
	assert.InDelta(t, 0, hm.At(0, 1), 1e-12)
	assert.InDelta(t, 1, hm.At(1, 0), 1e-12)
	assert.InDelta(t, 2.0/3.0, hm.At(1, 1), 1e-12)
}

func TestSynthesizeZeroGradientsYieldsZeroHeatmap(t *testing.T) {
	acts, err := NewFeatureMap(3, 4, 5, ramp(3*4*5))
	require.NoError(t, err)
	grads, err := NewFeatureMap(3, 4, 5, make([]float32, 3*4*5))
	require.NoError(t, err)

	hm, err := Synthesize(acts, grads)
	require.NoError(t, err)
	for _, v := range hm.Data {
		assert.Zero(t, v)
	}
}

func TestSynthesizeNegativeOnlyMapRectifiesToZero(t *testing.T) {
	acts, err := NewFeatureMap(1, 2, 2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	grads, err := NewFeatureMap(1, 2, 2, []float32{-1, -1, -1, -1})
	require.NoError(t, err)

	hm, err := Synthesize(acts, grads)
	require.NoError(t, err)
	for _, v := range hm.Data {
		assert.Zero(t, v)
	}
}

func TestSynthesizeOutputRange(t *testing.T) {
	acts, err := NewFeatureMap(4, 7, 7, ramp(4*7*7))
	require.NoError(t, err)
	g := ramp(4 * 7 * 7)
	for i := range g {
		g[i] -= 90 // mix of positive and negative gradients
	}
	grads, err := NewFeatureMap(4, 7, 7, g)
	require.NoError(t, err)

	hm, err := Synthesize(acts, grads)
	require.NoError(t, err)
	for _, v := range hm.Data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSynthesizeShapeMismatch(t *testing.T) {
	tests := []struct {
		name       string
		ac, ah, aw int
		gc, gh, gw int
	}{
		{"channel count", 2, 4, 4, 3, 4, 4},
		{"height", 2, 4, 4, 2, 5, 4},
		{"width", 2, 4, 4, 2, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acts, err := NewFeatureMap(tt.ac, tt.ah, tt.aw, make([]float32, tt.ac*tt.ah*tt.aw))
			require.NoError(t, err)
			grads, err := NewFeatureMap(tt.gc, tt.gh, tt.gw, make([]float32, tt.gc*tt.gh*tt.gw))
			require.NoError(t, err)

			_, err = Synthesize(acts, grads)
			assert.ErrorContains(t, err, "different shapes")
		})
	}
}

func TestRows(t *testing.T) {
	hm := &Heatmap{Height: 2, Width: 3, Data: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}}
	rows := hm.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []float64{0, 0.1, 0.2}, rows[0])
	assert.Equal(t, []float64{0.3, 0.4, 0.5}, rows[1])

	rows[0][0] = 99
	assert.Zero(t, hm.At(0, 0), "Rows must copy, not alias")
}

func ramp(n int) []float32 {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	return data
}
