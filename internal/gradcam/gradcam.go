// Package gradcam synthesizes Gradient-weighted Class Activation Mapping
// saliency heatmaps from the activation and gradient maps of a single
// convolutional layer. The forward and backward passes that produce those
// maps happen outside this package; everything here is a pure transform
// over in-memory arrays.
package gradcam

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FeatureMap holds one convolutional layer's output (or the gradient of a
// scalar target with respect to it) in CHW order, flattened the same way
// ONNX tensors are laid out.
type FeatureMap struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// NewFeatureMap validates the shape against the backing slice.
func NewFeatureMap(channels, height, width int, data []float32) (FeatureMap, error) {
	if channels <= 0 || height <= 0 || width <= 0 {
		return FeatureMap{}, fmt.Errorf("invalid feature map shape (%d, %d, %d)", channels, height, width)
	}
	if want := channels * height * width; len(data) != want {
		return FeatureMap{}, fmt.Errorf("feature map shape (%d, %d, %d) needs %d values, got %d",
			channels, height, width, want, len(data))
	}
	return FeatureMap{Channels: channels, Height: height, Width: width, Data: data}, nil
}

// channel returns the H*W plane backing channel c.
func (f FeatureMap) channel(c int) []float32 {
	plane := f.Height * f.Width
	return f.Data[c*plane : (c+1)*plane]
}

// Heatmap is a 2-D saliency map, row-major, with values in [0, 1] after
// Synthesize.
type Heatmap struct {
	Height int
	Width  int
	Data   []float64
}

// At returns the value at row y, column x.
func (h *Heatmap) At(y, x int) float64 { return h.Data[y*h.Width+x] }

// Rows copies the heatmap into a slice of rows, the shape the JSON
// surface serves.
func (h *Heatmap) Rows() [][]float64 {
	rows := make([][]float64, h.Height)
	for y := range rows {
		rows[y] = append([]float64(nil), h.Data[y*h.Width:(y+1)*h.Width]...)
	}
	return rows
}

// Synthesize computes the Grad-CAM heatmap for one convolutional layer.
// Each activation channel is weighted by the spatial mean of the matching
// gradient channel, the weighted channels are summed elementwise, negative
// values are clamped to zero and the result is scaled into [0, 1]. The two
// maps must have identical shapes; there is no broadcasting.
func Synthesize(acts, grads FeatureMap) (*Heatmap, error) {
	if acts.Channels != grads.Channels || acts.Height != grads.Height || acts.Width != grads.Width {
		return nil, fmt.Errorf("activation map (%d, %d, %d) and gradient map (%d, %d, %d) have different shapes",
			acts.Channels, acts.Height, acts.Width, grads.Channels, grads.Height, grads.Width)
	}

	plane := acts.Height * acts.Width
	raw := make([]float64, plane)
	for c := 0; c < acts.Channels; c++ {
		var sum float64
		for _, g := range grads.channel(c) {
			sum += float64(g)
		}
		weight := sum / float64(plane)
		for i, a := range acts.channel(c) {
			raw[i] += weight * float64(a)
		}
	}

	// Keep only features that push the target score up.
	for i, v := range raw {
		if v < 0 {
			raw[i] = 0
		}
	}
	if max := floats.Max(raw); max > 0 {
		floats.Scale(1/max, raw)
	}

	return &Heatmap{Height: acts.Height, Width: acts.Width, Data: raw}, nil
}
