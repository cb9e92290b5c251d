package gradcam

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeatmap() *Heatmap {
	return &Heatmap{Height: 2, Width: 2, Data: []float64{0, 0.25, 0.75, 1}}
}

func TestColorizeDimensions(t *testing.T) {
	img := Colorize(testHeatmap())
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestColorizeEndpointsDiffer(t *testing.T) {
	img := Colorize(testHeatmap())
	cold := img.RGBAAt(0, 0)
	hot := img.RGBAAt(1, 1)
	assert.NotEqual(t, cold, hot, "low and high intensities must map to different colors")
}

func TestOverlayMatchesSourceBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 24))
	out, err := Overlay(testHeatmap(), src, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 32, out.Bounds().Dx())
	assert.Equal(t, 24, out.Bounds().Dy())
}

func TestOverlayAlphaZeroKeepsSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(40 * x), G: uint8(40 * y), B: 128, A: 255})
		}
	}

	out, err := Overlay(testHeatmap(), src, 0)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, src.RGBAAt(x, y), out.RGBAAt(x, y))
		}
	}
}

func TestOverlayRejectsBadAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	_, err := Overlay(testHeatmap(), src, -0.1)
	assert.ErrorContains(t, err, "alpha")

	_, err = Overlay(testHeatmap(), src, 1.5)
	assert.Error(t, err)
}
