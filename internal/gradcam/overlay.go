package gradcam

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"gonum.org/v1/plot/palette"
)

// colormapSteps is the palette resolution used when colorizing heatmaps.
const colormapSteps = 256

// Colorize maps heatmap intensities through a blue-to-red rainbow
// palette, low values cold and high values hot.
func Colorize(h *Heatmap) *image.RGBA {
	colors := palette.Rainbow(colormapSteps, palette.Blue, palette.Red, 1, 1, 1).Colors()
	img := image.NewRGBA(image.Rect(0, 0, h.Width, h.Height))
	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			idx := int(h.At(y, x) * float64(len(colors)-1))
			if idx < 0 {
				idx = 0
			}
			if idx > len(colors)-1 {
				idx = len(colors) - 1
			}
			img.Set(x, y, colors[idx])
		}
	}
	return img
}

// Overlay alpha-blends the color-mapped heatmap over the source image.
// The heatmap is first rescaled to the image bounds, so the result always
// has the source's resolution. alpha is the heatmap's share of the blend.
func Overlay(h *Heatmap, src image.Image, alpha float64) (*image.RGBA, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("overlay alpha %v outside [0, 1]", alpha)
	}

	bounds := src.Bounds()
	colored := Colorize(h.Rescale(bounds.Dx(), bounds.Dy()))

	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			br, bg, bb, _ := out.At(x, y).RGBA()
			hr, hg, hb, _ := colored.At(x, y).RGBA()
			out.Set(x, y, color.RGBA{
				R: blend(br, hr, alpha),
				G: blend(bg, hg, alpha),
				B: blend(bb, hb, alpha),
				A: 255,
			})
		}
	}
	return out, nil
}

// blend mixes two 16-bit channel values and returns the 8-bit result.
func blend(base, heat uint32, alpha float64) uint8 {
	v := (1-alpha)*float64(base) + alpha*float64(heat)
	return uint8(v / 257.0)
}
