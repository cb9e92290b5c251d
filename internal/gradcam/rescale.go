package gradcam

// Rescale resamples the heatmap to the given resolution with bilinear
// interpolation, typically to bring the coarse conv-layer map up to the
// input image size. Interpolation is convex, so values stay in [0, 1].
func (h *Heatmap) Rescale(width, height int) *Heatmap {
	if width == h.Width && height == h.Height {
		return h
	}

	out := &Heatmap{Height: height, Width: width, Data: make([]float64, width*height)}
	sx := float64(h.Width) / float64(width)
	sy := float64(h.Height) / float64(height)

	for y := 0; y < height; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		if fy < 0 {
			fy = 0
		}
		y0 := int(fy)
		y1 := y0 + 1
		if y1 > h.Height-1 {
			y1 = h.Height - 1
		}
		wy := fy - float64(y0)

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			if fx < 0 {
				fx = 0
			}
			x0 := int(fx)
			x1 := x0 + 1
			if x1 > h.Width-1 {
				x1 = h.Width - 1
			}
			wx := fx - float64(x0)

			top := h.At(y0, x0)*(1-wx) + h.At(y0, x1)*wx
			bottom := h.At(y1, x0)*(1-wx) + h.At(y1, x1)*wx
			out.Data[y*width+x] = top*(1-wy) + bottom*wy
		}
	}
	return out
}
