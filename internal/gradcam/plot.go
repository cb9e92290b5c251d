package gradcam

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// grid adapts a Heatmap to plotter.GridXYZ. Rows are flipped because the
// plot origin is bottom-left while heatmap row 0 is the top of the image.
type grid struct{ h *Heatmap }

func (g grid) Dims() (c, r int)   { return g.h.Width, g.h.Height }
func (g grid) Z(c, r int) float64 { return g.h.At(g.h.Height-1-r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// SavePlot writes a standalone heatmap chart with a color legend to a PNG
// file.
func SavePlot(h *Heatmap, title, filename string) error {
	p := plot.New()
	p.Title.Text = title

	pal := palette.Rainbow(10, palette.Blue, palette.Red, 1, 1, 1)
	hm := plotter.NewHeatMap(grid{h}, pal)
	hm.Min = 0
	hm.Max = 1
	p.Add(hm)

	l := plot.NewLegend()
	thumbs := plotter.PaletteThumbnailers(pal)
	for i := len(thumbs) - 1; i >= 0; i-- {
		val := hm.Min + (hm.Max-hm.Min)*float64(i)/float64(len(thumbs)-1)
		l.Add(fmt.Sprintf("%.1f", val), thumbs[i])
	}

	p.X.Padding = 0
	p.Y.Padding = 0

	img := vgimg.New(vg.Points(400), vg.Points(300))
	dc := draw.New(img)

	l.Top = true
	r := l.Rectangle(dc)
	legendWidth := r.Max.X - r.Min.X
	l.YOffs = -p.Title.TextStyle.FontExtents().Height
	l.Draw(dc)

	dc = draw.Crop(dc, 0, -legendWidth-vg.Millimeter, 0, 0)
	p.Draw(dc)

	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}
