// Package plots renders wavefront intensity and phase, and mirror OPD maps, as PNG figures:
// one-dimensional cuts as line plots and two-dimensional distributions as heat maps.
package plots

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	_ "gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
)

// mmPerM converts mesh positions to the millimetres shown on the axes.
const mmPerM = 1000

// StepTicks is a tick marker with a fixed step. A non-positive Step falls back to the
// default ticker.
type StepTicks struct {
	Step   float64
	Format string
}

func (t StepTicks) Ticks(min, max float64) []plot.Tick {
	if !(t.Step > 0) || math.IsInf(t.Step, 0) {
		return plot.DefaultTicks{}.Ticks(min, max)
	}
	var ticks []plot.Tick
	start := math.Ceil(min/t.Step) * t.Step
	for v := start; v <= max+t.Step*1e-9; v += t.Step {
		ticks = append(ticks, plot.Tick{
			Value: v,
			Label: fmt.Sprintf(t.Format, v),
		})
	}
	return ticks
}

// NewPlot returns an empty plot with Liberation Sans labels.
func NewPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	for _, s := range []*text.Style{&p.Title.TextStyle, &p.X.Label.TextStyle, &p.Y.Label.TextStyle} {
		s.Font.Typeface = "Liberation"
		s.Font.Variant = "Sans"
		s.Font.Size = vg.Points(12)
	}
	for _, s := range []*text.Style{&p.X.Tick.Label, &p.Y.Tick.Label} {
		s.Font.Typeface = "Liberation"
		s.Font.Variant = "Sans"
		s.Font.Size = vg.Points(10)
	}
	return p
}

// Cut plots data sampled uniformly from start to fin (m) against position in mm.
func Cut(title, xLabel, yLabel string, data []float64, start, fin float64) (*plot.Plot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cut %q has no data", title)
	}
	p := NewPlot(title, xLabel, yLabel)

	x := axis(start*mmPerM, fin*mmPerM, len(data))
	pts := make(plotter.XYs, len(data))
	for i, v := range data {
		pts[i].X = x[i]
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}

	p.X.Tick.Marker = StepTicks{Step: (x[len(x)-1] - x[0]) / 10, Format: "%.3f"}
	p.Add(plotter.NewGrid(), line)
	return p, nil
}

// Map plots data laid out on mesh (x fastest) as a heat map with positions in mm.
func Map(title string, data []float64, mesh optics.Mesh, cm palette.ColorMap) (*plot.Plot, error) {
	if mesh.Nx < 1 || mesh.Ny < 1 || len(data) != mesh.Nx*mesh.Ny {
		return nil, fmt.Errorf("map %q: %d values for a %dx%d mesh", title, len(data), mesh.Nx, mesh.Ny)
	}
	g := &grid{
		data: data,
		nx:   mesh.Nx,
		ny:   mesh.Ny,
		x:    axis(mesh.XStart*mmPerM, mesh.XFin*mmPerM, mesh.Nx),
		y:    axis(mesh.YStart*mmPerM, mesh.YFin*mmPerM, mesh.Ny),
	}

	cm.SetMin(0)
	cm.SetMax(1)
	h := plotter.NewHeatMap(g, cm.Palette(255))
	lo, hi := finiteRange(data)
	if hi == lo {
		hi = lo + 1
	}
	h.Min, h.Max = lo, hi

	p := NewPlot(title, "Horizontal Position [mm]", "Vertical Position [mm]")
	p.Add(h)
	return p, nil
}

// grid adapts a flat x-fastest slice to plotter.GridXYZ.
type grid struct {
	data   []float64
	nx, ny int
	x, y   []float64
}

func (g *grid) Dims() (c, r int)   { return g.nx, g.ny }
func (g *grid) Z(c, r int) float64 { return g.data[c+g.nx*r] }
func (g *grid) X(c int) float64    { return g.x[c] }
func (g *grid) Y(r int) float64    { return g.y[r] }

// axis returns n uniformly spaced values from start to fin. A single point gets a unit
// wide neighbour so the heat map can size its cell.
func axis(start, fin float64, n int) []float64 {
	if n == 1 {
		return []float64{start, start + 1}
	}
	out := make([]float64, n)
	floats.Span(out, start, fin)
	if out[0] == out[n-1] {
		for i := range out {
			out[i] = start + float64(i)
		}
	}
	return out
}

func finiteRange(data []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Render draws p into an in-memory image of wPx by hPx pixels.
func Render(p *plot.Plot, wPx, hPx float64) image.Image {
	const dpi = 96
	width := vg.Length(wPx) * vg.Inch / dpi
	height := vg.Length(hPx) * vg.Inch / dpi

	c := vgimg.New(width, height)
	p.Draw(vgdraw.New(c))
	return c.Image()
}

// SavePNG writes img to filename.
func SavePNG(filename string, img image.Image) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return png.Encode(f, img)
}
