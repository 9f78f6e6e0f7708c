package plots

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

// Figure is a named plot. Name is used as the PNG file stem.
type Figure struct {
	Name string
	Plot *plot.Plot
}

// WavefrontFigures returns the 2D intensity, horizontal and vertical intensity cuts and 2D
// phase of one wavefront. stage completes the titles, e.g. "Before Propagation".
func WavefrontFigures(prefix, stage string, mesh optics.Mesh, intensity, cutX, cutY, phase []float64) ([]Figure, error) {
	var figs []Figure
	add := func(name string, p *plot.Plot, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		figs = append(figs, Figure{Name: prefix + name, Plot: p})
		return nil
	}

	p, err := Map("Intensity "+stage, intensity, mesh, moreland.BlackBody())
	if err := add("_int", p, err); err != nil {
		return nil, err
	}
	p, err = Cut("Intensity (horizontal cut at y = 0)", "Horizontal Position [mm]", "Intensity [ph/s/.1%bw/mm^2]",
		cutX, mesh.XStart, mesh.XFin)
	if err := add("_int_x", p, err); err != nil {
		return nil, err
	}
	p, err = Cut("Intensity (vertical cut at x = 0)", "Vertical Position [mm]", "Intensity [ph/s/.1%bw/mm^2]",
		cutY, mesh.YStart, mesh.YFin)
	if err := add("_int_y", p, err); err != nil {
		return nil, err
	}
	p, err = Map("Phase "+stage, phase, mesh, moreland.SmoothBlueRed())
	if err := add("_phase", p, err); err != nil {
		return nil, err
	}
	return figs, nil
}

// OPDFigure plots the optical path difference of a transmission map.
func OPDFigure(name string, m *transmission.Map) (Figure, error) {
	mesh := optics.Mesh{Nx: m.Nx, Ny: m.Ny, XStart: m.XStart, XFin: m.XFin, YStart: m.YStart, YFin: m.YFin}
	p, err := Map("Optical Path Difference "+name+" [m]", m.OPD(), mesh, moreland.SmoothBlueRed())
	if err != nil {
		return Figure{}, err
	}
	return Figure{Name: "opd_" + name, Plot: p}, nil
}

// SaveFigures renders every figure at wPx by hPx into dir and returns the file names.
func SaveFigures(dir string, figs []Figure, wPx, hPx float64) ([]string, error) {
	files := make([]string, 0, len(figs))
	for _, f := range figs {
		path := filepath.Join(dir, f.Name+".png")
		if err := SavePNG(path, Render(f.Plot, wPx, hPx)); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// GrayViewPercentile maps data (nx by ny, x fastest) to an 8-bit image, stretching the pLow
// to pHigh percentile range over 0..255. Row 0 of the image is the last mesh row so that y
// increases upwards. Non-finite values are black.
func GrayViewPercentile(data []float64, nx, ny int, pLow, pHigh float64) (*image.Gray, error) {
	if nx < 1 || ny < 1 {
		return nil, errors.New("empty matrix")
	}
	if len(data) != nx*ny {
		return nil, fmt.Errorf("size mismatch: have %d, want %d", len(data), nx*ny)
	}
	if !(0 <= pLow && pLow < pHigh && pHigh <= 100) {
		return nil, errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}

	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, errors.New("matrix has no finite values")
	}
	sort.Float64s(vals)

	percentile := func(p float64) float64 {
		pos := (p / 100.0) * float64(len(vals)-1)
		i := int(math.Floor(pos))
		if i >= len(vals)-1 {
			return vals[len(vals)-1]
		}
		f := pos - float64(i)
		return vals[i]*(1-f) + vals[i+1]*f
	}
	lo := percentile(pLow)
	hi := percentile(pHigh)
	if hi == lo {
		hi = lo + 1
	}

	img := image.NewGray(image.Rect(0, 0, nx, ny))
	for iy := 0; iy < ny; iy++ {
		row := (ny - 1 - iy) * img.Stride
		for ix := 0; ix < nx; ix++ {
			v := data[ix+nx*iy]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[row+ix] = 0
				continue
			}
			t := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
			img.Pix[row+ix] = uint8(math.Round(t * 255.0))
		}
	}
	return img, nil
}
