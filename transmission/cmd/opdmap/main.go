// Command opdmap maps a mirror height profile onto a transmission grid and writes the
// optical path difference as an ASCII table and a PNG image, without running a beamline.
//
// Usage:
//
//	opdmap -profile mirror1.dat -nx 100 -ny 1500 -rx 1.44e-3 -ry 1.448e-3 -axis y -angle 1.8e-3 -out m1
//
// writes m1.dat (OPD table), m1.png (heat map) and m1_gray.png (percentile stretched view).
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/bob-anderson-ok/MirrorBeamline/logger"
	"github.com/bob-anderson-ok/MirrorBeamline/optics"
	"github.com/bob-anderson-ok/MirrorBeamline/plots"
	"github.com/bob-anderson-ok/MirrorBeamline/profile"
	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "two-column height profile file (position, height)")
		sep         = flag.String("sep", "\t", "column separator")
		nx          = flag.Int("nx", 100, "horizontal grid points")
		ny          = flag.Int("ny", 1500, "vertical grid points")
		rx          = flag.Float64("rx", 1.44e-3, "horizontal range [m]")
		ry          = flag.Float64("ry", 1.448e-3, "vertical range [m]")
		axisFlag    = flag.String("axis", "y", "profile direction: x, y or xy")
		angle       = flag.Float64("angle", 1.8e-3, "grazing angle [rad]")
		out         = flag.String("out", "opd", "output file stem")
		workers     = flag.Int("workers", runtime.GOMAXPROCS(0), "goroutines used for mapping")
		size        = flag.Float64("size", 600, "PNG size in pixels")
		level       = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger.SetDefault(logger.NewText(*level, os.Stderr))
	if *profilePath == "" {
		fmt.Fprintln(os.Stderr, "opdmap: -profile is required")
		flag.Usage()
		os.Exit(2)
	}

	axis, err := transmission.ParseAxis(*axisFlag)
	if err != nil {
		logger.Error("bad -axis", "err", err)
		os.Exit(2)
	}

	p, err := profile.ReadHeightProfile(*profilePath, *sep)
	if err != nil {
		logger.Error("could not read height profile", "err", err)
		os.Exit(3)
	}
	if err := p.Check(); err != nil {
		logger.Warn("height profile cannot be interpolated, the map will be flat", "err", err)
	}

	m, err := transmission.NewCentered(*nx, *ny, *rx, *ry)
	if err != nil {
		logger.Error("bad grid", "err", err)
		os.Exit(2)
	}
	st, err := transmission.AddSurfHeightProfile(m, p, axis, *angle, transmission.WithWorkers(*workers))
	if err != nil {
		logger.Error("mapping failed", "err", err)
		os.Exit(4)
	}
	sum := transmission.OPDStats(m)
	logger.Info("surface height profile mapped", "points", p.Len(), "cells", st.Cells,
		"imprinted", st.Imprinted, "steps", st.Steps, "opd_min", sum.Min, "opd_max", sum.Max, "opd_rms", sum.RMS)

	mesh := optics.Mesh{Ne: 1, Nx: m.Nx, Ny: m.Ny, XStart: m.XStart, XFin: m.XFin, YStart: m.YStart, YFin: m.YFin}
	if err := optics.SaveASCII(*out+".dat", m.OPD(), mesh, optics.OPDLabels, optics.OPDUnits); err != nil {
		logger.Error("could not save OPD table", "err", err)
		os.Exit(5)
	}

	fig, err := plots.OPDFigure(*out, m)
	if err != nil {
		logger.Error("could not plot OPD", "err", err)
		os.Exit(5)
	}
	if err := plots.SavePNG(*out+".png", plots.Render(fig.Plot, *size, *size)); err != nil {
		logger.Error("could not save OPD plot", "err", err)
		os.Exit(5)
	}

	gray, err := plots.GrayViewPercentile(m.OPD(), m.Nx, m.Ny, 1, 99)
	if err != nil {
		logger.Error("could not build gray view", "err", err)
		os.Exit(5)
	}
	if err := plots.SavePNG(*out+"_gray.png", gray); err != nil {
		logger.Error("could not save gray view", "err", err)
		os.Exit(5)
	}

	fmt.Printf("wrote %s.dat, %s.png and %s_gray.png\n", *out, *out, *out)
}
