package optics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Labels and units for the intensity and phase dumps. Index 0 is photon energy, then
// horizontal and vertical position, then the value.
var (
	IntensityLabels = [4]string{"Photon Energy", "Horizontal Position", "Vertical Position", "Intensity"}
	IntensityUnits  = [4]string{"eV", "m", "m", "ph/s/.1%bw/mm^2"}
	PhaseLabels     = [4]string{"Photon Energy", "Horizontal Position", "Vertical Position", "Phase"}
	PhaseUnits      = [4]string{"eV", "m", "m", "rad"}
	OPDLabels       = [4]string{"", "Horizontal Position", "Vertical Position", "Opt. Path Diff."}
	OPDUnits        = [4]string{"", "m", "m", "m"}
)

// WriteASCII writes data sampled on mesh as a '#' commented header followed by one value
// per line, photon energy varying fastest, then x, then y.
func WriteASCII(w io.Writer, data []float64, mesh Mesh, labels, units [4]string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#%s (inner loop is vs %s, outer loop vs %s)\n", labels[3], axisName(labels, 0), axisName(labels, 2))
	axes := []struct {
		start, fin float64
		n          int
	}{
		{mesh.EStart, mesh.EFin, mesh.Ne},
		{mesh.XStart, mesh.XFin, mesh.Nx},
		{mesh.YStart, mesh.YFin, mesh.Ny},
	}
	for i, a := range axes {
		fmt.Fprintf(bw, "#%s #Initial %s [%s]\n", formatValue(a.start), labels[i], units[i])
		fmt.Fprintf(bw, "#%s #Final %s [%s]\n", formatValue(a.fin), labels[i], units[i])
		fmt.Fprintf(bw, "#%d #Number of points vs %s\n", a.n, labels[i])
	}
	for _, v := range data {
		bw.WriteString(formatValue(v))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveASCII writes data to path with WriteASCII.
func SaveASCII(path string, data []float64, mesh Mesh, labels, units [4]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err = WriteASCII(f, data, mesh, labels, units); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func axisName(labels [4]string, i int) string {
	if labels[i] == "" {
		return "Photon Energy"
	}
	return labels[i]
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
