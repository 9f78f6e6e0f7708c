package transmission

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses an OPD map into the numbers usually quoted for a mirror.
type Summary struct {
	Min, Max float64
	PV       float64 // peak to valley
	Mean     float64
	RMS      float64 // root mean square about zero
	StdDev   float64
}

// OPDStats summarises the optical path difference of m.
func OPDStats(m *Map) Summary {
	opd := m.OPD()
	if len(opd) == 0 {
		return Summary{}
	}
	lo, hi := floats.Min(opd), floats.Max(opd)
	mean, std := stat.PopMeanStdDev(opd, nil)
	return Summary{
		Min:    lo,
		Max:    hi,
		PV:     hi - lo,
		Mean:   mean,
		RMS:    math.Sqrt(floats.Dot(opd, opd) / float64(len(opd))),
		StdDev: std,
	}
}
