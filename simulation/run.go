package simulation

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
)

// Snapshot is the intensity and phase of a wavefront at one point of the run.
type Snapshot struct {
	Mesh       optics.Mesh
	Intensity  []float64 // vs x and y, x fastest
	IntensityX []float64 // horizontal cut at y = 0
	IntensityY []float64 // vertical cut at x = 0
	Phase      []float64 // vs x and y
}

// Result is everything a run produces besides the files it writes.
type Result struct {
	Before  Snapshot
	After   Snapshot
	Mirrors []MirrorReport
}

// Run executes the simulation: source generation, input snapshot, beamline construction,
// propagation and output snapshot. Intensity, phase and OPD tables are written to the
// data folder along the way.
func Run(cfg *Config, eng optics.Engine, log *slog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter file: %w", err)
	}
	if err := os.MkdirAll(cfg.DataFolder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data folder: %w", err)
	}

	m := cfg.InitialMesh
	wfr := optics.NewWavefront(m.Ne, m.Nx, m.Ny)
	wfr.Mesh = m
	wfr.SetSource(cfg.Source)

	log.Info("calculating initial wavefront", "photon_energy_ev", cfg.Source.AvgPhotEn, "z", m.ZStart)
	if err := eng.GenerateGaussianField(wfr, cfg.Source, optics.PrecisionParams{SampFactNxNy: cfg.SamplingFactor}); err != nil {
		return nil, fmt.Errorf("gaussian source: %w", err)
	}

	res := &Result{}
	var err error
	if res.Before, err = takeSnapshot(eng, wfr); err != nil {
		return nil, fmt.Errorf("initial wavefront: %w", err)
	}
	if err := saveSnapshot(cfg, res.Before, cfg.Outputs.IntensityIn, cfg.Outputs.PhaseIn); err != nil {
		return nil, err
	}
	log.Info("initial wavefront saved", "nx", res.Before.Mesh.Nx, "ny", res.Before.Mesh.Ny)

	profiles, err := LoadProfiles(cfg, log)
	if err != nil {
		return nil, err
	}
	bl, mirrors, err := Build(cfg, profiles, log)
	if err != nil {
		return nil, err
	}
	res.Mirrors = mirrors
	for _, mr := range mirrors {
		path := cfg.path(mr.OPDFile)
		if err := optics.SaveASCII(path, mr.Map.OPD(), opdMesh(mr.Map), optics.OPDLabels, optics.OPDUnits); err != nil {
			return nil, fmt.Errorf("mirror %s: %w", mr.Name, err)
		}
		log.Info("optical path difference saved", "element", mr.Name, "file", path)
	}

	log.Info("propagating wavefront", "elements", len(bl.Elements))
	if err := eng.PropagateField(wfr, bl); err != nil {
		return nil, fmt.Errorf("propagation: %w", err)
	}

	if res.After, err = takeSnapshot(eng, wfr); err != nil {
		return nil, fmt.Errorf("propagated wavefront: %w", err)
	}
	if err := saveSnapshot(cfg, res.After, cfg.Outputs.IntensityOut, cfg.Outputs.PhaseOut); err != nil {
		return nil, err
	}
	log.Info("propagated wavefront saved", "nx", res.After.Mesh.Nx, "ny", res.After.Mesh.Ny, "z", res.After.Mesh.ZStart)
	return res, nil
}

func takeSnapshot(eng optics.Engine, wfr *optics.Wavefront) (Snapshot, error) {
	s := Snapshot{Mesh: wfr.Mesh}
	e := wfr.Mesh.EStart
	extract := func(comp optics.Component, dep optics.Dependence) ([]float64, error) {
		data, err := eng.ExtractIntensityOrPhase(wfr, optics.Total, comp, dep, e, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("extract %s vs %s: %w", comp, dep, err)
		}
		if want := optics.ExtractLength(wfr.Mesh, dep); len(data) != want {
			return nil, fmt.Errorf("extract %s vs %s: got %d values, want %d", comp, dep, len(data), want)
		}
		return data, nil
	}

	var err error
	if s.Intensity, err = extract(optics.SingleElectronIntensity, optics.VsXY); err != nil {
		return s, err
	}
	if s.IntensityX, err = extract(optics.SingleElectronIntensity, optics.VsX); err != nil {
		return s, err
	}
	if s.IntensityY, err = extract(optics.SingleElectronIntensity, optics.VsY); err != nil {
		return s, err
	}
	if s.Phase, err = extract(optics.Phase, optics.VsXY); err != nil {
		return s, err
	}
	return s, nil
}

func saveSnapshot(cfg *Config, s Snapshot, intensityFile, phaseFile string) error {
	if err := optics.SaveASCII(cfg.path(intensityFile), s.Intensity, s.Mesh, optics.IntensityLabels, optics.IntensityUnits); err != nil {
		return err
	}
	return optics.SaveASCII(cfg.path(phaseFile), s.Phase, s.Mesh, optics.PhaseLabels, optics.PhaseUnits)
}
