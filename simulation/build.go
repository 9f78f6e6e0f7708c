package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
	"github.com/bob-anderson-ok/MirrorBeamline/profile"
	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

// MirrorReport describes the OPD map built for one mirror_error element.
type MirrorReport struct {
	Name    string
	Map     *transmission.Map
	Axis    transmission.Axis
	Stats   transmission.Stats
	Summary transmission.Summary
	OPDFile string
}

// LoadProfiles reads every profile named in cfg from the data folder.
func LoadProfiles(cfg *Config, log *slog.Logger) (map[string]profile.HeightProfile, error) {
	out := make(map[string]profile.HeightProfile, len(cfg.Profiles))
	for _, pc := range cfg.Profiles {
		p, err := profile.ReadHeightProfile(cfg.path(pc.File), pc.Separator)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", pc.Name, err)
		}
		if err := p.Check(); err != nil {
			log.Warn("height profile cannot be interpolated, mirrors using it get a flat map",
				"profile", pc.Name, "err", err)
		}
		log.Info("height profile loaded", "profile", pc.Name, "file", pc.File, "points", p.Len())
		out[pc.Name] = p
	}
	return out, nil
}

// Build constructs the beamline elements in order, mapping each mirror's height profile onto
// its transmission grid, and assembles them with their propagation parameters.
func Build(cfg *Config, profiles map[string]profile.HeightProfile, log *slog.Logger) (*optics.Beamline, []MirrorReport, error) {
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	elems := make([]optics.Element, 0, len(cfg.Beamline))
	params := make([]optics.PropagationParams, 0, len(cfg.Beamline)+1)
	var reports []MirrorReport
	for i, ec := range cfg.Beamline {
		label := ec.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		var elem optics.Element
		switch ec.Type {
		case TypeDrift:
			elem = optics.Drift{Length: ec.Length}
		case TypeAperture:
			ap, err := optics.NewAperture(code(ec.Shape), code(ec.ApertureType), ec.Dx, ec.Dy, ec.X, ec.Y)
			if err != nil {
				return nil, nil, fmt.Errorf("beamline element %s: %w", label, err)
			}
			elem = ap
		case TypeLens:
			elem = optics.Lens{Fx: ec.Fx, Fy: ec.Fy, X: ec.X, Y: ec.Y}
		case TypeMirrorError:
			rep, err := buildMirror(label, ec, profiles, workers, log)
			if err != nil {
				return nil, nil, fmt.Errorf("beamline element %s: %w", label, err)
			}
			reports = append(reports, rep)
			elem = &optics.Transmission{Map: rep.Map, Fx: ec.Fx, Fy: ec.Fy}
		default:
			return nil, nil, fmt.Errorf("beamline element %s: unknown type %q", label, ec.Type)
		}

		pp, err := lookupParams(cfg, ec.Prop)
		if err != nil {
			return nil, nil, fmt.Errorf("beamline element %s: %w", label, err)
		}
		elems = append(elems, elem)
		params = append(params, pp)
	}
	if cfg.FinalProp != "" {
		pp, err := lookupParams(cfg, cfg.FinalProp)
		if err != nil {
			return nil, nil, fmt.Errorf("final_prop: %w", err)
		}
		params = append(params, pp)
	}

	bl, err := optics.Assemble(elems, params)
	if err != nil {
		return nil, nil, err
	}
	return bl, reports, nil
}

func buildMirror(label string, ec ElementConfig, profiles map[string]profile.HeightProfile, workers int, log *slog.Logger) (MirrorReport, error) {
	mc := ec.Mirror
	if mc.Profile == "" {
		return MirrorReport{}, errors.New("mirror_error needs a mirror section naming a profile")
	}
	p, ok := profiles[mc.Profile]
	if !ok {
		return MirrorReport{}, fmt.Errorf("no height profile named %q", mc.Profile)
	}
	axis, err := transmission.ParseAxis(mc.Axis)
	if err != nil {
		return MirrorReport{}, err
	}

	log.Info("defining transmission element", "element", label, "nx", mc.Nx, "ny", mc.Ny,
		"rx", mc.Rx, "ry", mc.Ry, "axis", axis, "angle", mc.Angle)
	m, err := transmission.NewCentered(mc.Nx, mc.Ny, mc.Rx, mc.Ry)
	if err != nil {
		return MirrorReport{}, err
	}
	st, err := transmission.AddSurfHeightProfile(m, p, axis, mc.Angle, transmission.WithWorkers(workers))
	if err != nil {
		return MirrorReport{}, err
	}
	sum := transmission.OPDStats(m)
	log.Info("surface height profile mapped", "element", label,
		"cells", st.Cells, "imprinted", st.Imprinted, "steps", st.Steps,
		"opd_pv", sum.PV, "opd_rms", sum.RMS)

	return MirrorReport{
		Name:    label,
		Map:     m,
		Axis:    axis,
		Stats:   st,
		Summary: sum,
		OPDFile: mc.OPDFile,
	}, nil
}

func lookupParams(cfg *Config, name string) (optics.PropagationParams, error) {
	v, ok := cfg.Propagation[name]
	if !ok {
		return optics.PropagationParams{}, fmt.Errorf("unknown propagation %q", name)
	}
	return optics.ParamsFromVector(v)
}

// opdMesh is the mesh written in the header of a mirror's OPD dump.
func opdMesh(m *transmission.Map) optics.Mesh {
	return optics.Mesh{
		Ne:     1,
		Nx:     m.Nx,
		Ny:     m.Ny,
		XStart: m.XStart,
		XFin:   m.XFin,
		YStart: m.YStart,
		YFin:   m.YFin,
	}
}
