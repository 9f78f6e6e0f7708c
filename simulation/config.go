// Package simulation runs a beamline simulation described by a parameter file: it generates
// the source wavefront, builds the beamline with its mirror surface errors, propagates and
// saves intensity and phase before and after the beamline.
package simulation

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	json "github.com/KevinWang15/go-json5"
	"gopkg.in/yaml.v3"

	"github.com/bob-anderson-ok/MirrorBeamline/optics"
	"github.com/bob-anderson-ok/MirrorBeamline/transmission"
)

// Element types accepted in the beamline list.
const (
	TypeDrift       = "drift"
	TypeAperture    = "aperture"
	TypeLens        = "lens"
	TypeMirrorError = "mirror_error"
)

// Config is the parameter file.
type Config struct {
	DataFolder     string              `json:"data_folder" yaml:"data_folder"`
	Engine         EngineConfig        `json:"engine" yaml:"engine"`
	Source         optics.GaussianBeam `json:"source" yaml:"source"`
	InitialMesh    optics.Mesh         `json:"initial_mesh" yaml:"initial_mesh"`
	SamplingFactor float64             `json:"sampling_factor" yaml:"sampling_factor"`
	// Workers bounds the goroutines used per mirror map; 0 means GOMAXPROCS.
	Workers     int                  `json:"workers" yaml:"workers"`
	Profiles    []ProfileConfig      `json:"profiles" yaml:"profiles"`
	Beamline    []ElementConfig      `json:"beamline" yaml:"beamline"`
	Propagation map[string][]float64 `json:"propagation" yaml:"propagation"`
	FinalProp   string               `json:"final_prop" yaml:"final_prop"`
	Outputs     OutputConfig         `json:"outputs" yaml:"outputs"`
}

// EngineConfig is the command line of the external wave-optics engine.
type EngineConfig struct {
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args" yaml:"args"`
}

// ProfileConfig names a two-column height profile file in the data folder.
type ProfileConfig struct {
	Name      string `json:"name" yaml:"name"`
	File      string `json:"file" yaml:"file"`
	Separator string `json:"separator" yaml:"separator"` // default tab
}

// ElementConfig is one beamline entry. Which fields matter depends on Type.
type ElementConfig struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Prop string `json:"prop" yaml:"prop"` // key into Config.Propagation

	Length float64 `json:"length" yaml:"length"` // drift

	Shape        string  `json:"shape" yaml:"shape"`                 // aperture: r or c
	ApertureType string  `json:"aperture_type" yaml:"aperture_type"` // aperture: a or o
	Dx           float64 `json:"dx" yaml:"dx"`
	Dy           float64 `json:"dy" yaml:"dy"`

	Fx float64 `json:"fx" yaml:"fx"` // lens; also mirror_error, where 0 means no focusing
	Fy float64 `json:"fy" yaml:"fy"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`

	Mirror MirrorConfig `json:"mirror" yaml:"mirror"` // mirror_error; absent when Profile is empty
}

// MirrorConfig describes the transmission grid and profile of a mirror_error element.
type MirrorConfig struct {
	Profile string  `json:"profile" yaml:"profile"`
	Nx      int     `json:"nx" yaml:"nx"`
	Ny      int     `json:"ny" yaml:"ny"`
	Rx      float64 `json:"rx" yaml:"rx"`
	Ry      float64 `json:"ry" yaml:"ry"`
	Axis    string  `json:"axis" yaml:"axis"`   // x, y or xy
	Angle   float64 `json:"angle" yaml:"angle"` // grazing angle, rad
	OPDFile string  `json:"opd_file" yaml:"opd_file"`
}

// OutputConfig holds the names of the ASCII dumps written to the data folder.
type OutputConfig struct {
	IntensityIn  string `json:"intensity_in" yaml:"intensity_in"`
	PhaseIn      string `json:"phase_in" yaml:"phase_in"`
	IntensityOut string `json:"intensity_out" yaml:"intensity_out"`
	PhaseOut     string `json:"phase_out" yaml:"phase_out"`
}

// Load reads a parameter file. Files ending in .yaml or .yml are YAML, everything else JSON5.
// Defaults are filled in but the result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a parameter file body. ext selects the format as in Load.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.DataFolder == "" {
		c.DataFolder = "."
	}
	if c.InitialMesh.Ne == 0 {
		c.InitialMesh.Ne = 1
	}
	if c.InitialMesh.EStart == 0 && c.InitialMesh.EFin == 0 {
		c.InitialMesh.EStart = c.Source.AvgPhotEn
		c.InitialMesh.EFin = c.Source.AvgPhotEn
	}
	for i := range c.Profiles {
		if c.Profiles[i].Separator == "" {
			c.Profiles[i].Separator = "\t"
		}
	}
	for i := range c.Beamline {
		e := &c.Beamline[i]
		if e.Type != TypeMirrorError {
			continue
		}
		if e.Fx == 0 {
			e.Fx = optics.NoFocus
		}
		if e.Fy == 0 {
			e.Fy = optics.NoFocus
		}
		if e.Mirror.OPDFile == "" && e.Name != "" {
			e.Mirror.OPDFile = "res_opt_path_dif_er_" + e.Name + ".dat"
		}
	}
	if c.Outputs.IntensityIn == "" {
		c.Outputs.IntensityIn = "res_int_in.dat"
	}
	if c.Outputs.PhaseIn == "" {
		c.Outputs.PhaseIn = "res_phase_in.dat"
	}
	if c.Outputs.IntensityOut == "" {
		c.Outputs.IntensityOut = "res_int_prop.dat"
	}
	if c.Outputs.PhaseOut == "" {
		c.Outputs.PhaseOut = "res_phase_prop.dat"
	}
}

// Validate reports the first problem found in the parameter file.
func (c *Config) Validate() error {
	if c.Engine.Command == "" {
		return fmt.Errorf("engine.command cannot be empty")
	}
	if c.Source.AvgPhotEn <= 0 {
		return fmt.Errorf("source.avg_phot_en must be positive")
	}
	m := c.InitialMesh
	if m.Ne < 1 || m.Nx < 1 || m.Ny < 1 {
		return fmt.Errorf("initial_mesh: ne, nx and ny must be at least 1 (have %d, %d, %d)", m.Ne, m.Nx, m.Ny)
	}
	if m.XFin < m.XStart || m.YFin < m.YStart {
		return fmt.Errorf("initial_mesh: final position before initial position")
	}
	if c.SamplingFactor < 0 {
		return fmt.Errorf("sampling_factor cannot be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}

	profiles := make(map[string]bool)
	for _, p := range c.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile name cannot be empty")
		}
		if profiles[p.Name] {
			return fmt.Errorf("duplicate profile name: %s", p.Name)
		}
		if p.File == "" {
			return fmt.Errorf("profile %s: file cannot be empty", p.Name)
		}
		profiles[p.Name] = true
	}

	for _, name := range slices.Sorted(maps.Keys(c.Propagation)) {
		if _, err := optics.ParamsFromVector(c.Propagation[name]); err != nil {
			return fmt.Errorf("propagation %s: %w", name, err)
		}
	}
	if c.FinalProp != "" {
		if _, ok := c.Propagation[c.FinalProp]; !ok {
			return fmt.Errorf("final_prop references unknown propagation: %s", c.FinalProp)
		}
	}

	if len(c.Beamline) == 0 {
		return fmt.Errorf("beamline must have at least one element")
	}
	names := make(map[string]bool)
	for i, e := range c.Beamline {
		label := e.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		} else if names[e.Name] {
			return fmt.Errorf("duplicate beamline element name: %s", e.Name)
		}
		names[e.Name] = true
		if _, ok := c.Propagation[e.Prop]; !ok {
			return fmt.Errorf("beamline element %s references unknown propagation: %q", label, e.Prop)
		}
		if err := validateElement(e, profiles); err != nil {
			return fmt.Errorf("beamline element %s: %w", label, err)
		}
	}
	return nil
}

func validateElement(e ElementConfig, profiles map[string]bool) error {
	switch e.Type {
	case TypeDrift:
		return nil
	case TypeAperture:
		_, err := optics.NewAperture(code(e.Shape), code(e.ApertureType), e.Dx, e.Dy, e.X, e.Y)
		return err
	case TypeLens:
		if e.Fx == 0 || e.Fy == 0 {
			return fmt.Errorf("lens focal lengths cannot be zero")
		}
		return nil
	case TypeMirrorError:
		mc := e.Mirror
		if mc.Profile == "" {
			return fmt.Errorf("mirror_error needs a mirror section naming a profile")
		}
		if !profiles[mc.Profile] {
			return fmt.Errorf("mirror references unknown profile: %q", mc.Profile)
		}
		if mc.Nx < 1 || mc.Ny < 1 {
			return fmt.Errorf("mirror nx and ny must be at least 1")
		}
		if mc.Rx < 0 || mc.Ry < 0 {
			return fmt.Errorf("mirror rx and ry cannot be negative")
		}
		if _, err := transmission.ParseAxis(mc.Axis); err != nil {
			return err
		}
		if mc.OPDFile == "" {
			return fmt.Errorf("unnamed mirror_error needs mirror.opd_file")
		}
		return nil
	case "":
		return fmt.Errorf("type cannot be empty")
	}
	return fmt.Errorf("unknown type %q (must be drift, aperture, lens or mirror_error)", e.Type)
}

// code returns the single-letter code s, or 0 when s is not one letter.
func code(s string) byte {
	if len(s) != 1 {
		return 0
	}
	return s[0]
}

// path resolves name against the data folder.
func (c *Config) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataFolder, name)
}
