package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/bob-anderson-ok/MirrorBeamline/engine"
	"github.com/bob-anderson-ok/MirrorBeamline/logger"
	"github.com/bob-anderson-ok/MirrorBeamline/plots"
	"github.com/bob-anderson-ok/MirrorBeamline/simulation"
)

const version = "0_3_0"

func main() {

	programStart := time.Now()

	args := os.Args

	if len(args) != 2 {
		fmt.Println("\n\tWrong number of arguments.\n\tUsage: MirrorBeamline <parameter-file>")
		os.Exit(1)
	}

	path := args[1]

	// Read the Json5 (or Json, or YAML) parameter file
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tAttempt to read input file %q failed: %w\n", path, err))
		os.Exit(2)
	}

	jsonTable, err := parseTable(path, data)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tFormat error in file %q: %w\n", path, err))
		os.Exit(3)
	}

	var opts DisplayOptions
	msg, ok := validateJsonFileAndFillOptions(jsonTable, &opts)
	if !ok {
		fmt.Println(msg)
		os.Exit(4)
	}

	log := logger.NewText(opts.LogLevel, os.Stderr)
	if opts.LogFormat == "json" {
		log = logger.New(opts.LogLevel, os.Stderr)
	}
	logger.SetDefault(log)
	log.Info("MirrorBeamline", "version", version, "parameter_file", path)

	// Check for user wanting printout of complete parameter file
	if opts.ShowInput {
		fmt.Printf("%s", "\nPrintout of complete parameter file contents...\n")
		fmt.Println(string(data))
	}

	cfg, err := loadConfig(path, data)
	if err != nil {
		fmt.Println(err)
		os.Exit(5)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println(fmt.Errorf("\n\tParameter file %q: %w\n", path, err))
		os.Exit(6)
	}

	eng := engine.New(cfg.Engine.Command, cfg.Engine.Args...)
	eng.Log = log
	if err := eng.Start(); err != nil {
		fmt.Println(err)
		os.Exit(7)
	}

	res, err := simulation.Run(cfg, eng, log)
	if cerr := eng.Close(); cerr != nil {
		log.Warn("engine did not shut down cleanly", "err", cerr)
	}
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tSimulation failed: %w\n", err))
		os.Exit(8)
	}

	figs, err := resultFigures(res)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tPlotting failed: %w\n", err))
		os.Exit(9)
	}

	plotFolder := opts.PlotFolder
	if plotFolder == "" {
		plotFolder = cfg.DataFolder
	}
	if err := os.MkdirAll(plotFolder, 0o755); err != nil {
		fmt.Println(err)
		os.Exit(10)
	}
	size := float64(opts.PlotSizePixels)
	files, err := plots.SaveFigures(plotFolder, figs, size, size*0.75)
	if err != nil {
		fmt.Println(fmt.Errorf("\n\tSaving plots failed: %w\n", err))
		os.Exit(10)
	}
	log.Info("plots saved", "folder", plotFolder, "count", len(files))

	fmt.Printf("\nRun completed in %s\n", time.Since(programStart).Round(time.Millisecond))

	if opts.WindowSizePixels > 0 {
		fmt.Println("Showing results (close the main window to exit) ...")
		showFigures(opts, figs, log)
	}
}

// loadConfig decodes the simulation part of the parameter file from the bytes already read.
func loadConfig(path string, data []byte) (*simulation.Config, error) {
	cfg, err := simulation.Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("\n\tFailed to parse parameter file %q: %w\n", path, err)
	}
	return cfg, nil
}

// resultFigures collects the figures of a run: wavefront before and after propagation and
// the OPD map of every mirror.
func resultFigures(res *simulation.Result) ([]plots.Figure, error) {
	b := res.Before
	figs, err := plots.WavefrontFigures("before", "Before Propagation", b.Mesh, b.Intensity, b.IntensityX, b.IntensityY, b.Phase)
	if err != nil {
		return nil, err
	}
	a := res.After
	after, err := plots.WavefrontFigures("after", "After Propagation", a.Mesh, a.Intensity, a.IntensityX, a.IntensityY, a.Phase)
	if err != nil {
		return nil, err
	}
	figs = append(figs, after...)
	for _, mr := range res.Mirrors {
		f, err := plots.OPDFigure(mr.Name, mr.Map)
		if err != nil {
			return nil, err
		}
		figs = append(figs, f)
	}
	return figs, nil
}

// showFigures opens one window per figure and blocks until the main window is closed.
func showFigures(opts DisplayOptions, figs []plots.Figure, log *slog.Logger) {
	if len(figs) == 0 {
		return
	}
	size := float32(opts.WindowSizePixels)

	// We supply an ID (hopefully unique) because we may need to use the preferences API
	myApp := app.NewWithID("com.gmail.ok.anderson.bob.mirrorbeamline")

	var first fyne.Window
	for i, f := range figs {
		img := canvas.NewImageFromImage(plots.Render(f.Plot, float64(size), float64(size)*0.75))
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(size, size*0.75))

		w := myApp.NewWindow(opts.Title + " - " + f.Plot.Title.Text)
		w.SetContent(container.NewStack(img))
		w.Resize(fyne.NewSize(size, size*0.75))
		if i == 0 {
			first = w
			w.SetMaster()
			w.CenterOnScreen()
			continue
		}
		w.Show()
	}
	log.Debug("result windows opened", "count", len(figs))
	first.ShowAndRun()
}
