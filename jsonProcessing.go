package main

import (
	"path/filepath"
	"strings"

	json "github.com/KevinWang15/go-json5"
	"gopkg.in/yaml.v3"
)

// DisplayOptions are the parameter file keys that control the run itself rather than the
// simulated beamline.
type DisplayOptions struct {
	ShowInput        bool
	WindowSizePixels int
	PlotSizePixels   int
	Title            string
	LogLevel         string
	LogFormat        string // text or json
	PlotFolder       string
}

// parseTable decodes the parameter file into a generic container, YAML for .yaml/.yml and
// JSON5 for everything else.
func parseTable(path string, data []byte) (map[string]interface{}, error) {
	var jsonTable map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &jsonTable); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &jsonTable); err != nil {
			return nil, err
		}
	}
	return jsonTable, nil
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asNumber accepts the float64 of a JSON5 table and the int or float64 of a YAML one.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func validateJsonFileAndFillOptions(jsonTable map[string]interface{}, opts *DisplayOptions) (string, bool) {
	msg := "No problem found in parameter file" // Initialize msg to presumed success.

	showInput, ok := getLeafValue(jsonTable, "show_input_bool")
	if !ok {
		opts.ShowInput = false
	} else {
		opts.ShowInput, ok = showInput.(bool)
		if !ok {
			msg = "show_input_bool: is not a bool"
			return msg, false
		}
	}

	windowSize, ok := getLeafValue(jsonTable, "window_size_pixels")
	if !ok {
		opts.WindowSizePixels = 0 // No windows unless asked for
	} else {
		wSize, ok := asNumber(windowSize)
		if !ok {
			msg = "window_size_pixels: is not a number"
			return msg, false
		}
		opts.WindowSizePixels = int(wSize)
	}

	plotSize, ok := getLeafValue(jsonTable, "plot_size_pixels")
	if !ok {
		opts.PlotSizePixels = 800
	} else {
		pSize, ok := asNumber(plotSize)
		if !ok || pSize < 50 {
			msg = "plot_size_pixels: is not a number of at least 50"
			return msg, false
		}
		opts.PlotSizePixels = int(pSize)
	}

	title, ok := getLeafValue(jsonTable, "title")
	if !ok {
		opts.Title = "Beamline simulation"
	} else {
		opts.Title, ok = title.(string)
		if !ok {
			msg = "title: is not a string"
			return msg, false
		}
	}

	level, ok := getLeafValue(jsonTable, "log_level")
	if !ok {
		opts.LogLevel = "info"
	} else {
		opts.LogLevel, ok = level.(string)
		if !ok {
			msg = "log_level: is not a string"
			return msg, false
		}
		switch strings.ToLower(opts.LogLevel) {
		case "debug", "info", "warn", "warning", "error":
		default:
			msg = "log_level: must be debug, info, warn or error"
			return msg, false
		}
	}

	format, ok := getLeafValue(jsonTable, "log_format")
	if !ok {
		opts.LogFormat = "text"
	} else {
		opts.LogFormat, ok = format.(string)
		if !ok || (opts.LogFormat != "text" && opts.LogFormat != "json") {
			msg = "log_format: must be text or json"
			return msg, false
		}
	}

	folder, ok := getLeafValue(jsonTable, "plot_folder")
	if ok {
		opts.PlotFolder, ok = folder.(string)
		if !ok {
			msg = "plot_folder: is not a string"
			return msg, false
		}
	}

	cmd, ok := getLeafValue(jsonTable, "engine", "command")
	if !ok {
		msg = "engine.command: not found"
		return msg, false
	}
	if _, ok = cmd.(string); !ok {
		msg = "engine.command: is not a string"
		return msg, false
	}

	return msg, true
}
