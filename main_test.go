package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLeafValue(t *testing.T) {
	table, err := parseTable("p.json5", []byte(`{engine: {command: "srw", args: ["-q"]}, title: "t"}`))
	require.NoError(t, err)

	v, ok := getLeafValue(table, "engine", "command")
	require.True(t, ok)
	assert.Equal(t, "srw", v)

	_, ok = getLeafValue(table, "engine", "missing")
	assert.False(t, ok)
	_, ok = getLeafValue(table, "title", "deeper")
	assert.False(t, ok)
}

func TestDisplayOptionsDefaults(t *testing.T) {
	table, err := parseTable("p.json5", []byte(`{engine: {command: "srw"}}`))
	require.NoError(t, err)

	var opts DisplayOptions
	msg, ok := validateJsonFileAndFillOptions(table, &opts)
	require.True(t, ok, msg)
	assert.Equal(t, DisplayOptions{
		WindowSizePixels: 0,
		PlotSizePixels:   800,
		Title:            "Beamline simulation",
		LogLevel:         "info",
		LogFormat:        "text",
	}, opts)
}

func TestDisplayOptionsYAML(t *testing.T) {
	data := []byte("engine:\n  command: srw\nwindow_size_pixels: 600\nshow_input_bool: true\nlog_level: debug\nplot_folder: plots\n")
	table, err := parseTable("p.yml", data)
	require.NoError(t, err)

	var opts DisplayOptions
	msg, ok := validateJsonFileAndFillOptions(table, &opts)
	require.True(t, ok, msg)
	assert.Equal(t, 600, opts.WindowSizePixels)
	assert.True(t, opts.ShowInput)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "plots", opts.PlotFolder)
}

func TestDisplayOptionsErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{title: "x"}`, "engine.command: not found"},
		{`{engine: {command: 3}}`, "engine.command: is not a string"},
		{`{engine: {command: "e"}, show_input_bool: "yes"}`, "show_input_bool: is not a bool"},
		{`{engine: {command: "e"}, window_size_pixels: "big"}`, "window_size_pixels: is not a number"},
		{`{engine: {command: "e"}, plot_size_pixels: 10}`, "plot_size_pixels: is not a number of at least 50"},
		{`{engine: {command: "e"}, log_level: "loud"}`, "log_level: must be debug, info, warn or error"},
		{`{engine: {command: "e"}, log_format: "xml"}`, "log_format: must be text or json"},
	}
	for _, tt := range tests {
		table, err := parseTable("p.json5", []byte(tt.input))
		require.NoError(t, err, tt.input)

		var opts DisplayOptions
		msg, ok := validateJsonFileAndFillOptions(table, &opts)
		assert.False(t, ok, tt.input)
		assert.Equal(t, tt.want, msg, tt.input)
	}
}

func TestParseTableFormatError(t *testing.T) {
	_, err := parseTable("p.json5", []byte(`{engine: `))
	assert.Error(t, err)
	_, err = parseTable("p.yaml", []byte("engine: [unclosed\n"))
	assert.Error(t, err)
}

func TestLoadConfigFromBytes(t *testing.T) {
	data := []byte(`{
  engine: {command: "srw"},
  profiles: [{name: "m", file: "m.dat"}],
  propagation: {p: [0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 0, 0]},
  beamline: [{name: "m1", type: "mirror_error", prop: "p",
    mirror: {profile: "m", nx: 2, ny: 2, axis: "y", angle: 0.001}}],
}`)
	cfg, err := loadConfig("/does/not/exist/params.json5", data)
	require.NoError(t, err)
	require.Len(t, cfg.Beamline, 1)
	assert.Equal(t, "m", cfg.Beamline[0].Mirror.Profile)
	assert.Equal(t, 2, cfg.Beamline[0].Mirror.Ny)
	assert.Equal(t, "srw", cfg.Engine.Command)

	_, err = loadConfig("params.yaml", []byte("beamline: [unclosed\n"))
	assert.ErrorContains(t, err, "params.yaml")
}
