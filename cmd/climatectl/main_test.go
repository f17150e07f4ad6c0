package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/learn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	ds := climate.Synthetic(-74.01, 40.71, 1985, 2024, 11)
	data, err := json.Marshal(ds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.Bytes(), err
}

func TestOutlookFromFixture(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "outlook", "--data", path, "--lat", "40.71", "--lon", "-74.01",
		"--date", "01/15", "--window", "3", "--seed", "5", "--temp-at-least", "0")
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal(out, &report))
	assert.Equal(t, 1, report.Month)
	assert.Equal(t, 15, report.Day)
	assert.Equal(t, "coordinates", report.Place.Source)
	assert.Equal(t, 40, report.Years.Count)

	require.NotNil(t, report.Precipitation)
	assert.NotNil(t, report.Precipitation.Empirical)
	assert.NotNil(t, report.Precipitation.Parametric)
	require.NotNil(t, report.Precipitation.Model)
	assert.True(t, report.Precipitation.Model.Available)

	require.NotNil(t, report.Temperature)
	assert.NotNil(t, report.Temperature.AtLeast)
	require.NotNil(t, report.Wind)
	assert.Nil(t, report.Wind.AtLeast)
}

func TestOutlookNoML(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "outlook", "--data", path, "--lat", "40.71", "--lon", "-74.01",
		"--date", "07/04", "--method", "parametric", "--no-ml")
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal(out, &report))
	require.NotNil(t, report.Precipitation)
	assert.Nil(t, report.Precipitation.Model)
	assert.NotNil(t, report.Precipitation.Selected.Parametric)
}

func TestTrainIsSeeded(t *testing.T) {
	path := writeFixture(t)
	args := []string{"train", "--data", path, "--lat", "40.71", "--lon", "-74.01",
		"--date", "03/10", "--window", "2", "--seed", "42", "--epochs", "50"}

	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	var res learn.RunResult
	require.NoError(t, json.Unmarshal(first, &res))
	assert.True(t, res.Available)
	assert.Equal(t, res.Samples, res.TrainSamples+res.TestSamples)
	assert.Nil(t, res.Model)
	require.NotNil(t, res.TestMetrics)
}

func TestFeatures(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "features", "--data", path, "--lat", "40.71", "--lon", "-74.01",
		"--date", "10/01", "--lags", "2")
	require.NoError(t, err)

	var summary learn.Summary
	require.NoError(t, json.Unmarshal(out, &summary))
	assert.Positive(t, summary.Samples)
	assert.Equal(t, summary.Samples, summary.Positives+summary.Negatives)
	assert.NotEmpty(t, summary.Features)
}

func TestCommandErrors(t *testing.T) {
	path := writeFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing date", args: []string{"outlook", "--data", path, "--lat", "1", "--lon", "2"}},
		{name: "lone latitude", args: []string{"outlook", "--data", path, "--lat", "1", "--date", "01/01"}},
		{name: "bad date", args: []string{"features", "--data", path, "--lat", "1", "--lon", "2", "--date", "02/30"}},
		{name: "missing file", args: []string{"train", "--data", filepath.Join(t.TempDir(), "nope.json"), "--lat", "1", "--lon", "2", "--date", "01/01"}},
		{name: "unknown method", args: []string{"outlook", "--data", path, "--lat", "1", "--lon", "2", "--date", "01/01", "--method", "magic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
