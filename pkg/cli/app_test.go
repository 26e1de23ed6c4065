package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/radex/pkg/attenuation"
	"github.com/mchmarny/radex/pkg/logging"
	"github.com/mchmarny/radex/pkg/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	os.Exit(m.Run())
}

// runApp runs the CLI against an isolated config dir and returns stdout.
func runApp(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)

	full := append([]string{appName, "--config", dir}, args...)
	err := app.Run(context.Background(), full)
	return buf.String(), err
}

func TestCalculateNCmd(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "", "n", "--x30", "20", "--contact", "100", "--buildup", "1.05", "--rs", "0.05")
	require.NoError(t, err)

	var r exponentResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.InDelta(t, 0.854, r.N, 0.001)
	assert.Equal(t, 1.05, r.Buildup)
}

func TestCalculateNCmd_DefaultBuildup(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "", "n", "--x30", "20", "--contact", "100", "--rs", "0.05")
	require.NoError(t, err)

	var r exponentResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, attenuation.DefaultBuildup, r.Buildup)
}

func TestCalculateNCmd_Invalid(t *testing.T) {
	_, err := runApp(t, t.TempDir(), "", "n", "--x30", "0", "--contact", "100", "--rs", "0.05")
	require.Error(t, err)
	assert.ErrorIs(t, err, attenuation.ErrInvalidInput)
}

func TestExposureCmd(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "", "exposure", "--distance", "0", "--contact", "100", "--n", "2.5", "--rs", "0.05")
	require.NoError(t, err)

	var r exposureResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 100.0, r.Exposure)

	_, err = runApp(t, t.TempDir(), "", "exposure", "--distance", "-0.1", "--contact", "100", "--n", "2.5", "--rs", "0.05")
	assert.ErrorIs(t, err, attenuation.ErrInvalidInput)
}

func TestCubeCmd(t *testing.T) {
	dir := t.TempDir()
	out, err := runApp(t, dir, "", "cube", "--side", "0.1", "--contact", "100", "-d", "0", "-d", "0.3")
	require.NoError(t, err)

	var r profileResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.NotEmpty(t, r.RunID)
	assert.Greater(t, r.ID, int64(0))
	assert.Equal(t, 2.5, r.Exponent)
	assert.Equal(t, 0.05, r.SelfDistance)
	require.Len(t, r.Points, 2)
	assert.Equal(t, 100.0, r.Points[0].Exposure)

	out, err = runApp(t, dir, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, r.RunID)
}

func TestCubeCmd_Calibrated(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "", "cube", "--side", "0.1", "--contact", "100", "--x30", "20", "--buildup", "1.05")
	require.NoError(t, err)

	var r profileResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.True(t, r.Calibrated)
	assert.InDelta(t, 0.854, r.Exponent, 0.001)
	require.Len(t, r.Points, 5)
	assert.InDelta(t, 20.0, r.Points[1].Exposure, 1e-9)
}

func TestCalcCmds_NonFinite(t *testing.T) {
	dir := t.TempDir()

	_, err := runApp(t, dir, "", "n", "--x30", "20", "--contact", "100", "--buildup=-1", "--rs", "0.05")
	assert.ErrorIs(t, err, survey.ErrNonFinite)

	_, err = runApp(t, dir, "", "exposure", "--distance", "1", "--contact", "100", "--n=-1000", "--rs", "0.05")
	assert.ErrorIs(t, err, survey.ErrNonFinite)

	_, err = runApp(t, dir, "", "cube", "--side", "0.1", "--contact", "100", "--x30", "20", "--buildup=-1")
	assert.ErrorIs(t, err, survey.ErrNonFinite)

	out, err := runApp(t, dir, "", "history", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "run_id")
}

func TestCylinderCmd(t *testing.T) {
	out, err := runApp(t, t.TempDir(), "", "--format", "yaml", "cylinder",
		"--diameter", "0.1", "--height", "0.2", "--orientation", "top", "--contact", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "selfDistance: 0.1")
	assert.Contains(t, out, "n: 2")

	_, err = runApp(t, t.TempDir(), "", "cylinder",
		"--diameter", "0.1", "--height", "0.2", "--orientation", "diagonal", "--contact", "100")
	assert.ErrorIs(t, err, attenuation.ErrInvalidInput)
}

func TestBatchCmd(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "batch.jsonc")
	require.NoError(t, os.WriteFile(file, []byte(`{
		// two sources
		"distances": [0, 1],
		"items": [
			{"name": "a", "source": {"shape": "cube", "side": 0.1, "contact": 100}},
			{"name": "b", "source": {"shape": "cylinder", "diameter": 0.1, "height": 0.2, "orientation": "side", "contact": 50}},
		]
	}`), 0600))

	out, err := runApp(t, dir, "", "batch", "--file", file, "--workers", "2")
	require.NoError(t, err)

	var r struct {
		RunID string `json:"run_id"`
		Rows  []struct {
			Name string `json:"name"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Rows, 2)
	assert.Equal(t, "a", r.Rows[0].Name)
	assert.Equal(t, "b", r.Rows[1].Name)

	out, err = runApp(t, dir, "", "history", "show", "--run", r.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "b"`)

	out, err = runApp(t, dir, "", "history", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"calculations": 2`)
}

func TestHistoryShow_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := runApp(t, dir, "", "history", "show")
	assert.Error(t, err)

	_, err = runApp(t, dir, "", "history", "show", "--id", "42")
	assert.Error(t, err)
}

func TestResetCmd(t *testing.T) {
	dir := t.TempDir()
	_, err := runApp(t, dir, "", "cube", "--side", "0.1", "--contact", "100")
	require.NoError(t, err)

	out, err := runApp(t, dir, "n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = runApp(t, dir, "y\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset complete.")

	out, err = runApp(t, dir, "", "history", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"calculations": 0`)

	_, err = runApp(t, dir, "", "reset", "--yes")
	assert.NoError(t, err)
}

func TestFormatFlag_Invalid(t *testing.T) {
	_, err := runApp(t, t.TempDir(), "", "--format", "xml", "n", "--x30", "20", "--contact", "100", "--rs", "0.05")
	assert.Error(t, err)
}
