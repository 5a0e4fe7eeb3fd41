package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundamenta/internal/contracts"
	"github.com/wonny/fundamenta/internal/thresholds"
)

func TestRadarPath(t *testing.T) {
	assert.Equal(t, "out/radar.pdf", radarPath("out/radar.pdf", "PETR4", false))
	assert.Equal(t, "out/radar_petr4.pdf", radarPath("out/radar.pdf", "PETR4", true))
	assert.Equal(t, "radar_vale3", radarPath("radar", "VALE3", true))
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgres://app:***@db:5432/fundamenta", maskPassword("postgres://app:secret@db:5432/fundamenta"))
	assert.Equal(t, "postgres://db:5432/fundamenta", maskPassword("postgres://db:5432/fundamenta"))
	assert.Equal(t, "", maskPassword(""))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		thresholdsFile, thresholdsName = "", ""
		thresholdsCheck, thresholdsJSON = false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestThresholdsCommand(t *testing.T) {
	out, err := runRoot(t, "thresholds", "--name", "P/L")
	require.NoError(t, err)
	assert.Contains(t, out, "P/L\n")
	assert.Contains(t, out, "- otimo:     0 a 10")
	assert.Contains(t, out, "- negativo:  < 0 (fora da escala)")
	assert.Contains(t, out, "hash "+thresholds.Reference().Hash())
}

func TestThresholdsCommand_Check(t *testing.T) {
	out, err := runRoot(t, "thresholds", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "THRESHOLD TABLE CHECK")
	assert.Contains(t, out, "Table is valid (0 warnings)")
}

func TestThresholdsCommand_CheckMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := []byte("indicators:\n  - name: P/L\n    tiers:\n      - {label: baixo, max: 10}\n      - {label: alto, min: 12}\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := runRoot(t, "thresholds", "--file", path, "--check")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrMalformedThresholdTable)
	assert.Contains(t, out, "gap")
}
