package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.Alpha)
	assert.Equal(t, 3.0, c.DepressionThreshold)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, 100000, c.MaxRows)
	assert.Equal(t, 8, c.TopValues)
	assert.Equal(t, "plots", c.PlotDir)
	assert.Equal(t, 16.0, c.PlotWidthCm)
	assert.Equal(t, 10.0, c.PlotHeightCm)
	assert.Equal(t, filepath.Join(home, ".surveylens", "studies"), c.StudiesDir)
}

func TestSaveLoadRoundTripAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "custom", "config.yaml")

	c, err := Load(path)
	require.NoError(t, err, "load missing explicit file")
	c.Alpha = 0.01
	c.PlotDir = "charts"
	require.NoError(t, Save(c, path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, got.Alpha)
	assert.Equal(t, "charts", got.PlotDir)

	t.Setenv("SURVEYLENS_ALPHA", "0.1")
	got, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.Alpha, "env override ignored")
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SURVEYLENS_ALPHA", "1.5")
	_, err := Load("")
	assert.Error(t, err, "alpha out of range")

	t.Setenv("SURVEYLENS_ALPHA", "0.05")
	t.Setenv("SURVEYLENS_LOG_LEVEL", "chatty")
	_, err = Load("")
	assert.Error(t, err, "unknown log level")

	t.Setenv("SURVEYLENS_LOG_LEVEL", "info")
	t.Setenv("SURVEYLENS_DEPRESSION_THRESHOLD", "0")
	_, err = Load("")
	assert.ErrorContains(t, err, "depression_threshold")
}

func TestSetAndValue(t *testing.T) {
	c := Default()
	cases := []struct {
		key, val, want string
	}{
		{"alpha", "0.01", "0.01"},
		{"depression_threshold", "4", "4"},
		{"max_rows", "250", "250"},
		{"plot_dir", "out/charts", "out/charts"},
		{"log_level", "DEBUG", "debug"},
	}
	for _, tc := range cases {
		require.NoError(t, c.Set(tc.key, tc.val), "Set(%s, %s)", tc.key, tc.val)
		assert.Equal(t, tc.want, c.Value(tc.key))
	}
	assert.Error(t, c.Set("max_rows", "many"))
	assert.Error(t, c.Set("alpha", "0"))
	assert.Error(t, c.Set("model", "x"))
}

func TestSetRejectsNonPositiveThreshold(t *testing.T) {
	for _, v := range []string{"0", "-1", "+Inf"} {
		c := Default()
		assert.ErrorContains(t, c.Set("depression_threshold", v), "depression_threshold", v)
	}
	assert.NoError(t, ValidateThreshold(2.5))
}
