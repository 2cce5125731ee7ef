package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, backend string) (configPath, csvPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "rstar.yaml")
	cfg := "storage:\n  backend: " + backend + "\n  path: " + filepath.Join(dir, "data") +
		"\n  compression: lz4\nindex:\n  dimensions: 2\ningest:\n  skip_header: true\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))

	csvPath = filepath.Join(dir, "cities.csv")
	csv := "id,name,lat,lon\n1,Athens,37.98,23.72\n2,Berlin,52.52,13.40\n3,Cairo,30.04,31.24\n4,Dublin,53.35,-6.26\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))
	return configPath, csvPath
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func TestRun(t *testing.T) {
	for _, backend := range []string{"local", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg, csv := setup(t, backend)

			out, err := runCmd(t, "-config", cfg, "load", "-file", csv, "-bulk")
			require.NoError(t, err)
			assert.Contains(t, out, "loaded 4 records into 1 data blocks")

			out, err = runCmd(t, "-config", cfg, "knn", "-point", "38,24", "-k", "1", "-linear")
			require.NoError(t, err)
			assert.Contains(t, out, "ID: 1, Name: Athens, Coordinates: 37.98, 23.72")
			assert.Contains(t, out, "linear knn query: 1 neighbors")

			out, err = runCmd(t, "-config", cfg, "range", "-lower", "50,-10", "-upper", "55,15")
			require.NoError(t, err)
			assert.Contains(t, out, "Berlin")
			assert.Contains(t, out, "Dublin")
			assert.NotContains(t, out, "Athens")

			out, err = runCmd(t, "-config", cfg, "insert", "-id", "5", "-name", "Oslo", "-coords", "59.91,10.75")
			require.NoError(t, err)
			assert.Contains(t, out, "inserted record 5")

			_, err = runCmd(t, "-config", cfg, "delete", "-id", "3")
			require.NoError(t, err)

			out, err = runCmd(t, "-config", cfg, "skyline", "-linear")
			require.NoError(t, err)
			assert.Contains(t, out, "Athens")
			assert.Contains(t, out, "Berlin")
			assert.Contains(t, out, "Dublin")
			assert.NotContains(t, out, "Cairo")
			assert.NotContains(t, out, "Oslo")
			assert.Contains(t, out, "linear skyline query: 3 records")

			out, err = runCmd(t, "-config", cfg, "stats")
			require.NoError(t, err)
			assert.Contains(t, out, "records: 4")
			assert.Contains(t, out, "compression: lz4")
			assert.Contains(t, out, "structure: ok")
		})
	}
}

func TestRun_Errors(t *testing.T) {
	cfg, _ := setup(t, "local")

	_, err := runCmd(t)
	assert.ErrorIs(t, err, flag.ErrHelp)

	_, err = runCmd(t, "-config", cfg, "explode")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCmd(t, "-config", cfg, "load")
	assert.ErrorContains(t, err, "-file is required")

	_, err = runCmd(t, "-config", cfg, "knn", "-point", "1,x")
	assert.Error(t, err)

	_, err = runCmd(t, "-config", cfg, "knn", "-point", "1,2,3")
	assert.Error(t, err)

	_, err = runCmd(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"), "stats")
	assert.Error(t, err)
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" 1.5, -2 ,3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2, 3}, p)

	_, err = parsePoint("")
	assert.Error(t, err)
}
