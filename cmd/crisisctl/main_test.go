package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleDataDir = filepath.Join("..", "..", "data")

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dataDir, catalogPath, noFixture, logLevel, asJSON = "", "", false, "warn", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate_SampleData(t *testing.T) {
	out, err := run(t, "validate", "--data-dir", sampleDataDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Feed disaster_a")
	assert.Contains(t, out, "Feed facility_fixture")
	assert.Contains(t, out, "All validations passed.")
	assert.NotContains(t, out, "FAIL")
}

func TestValidate_ReportsSkippedRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disaster_1.json"), []byte(`[
		{"id":"ok-1","reported_at":"2025-07-14T10:00:00Z","locations":["Guwahati"]},
		{"id":"bad-1","reported_at":"yesterday"}
	]`), 0o600))

	out, err := run(t, "validate", "--data-dir", dir, "--no-fixture")
	require.ErrorIs(t, err, errValidationFailed)

	assert.Contains(t, out, "FAIL (1 errors)")
	assert.Contains(t, out, `record 1 (id "bad-1")`)
	assert.Contains(t, out, "Validation FAILED.")
}

func TestCrises_JSON(t *testing.T) {
	out, err := run(t, "crises", "--data-dir", sampleDataDir, "--json")
	require.NoError(t, err)

	var crises []domain.NormalizedCrisis
	require.NoError(t, json.Unmarshal([]byte(out), &crises))
	require.NotEmpty(t, crises)
	assert.Equal(t, 5, crises[0].UrgencyScore)
}

func TestCrises_NoFixture(t *testing.T) {
	out, err := run(t, "crises", "--data-dir", t.TempDir(), "--no-fixture", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestResources_Text(t *testing.T) {
	out, err := run(t, "resources", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "RES_AGG_0")
	assert.Contains(t, out, "Bed Strength")
}

func TestRecommend(t *testing.T) {
	out, err := run(t, "recommend", "FFG-2025-0714-01", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Bed Strength (RES_AGG_0)")
	assert.Contains(t, out, "3. ")
}

func TestRecommend_UnknownCrisis(t *testing.T) {
	_, err := run(t, "recommend", "nope", "--data-dir", sampleDataDir)
	assert.ErrorIs(t, err, pipeline.ErrCrisisNotFound)
}

func TestRecommend_RequiresID(t *testing.T) {
	_, err := run(t, "recommend", "--data-dir", sampleDataDir)
	assert.Error(t, err)
}
