package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rival-intel/internal/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTargetsCSV(t *testing.T) {
	path := writeTempCSV(t, "Acme Corp,https://acme.example.com\nGlobex,https://globex.example.com\n")

	targets, err := parseTargetsCSV(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, target{Name: "Acme Corp", URL: "https://acme.example.com"}, targets[0])
	assert.Equal(t, target{Name: "Globex", URL: "https://globex.example.com"}, targets[1])
}

func TestParseTargetsCSV_SkipsHeader(t *testing.T) {
	path := writeTempCSV(t, "name,url\nAcme Corp,https://acme.example.com\n")

	targets, err := parseTargetsCSV(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Acme Corp", targets[0].Name)
}

func TestParseTargetsCSV_SkipsBlankRows(t *testing.T) {
	path := writeTempCSV(t, "Acme Corp,https://acme.example.com\n,\nGlobex,https://globex.example.com\n")

	targets, err := parseTargetsCSV(path)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestParseTargetsCSV_MissingURL(t *testing.T) {
	path := writeTempCSV(t, "Acme Corp,https://acme.example.com\nGlobex,\n")

	targets, err := parseTargetsCSV(path)
	assert.Nil(t, targets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseTargetsCSV_TooFewColumns(t *testing.T) {
	path := writeTempCSV(t, "just-one-column\n")

	_, err := parseTargetsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected name,url columns")
}

func TestParseTargetsCSV_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "name,url\n")

	_, err := parseTargetsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")
}

func TestParseTargetsCSV_MissingFile(t *testing.T) {
	_, err := parseTargetsCSV("/nonexistent/targets.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open csv")
}

func TestWriteResults_ToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.json")
	results := []*model.AnalysisResult{
		{CompetitorName: "Acme Corp", TargetURL: "https://acme.example.com"},
	}

	require.NoError(t, writeResults(results, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"competitor_name": "Acme Corp"`)
}
