package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiomics/internal/dataprocessing"
	"radiomics/internal/exporter"
	"radiomics/internal/reshape"
	"radiomics/internal/shared/testutil"
	"radiomics/pkg/contracts"
	"radiomics/pkg/contracts/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTransformCmd_DefaultOutput(t *testing.T) {
	cfg := writeConfig(t, "{}\n")
	input := testutil.WriteWorkbook(t, "study.xlsx", "Feuil1", testutil.SampleLongTable())

	out, err := execute(t, "--config", cfg, "transform", input)
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(input), "transformed_study.csv")
	assert.Equal(t, want, strings.TrimSpace(out))

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "PatientID,PatientName,"))
	assert.True(t, strings.HasPrefix(lines[1], "P1,Alice,5.1,12"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "P2,Bob,4.0,10"), lines[2])
}

func TestTransformCmd_XLSXWithSummary(t *testing.T) {
	cfg := writeConfig(t, "export:\n  sheet_name: Wide\n")
	input := testutil.WriteWorkbook(t, "study.xlsx", "Data", testutil.SampleLongTable())
	target := filepath.Join(t.TempDir(), "nested", "wide.xlsx")

	out, err := execute(t, "--config", cfg, "transform", input, "--sheet", "Data", "--out", target, "--summary")
	require.NoError(t, err)

	var summary reshape.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 4, summary.InputRows)
	assert.Equal(t, 2, summary.Patients)

	wide, err := dataprocessing.ReadFile(target, dataprocessing.ReadOptions{SheetName: "Wide"})
	require.NoError(t, err)
	assert.Len(t, wide.Rows, 2)
	assert.Equal(t, "PatientID", wide.Columns[0])
}

func TestTransformCmd_Errors(t *testing.T) {
	cfg := writeConfig(t, "{}\n")

	t.Run("missing key column", func(t *testing.T) {
		table := domain.NewTable("PatientID", "Timepoint", "Object", "Series", "SUVmax")
		table.AppendRow("P1", "Baseline", "Tumor", "T2", "1")
		input := testutil.WriteWorkbook(t, "study.xlsx", "Feuil1", table)

		_, err := execute(t, "--config", cfg, "transform", input)
		var missing *reshape.MissingColumnError
		require.True(t, errors.As(err, &missing), "got %v", err)
		assert.Contains(t, missing.Columns, "PatientName")
	})

	t.Run("unknown format", func(t *testing.T) {
		input := testutil.WriteWorkbook(t, "study.xlsx", "Feuil1", testutil.SampleLongTable())
		_, err := execute(t, "--config", cfg, "transform", input, "--format", "json")
		assert.Error(t, err)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "transform", filepath.Join(t.TempDir(), "absent.xlsx"))
		assert.Error(t, err)
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := execute(t, "--config", cfg, "transform")
		assert.Error(t, err)
	})
}

func TestVocabularyCmd(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		out, err := execute(t, "--config", writeConfig(t, "{}\n"), "vocabulary")
		require.NoError(t, err)

		var got reshape.Vocabulary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, reshape.DefaultVocabulary(), got)
	})

	t.Run("override", func(t *testing.T) {
		cfg := writeConfig(t, "vocabulary:\n  timepoints: [Week0, Week6]\n")
		out, err := execute(t, "--config", cfg, "vocabulary")
		require.NoError(t, err)

		var got reshape.Vocabulary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, []string{"Week0", "Week6"}, got.Timepoints)
		assert.Equal(t, reshape.DefaultVocabulary().Series, got.Series)
	})

	t.Run("duplicate labels", func(t *testing.T) {
		cfg := writeConfig(t, "vocabulary:\n  objects: [Tumor, ' Tumor ']\n")
		_, err := execute(t, "--config", cfg, "vocabulary")
		assert.Error(t, err)
	})
}

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		name       string
		out        string
		format     string
		wantFormat exporter.Format
		wantPath   string
		wantErr    bool
	}{
		{name: "defaults", wantFormat: exporter.FormatCSV, wantPath: filepath.Join("in", "transformed_study.csv")},
		{name: "format only", format: "XLSX", wantFormat: exporter.FormatXLSX, wantPath: filepath.Join("in", "transformed_study.xlsx")},
		{name: "from extension", out: "wide.xlsx", wantFormat: exporter.FormatXLSX, wantPath: "wide.xlsx"},
		{name: "format wins", out: "wide.dat", format: "csv", wantFormat: exporter.FormatCSV, wantPath: "wide.dat"},
		{name: "unknown extension", out: "wide.dat", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, path, err := resolveOutput(filepath.Join("in", "study.xlsx"), tt.out, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, f)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, contracts.Version)
}
