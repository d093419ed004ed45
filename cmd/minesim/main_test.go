package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args against a temporary data directory
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MINESIM_DATA_DIR", dir)
	t.Setenv("SIM_WORKERS", "2")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "minesim version "))

	out, err = runCLI(t, "version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v["version"])
}

func TestRunCmd_Table(t *testing.T) {
	out, err := runCLI(t, "run", "--trials", "200", "--years", "3", "--seed", "5", "--sell-year", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Scenario: sell=2 explore=0")
	assert.Contains(t, out, "MEDIAN CASH")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header block, blank line, column header and one line per year
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "3 "))
}

func TestRunCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "run", "--trials", "100", "--years", "5", "--levels", "0,5,5,5,5", "--json")
	require.NoError(t, err)

	var res struct {
		Trials  int    `json:"trial_count"`
		Label   string `json:"label"`
		PerYear []struct {
			Year int `json:"year"`
		} `json:"per_year"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 100, res.Trials)
	assert.Equal(t, "sell=never explore=0,5,5,5,5", res.Label)
	assert.Len(t, res.PerYear, 5)
}

func TestRunCmd_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad levels", []string{"run", "--trials", "10", "--levels", "1,x"}},
		{"sell after horizon", []string{"run", "--trials", "10", "--years", "2", "--sell-year", "3"}},
		{"zero trials", []string{"run", "--trials", "0"}},
		{"missing params file", []string{"run", "--trials", "10", "--params", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRunCmd_ParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("foreclosure_threshold: -1000000\n"), 0644))

	out, err := runCLI(t, "run", "--trials", "100", "--years", "2", "--params", path)
	require.NoError(t, err)
	assert.Contains(t, out, "FORECLOSED")
}

func TestSweepCmd_RankedAndArchived(t *testing.T) {
	out, err := runCLI(t, "sweep", "--trials", "100", "--years", "5", "--json", "--archive")
	require.NoError(t, err)

	var res struct {
		RunID string `json:"run_id"`
		Rows  []struct {
			Label   string `json:"label"`
			Summary struct {
				Foreclosed int     `json:"foreclosed"`
				Median     float64 `json:"median_cash"`
			} `json:"summary"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Rows, 36)
	for i := 1; i < len(res.Rows); i++ {
		assert.LessOrEqual(t, res.Rows[i-1].Summary.Foreclosed, res.Rows[i].Summary.Foreclosed)
	}
}

func TestSweepCmd_Top(t *testing.T) {
	out, err := runCLI(t, "sweep", "--trials", "50", "--years", "2", "--top", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "RANK")
	assert.NotContains(t, out, "Archived as")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "3 "))
}
