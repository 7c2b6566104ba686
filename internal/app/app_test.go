package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/config"
	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const materialsYAML = `domain: materials
entries:
  - date: 2026-01-10
    amount: 100
    category: Cemento
  - date: 2026-02-10
    amount: 120
    category: Cemento
  - date: 2026-03-10
    amount: 140
    category: Cemento
  - date: 2026-04-10
    amount: "165.00"
    category: Cemento
  - date: 2026-05-10
    amount: 195
    category: Cemento
  - date: 2026-05-20
    amount: 10
    category: Arena
`

// resetFlags restores every command flag to its default between runs.
func resetFlags() {
	flagNoColor, flagJSON, flagVerbose, flagConfig = false, false, false, ""
	generateInput, generateLimit, generateNow, generateFrom, generateTo = "", 0, "", "", ""
	generateAll, generateSave = false, false
	importDomain = ""
	historyLimit, historyRun = 20, ""
	dismissUndo = false
}

// testEnv writes a config pointing at a temporary sqlite database and a
// dataset file, and returns their paths.
func testEnv(t *testing.T) (cfgPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	dataPath = filepath.Join(dir, "materials.yaml")
	cfgYAML := "database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "insightwatch.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))
	require.NoError(t, os.WriteFile(dataPath, []byte(materialsYAML), 0o644))
	return cfgPath, dataPath
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", cfgPath, "--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeIDs(t *testing.T, out string) []string {
	t.Helper()
	var insights []insight.Insight
	require.NoError(t, json.Unmarshal([]byte(out), &insights), out)
	ids := make([]string, len(insights))
	for i, in := range insights {
		ids[i] = in.ID
	}
	return ids
}

// --- generate ---

func TestGenerate_FromYAMLFile(t *testing.T) {
	cfgPath, dataPath := testEnv(t)

	out, err := runCLI(t, cfgPath, "generate", "--input", dataPath, "--now", "2026-06-15", "--json")
	require.NoError(t, err)
	assert.Contains(t, decodeIDs(t, out), "concentration-single")
}

func TestGenerate_CardsOutput(t *testing.T) {
	cfgPath, dataPath := testEnv(t)

	out, err := runCLI(t, cfgPath, "generate", "materials", "-i", dataPath, "--now", "2026-06-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Materiales")
	assert.Contains(t, out, "[CRITICAL]")
	assert.Contains(t, out, "Cemento")
}

func TestGenerate_Errors(t *testing.T) {
	cfgPath, dataPath := testEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown domain", []string{"generate", "payroll"}, "unknown domain"},
		{"no domain", []string{"generate"}, "no domain given"},
		{"bad date", []string{"generate", "-i", dataPath, "--now", "15/06/2026"}, "invalid --now"},
		{"all with input", []string{"generate", "--all", "-i", dataPath}, "--all"},
		{"missing file", []string{"generate", "-i", filepath.Join(t.TempDir(), "nope.yaml")}, "reading"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, cfgPath, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// --- store workflow ---

func TestImportGenerateDismissHistory(t *testing.T) {
	cfgPath, dataPath := testEnv(t)

	out, err := runCLI(t, cfgPath, "import", dataPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"entries": 6`)

	out, err = runCLI(t, cfgPath, "generate", "materials", "--now", "2026-06-15", "--save", "--json")
	require.NoError(t, err)
	require.Contains(t, decodeIDs(t, out), "concentration-single")

	_, err = runCLI(t, cfgPath, "dismiss", "materials", "concentration-single")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "generate", "materials", "--now", "2026-06-15", "--json")
	require.NoError(t, err)
	assert.NotContains(t, decodeIDs(t, out), "concentration-single")

	_, err = runCLI(t, cfgPath, "dismiss", "materials", "concentration-single", "--undo")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "history", "materials", "--json")
	require.NoError(t, err)
	var runs []struct {
		ID           string `json:"id"`
		Domain       string `json:"domain"`
		InsightCount int    `json:"insight_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "materials", runs[0].Domain)
	assert.Positive(t, runs[0].InsightCount)

	out, err = runCLI(t, cfgPath, "history", "--run", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cemento")
}

func TestGenerateAll_JSON(t *testing.T) {
	cfgPath, dataPath := testEnv(t)
	_, err := runCLI(t, cfgPath, "import", dataPath)
	require.NoError(t, err)

	out, err := runCLI(t, cfgPath, "generate", "--all", "--now", "2026-06-15", "--json")
	require.NoError(t, err)

	var board map[string][]insight.Insight
	require.NoError(t, json.Unmarshal([]byte(out), &board))
	assert.Len(t, board, 6)
	assert.NotEmpty(t, board["materials"])
}

func TestHistory_Empty(t *testing.T) {
	cfgPath, _ := testEnv(t)
	out, err := runCLI(t, cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No saved runs")
}

// --- helpers ---

func TestParseWindow_InclusiveEnd(t *testing.T) {
	w, err := parseWindow("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), w.End)

	w, err = parseWindow("", "")
	require.NoError(t, err)
	assert.True(t, w.IsZero())
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(config.Log{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1), "debug disabled at warn")

	l, err = newLogger(config.Log{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1), "verbose enables debug")

	_, err = newLogger(config.Log{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestReadDataset_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	body := `{"domain":"admin","kpis":{"churnRate":12}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	ds, err := readDataset(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", string(ds.Domain))
	require.NotNil(t, ds.KPIs)
}
