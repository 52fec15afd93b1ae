package wave

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/waveorc/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEntryRoutesByTag(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, AppendEntry(dir, &Result{Tag: ResultOK, WaveID: "wave1", TaskIDs: []string{"T1"}, TaskOutcomes: map[string]state.TaskStatus{"T1": state.TaskPassed}}))
	require.NoError(t, AppendEntry(dir, &Result{Tag: ResultSetupFailed, WaveID: "wave2", Err: errors.New("boom")}))
	require.NoError(t, AppendEntry(dir, &Result{Tag: ResultTimedOut, WaveID: "wave3", TaskIDs: []string{"T2"}, TaskOutcomes: map[string]state.TaskStatus{"T2": state.TaskFailed}}))

	content := readFile(t, filepath.Join(dir, "progress.txt"))
	assert.Contains(t, content, "=== Wave wave1")
	assert.Contains(t, content, "Parallel Wave Setup Failure")
	assert.Contains(t, content, "boom")
	assert.Contains(t, content, "Parallel Wave Timeout")
}

func TestWriteSummaryPersistsJSON(t *testing.T) {
	dir := t.TempDir()
	r := &Result{RunID: "run1", WaveID: "wave1", Tag: ResultOK, TaskIDs: []string{"T1"}}
	require.NoError(t, WriteSummary(dir, r))

	content := readFile(t, filepath.Join(dir, ".runs", "run1", "waves", "wave1.json"))
	assert.Contains(t, content, "\"waveId\": \"wave1\"")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
