package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryEmptyJournal(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	out, err := execute(t, "history", "--journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestHistoryListsRuns(t *testing.T) {
	dir := writeManifest(t, validManifest)
	tmp := t.TempDir()
	journalPath := filepath.Join(tmp, "journal.db")

	_, err := execute(t, "generate", dir, "-o", filepath.Join(tmp, "gen.go"), "--journal", journalPath)
	require.NoError(t, err)

	out, err := execute(t, "history", "--journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, out, dir)
	assert.Contains(t, out, "3 record(s)")
	assert.Contains(t, out, "declarations ")
	assert.Contains(t, out, "plan ")
}

func TestHistoryJSONOutput(t *testing.T) {
	dir := writeManifest(t, validManifest)
	tmp := t.TempDir()
	journalPath := filepath.Join(tmp, "journal.db")

	_, err := execute(t, "generate", dir, "-o", filepath.Join(tmp, "gen.go"), "--journal", journalPath)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "history", "--journal", journalPath)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	runs, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, runs, 1)
}
