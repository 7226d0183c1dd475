package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenAppliesPragmas(t *testing.T) {
	j := openJournal(t)

	var mode string
	require.NoError(t, j.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), &Run{
		ManifestDir:  "./deps",
		Declarations: "sha256:aaa",
		Plan:         "sha256:bbb",
		Records:      3,
	}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	j := openJournal(t)

	run := &Run{ManifestDir: "./deps", Declarations: "sha256:aaa", Plan: "sha256:bbb", Records: 2}
	require.NoError(t, j.Record(context.Background(), run))

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestListNewestFirst(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	for _, plan := range []string{"sha256:one", "sha256:two", "sha256:three"} {
		require.NoError(t, j.Record(ctx, &Run{
			ManifestDir:  "./deps",
			Declarations: "sha256:decl",
			Plan:         plan,
			Records:      1,
		}))
	}

	runs, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "sha256:three", runs[0].Plan)
	assert.Equal(t, "sha256:two", runs[1].Plan)
}

func TestLastFor(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, &Run{Declarations: "sha256:a", Plan: "sha256:p1"}))
	require.NoError(t, j.Record(ctx, &Run{Declarations: "sha256:a", Plan: "sha256:p2"}))
	require.NoError(t, j.Record(ctx, &Run{Declarations: "sha256:b", Plan: "sha256:p3"}))

	last, err := j.LastFor(ctx, "sha256:a")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "sha256:p2", last.Plan)

	missing, err := j.LastFor(ctx, "sha256:unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVerifyDetectsDrift(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, &Run{Declarations: "sha256:decl", Plan: "sha256:stable"}))

	// Same declarations, same plan: clean.
	drift, err := j.Verify(ctx, "sha256:decl", "sha256:stable")
	require.NoError(t, err)
	assert.Nil(t, drift)

	// Never-seen declarations: nothing to compare against.
	drift, err = j.Verify(ctx, "sha256:new", "sha256:whatever")
	require.NoError(t, err)
	assert.Nil(t, drift)

	// Same declarations, different plan: regression.
	drift, err = j.Verify(ctx, "sha256:decl", "sha256:changed")
	require.NoError(t, err)
	require.NotNil(t, drift)
	assert.Equal(t, "sha256:stable", drift.Previous.Plan)
	assert.Equal(t, "sha256:changed", drift.PlanFP)
	assert.Contains(t, drift.Error(), "plan drift")
}
