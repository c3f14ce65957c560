package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpf-ci/dpf-version/pkg/updater"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestOpen_CreatesSchema(t *testing.T) {
	t.Parallel()
	l := openLedger(t)

	var v int
	require.NoError(t, l.db.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "history.sqlite")

	l, err := Open(p)
	require.NoError(t, err)
	_, err = l.Record(context.Background(), Run{TargetVersion: "25.4.0"})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(p)
	require.NoError(t, err)
	defer l.Close()
	runs, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestLedger_RecordAndGet(t *testing.T) {
	t.Parallel()
	l := openLedger(t)
	ctx := context.Background()

	res := &updater.Result{
		TargetVersion:   "25.4.0",
		PreviousVersion: "25.1.1",
		Components:      []string{"ovn-kubernetes", "flannel"},
		DryRun:          true,
		Records: []updater.UpdateRecord{
			{File: "a.yaml", FieldPath: "spec.helmChart.source.version", OldValue: "v25.1.1", NewValue: "v25.4.0"},
			{File: "b.yaml", FieldPath: "image tags", MutationCount: 2},
		},
		Success:   []string{"a.yaml", "b.yaml"},
		Failed:    []updater.Failure{{Path: "c.yaml", Error: "boom"}},
		Skipped:   []string{"d.yaml"},
		Unchanged: []string{},
	}
	run := NewRun(res, errors.New("invalid a.yaml"))
	run.ReportLocation = "s3://reports/run.md"

	stored, err := l.Record(ctx, run)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.RunID)
	assert.Positive(t, stored.CreatedAtUnixMs)
	assert.False(t, stored.OK())

	got, err := l.Get(ctx, stored.RunID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stored, *got)
	assert.Equal(t, 2, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.True(t, got.DryRun)
	assert.Equal(t, res.Records, got.Records)
	assert.Equal(t, "invalid a.yaml", got.ValidationError)

	missing, err := l.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedger_ListNewestFirst(t *testing.T) {
	t.Parallel()
	l := openLedger(t)
	ctx := context.Background()

	for i, v := range []string{"25.1.1", "25.4.0", "25.7.0"} {
		_, err := l.Record(ctx, Run{TargetVersion: v, CreatedAtUnixMs: int64(1000 + i)})
		require.NoError(t, err)
	}

	runs, err := l.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "25.7.0", runs[0].TargetVersion)
	assert.Equal(t, "25.1.1", runs[2].TargetVersion)
	assert.Equal(t, []string{}, runs[0].Components)
	assert.True(t, runs[0].OK())

	limited, err := l.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLedger_RecordRequiresTarget(t *testing.T) {
	l := openLedger(t)
	_, err := l.Record(context.Background(), Run{})
	assert.Error(t, err)
}
