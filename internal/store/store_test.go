package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReceipt(success bool) *plan.Receipt {
	return &plan.Receipt{
		Success: success,
		Steps: []plan.StepOutcome{
			{StepID: "step-1", Effect: plan.EffectChanged, MatchCount: 1},
		},
		Revision: plan.RevisionPair{Before: 3, After: 4},
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestWriteAndReadReceipt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.WriteReceipt(ctx, Record{
		Document: "contract.json",
		PlanName: "tighten-wording",
		Success:  true,
		Receipt:  sampleReceipt(true),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.ReadReceipt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "contract.json", rec.Document)
	assert.Equal(t, "tighten-wording", rec.PlanName)
	assert.True(t, rec.Success)
	assert.False(t, rec.CreatedAt.IsZero())

	require.NotNil(t, rec.Receipt)
	assert.True(t, rec.Receipt.Success)
	require.Len(t, rec.Receipt.Steps, 1)
	assert.Equal(t, "step-1", rec.Receipt.Steps[0].StepID)
	assert.Equal(t, plan.EffectChanged, rec.Receipt.Steps[0].Effect)
	assert.Equal(t, int64(3), rec.Receipt.Revision.Before)
	assert.Equal(t, int64(4), rec.Receipt.Revision.After)
}

func TestWriteReceiptRequiresReceipt(t *testing.T) {
	s := openTestStore(t)
	_, err := s.WriteReceipt(context.Background(), Record{Document: "d.json"})
	require.Error(t, err)
}

func TestWriteReceiptIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{ID: "fixed-id", Document: "d.json", Receipt: sampleReceipt(true)}
	_, err := s.WriteReceipt(ctx, rec)
	require.NoError(t, err)
	_, err = s.WriteReceipt(ctx, rec)
	require.NoError(t, err)

	records, err := s.ListReceipts(ctx, "d.json", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadReceiptNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadReceipt(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListReceiptsFiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, doc := range []string{"a.json", "a.json", "b.json"} {
		_, err := s.WriteReceipt(ctx, Record{
			ID:        []string{"first", "second", "other"}[i],
			Document:  doc,
			Success:   i != 1,
			Receipt:   sampleReceipt(i != 1),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := s.ListReceipts(ctx, "a.json", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "second", records[0].ID)
	assert.Equal(t, "first", records[1].ID)
	assert.False(t, records[0].Success)

	all, err := s.ListReceipts(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListReceipts(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListReceiptsEmpty(t *testing.T) {
	s := openTestStore(t)
	records, err := s.ListReceipts(context.Background(), "nothing.json", 0)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestJournalFailureRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	receipt := &plan.Receipt{
		Success: false,
		Steps: []plan.StepOutcome{
			{StepID: "check", Effect: plan.EffectAssertFailed, MatchCount: 0},
		},
		Revision: plan.RevisionPair{Before: 7, After: 7},
		Failure:  plan.NewError(plan.ErrCodePreconditionFailed, "1 assert step(s) failed"),
	}
	id, err := s.WriteReceipt(ctx, Record{Document: "d.json", Receipt: receipt})
	require.NoError(t, err)

	rec, err := s.ReadReceipt(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec.Receipt.Failure)
	assert.Equal(t, plan.ErrCodePreconditionFailed, rec.Receipt.Failure.Code)
	assert.Equal(t, plan.EffectAssertFailed, rec.Receipt.Steps[0].Effect)
}
