package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/gridmarket/internal/domain"
)

func TestJournalRecordAndReplay(t *testing.T) {
	j, err := New(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	saleID := uint64(3)
	require.NoError(t, j.Record(Entry{
		Kind:    "approve",
		Account: domain.Account("0xabc"),
		Asset:   "ETKN",
		Amount:  "100",
		Outcome: "confirmed",
	}))
	require.NoError(t, j.Record(Entry{
		Kind:    "purchase",
		Account: domain.Account("0xdef"),
		Asset:   "ETKN",
		SaleID:  &saleID,
		Price:   "0.50000",
		Outcome: "failed",
		Message: "Purchase failed: Network problem while talking to the ledger.",
	}))

	records, err := j.EntriesAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "approve", records[0].Entry.Kind)
	assert.False(t, records[0].Entry.Time.IsZero())
	assert.Equal(t, "purchase", records[1].Entry.Kind)
	require.NotNil(t, records[1].Entry.SaleID)
	assert.Equal(t, uint64(3), *records[1].Entry.SaleID)

	// incremental read picks up only the tail
	tail, err := j.EntriesAfter(records[0].Index)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "purchase", tail[0].Entry.Kind)

	none, err := j.EntriesAfter(j.CurrentIndex())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournalRejectsEntryWithoutKind(t *testing.T) {
	j, err := New(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	assert.Error(t, j.Record(Entry{Outcome: "confirmed"}))
}
