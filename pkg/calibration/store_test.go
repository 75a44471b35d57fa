package calibration

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "calibration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(tau float64) *Record {
	return &Record{
		ID:                uuid.NewString(),
		Tau:               tau,
		TargetRecall:      0.95,
		NPositiveSamples:  42,
		EstimatedSkipRate: 0.61,
		ScorerName:        "np-nonconformity",
		CreatedAt:         time.Now().UTC(),
	}
}

func TestStoreSaveAndActivate(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Active()
	assert.ErrorIs(t, err, ErrNoActiveRecord)

	first := testRecord(0.6)
	second := testRecord(0.7)
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	// Saved records are inactive until promoted.
	_, err = store.Active()
	assert.ErrorIs(t, err, ErrNoActiveRecord)

	require.NoError(t, store.Activate(first.ID))
	active, err := store.Active()
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
	assert.InDelta(t, 0.6, active.Tau, 1e-9)
	assert.Equal(t, 42, active.NPositiveSamples)
	assert.True(t, active.Active)

	// Promoting another record demotes the previous one.
	require.NoError(t, store.Activate(second.ID))
	active, err = store.Active()
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestStoreActivateUnknownID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Activate("no-such-record"))
}

func TestStoreHistory(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		rec := testRecord(0.5 + float64(i)*0.01)
		rec.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Save(rec))
	}

	records, err := store.History(3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Newest first.
	assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
	assert.True(t, records[1].CreatedAt.After(records[2].CreatedAt))
}

func TestStoreRoundTripsWarning(t *testing.T) {
	store := openTestStore(t)

	rec := testRecord(0.5)
	rec.StabilityWarning = "only 3 positive samples"
	require.NoError(t, store.Save(rec))
	require.NoError(t, store.Activate(rec.ID))

	got, err := store.Active()
	require.NoError(t, err)
	assert.Equal(t, rec.StabilityWarning, got.StabilityWarning)
}
