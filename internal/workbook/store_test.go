package workbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/pkg/contracts/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := writeFixture(t)
	store := NewStore(nil, NewLoader(nil), StoreConfig{
		Path:       path,
		BackupsDir: filepath.Join(filepath.Dir(path), "backups"),
	})
	require.NoError(t, store.Load())
	return store, path
}

func TestStore_Snapshot(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.Snapshot()
	assert.Equal(t, 6, snap.TotalRows())

	// Mutating the snapshot must not leak into the store.
	snap.MA[0].Company = "Mutated"
	again := store.Snapshot()
	assert.Equal(t, "Acme Surgical", again.MA[0].Company)
}

func TestStore_Replace(t *testing.T) {
	store, path := newTestStore(t)

	ds := store.Snapshot()
	ds.IPO = append(ds.IPO, domain.DealRecord{
		Kind:      domain.DealKindIPO,
		Company:   "BioSignal",
		RawAmount: "$150M",
		Quarter:   "Q3 2025",
	})

	require.NoError(t, store.Replace(ds))

	// Reload from disk and verify the write round-tripped.
	fresh := NewStore(nil, NewLoader(nil), StoreConfig{Path: path})
	require.NoError(t, fresh.Load())
	assert.Equal(t, 7, fresh.Snapshot().TotalRows())
	assert.Equal(t, "BioSignal", fresh.Snapshot().IPO[1].Company)
}

func TestStore_Append_DropsExactDuplicates(t *testing.T) {
	store, _ := newTestStore(t)

	existing := store.Snapshot()
	incoming := domain.Dataset{
		// One duplicate of an existing row, one genuinely new row.
		MA: []domain.DealRecord{
			existing.MA[0],
			{
				Kind:        domain.DealKindMA,
				Company:     "PulseTech",
				Counterpart: "Boston Scientific",
				RawAmount:   "$90M",
				Quarter:     "Q3 2025",
				Sector:      "Cardiology",
			},
		},
	}

	added, err := store.Append(incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Len(t, store.Snapshot().MA, 4)
}

func TestStore_Replace_SaveFailureKeepsOldDataset(t *testing.T) {
	// Pointing the workbook path at a directory makes SaveAs fail.
	store := NewStore(nil, NewLoader(nil), StoreConfig{Path: t.TempDir()})

	ds := domain.Dataset{MA: []domain.DealRecord{{
		Kind:      domain.DealKindMA,
		Company:   "Acme Surgical",
		RawAmount: "$500M",
		Quarter:   "Q1 2025",
	}}}

	err := store.Replace(ds)
	require.Error(t, err)
	assert.Equal(t, 0, store.Snapshot().TotalRows())
	assert.False(t, store.Loaded())
}

func TestStore_Append_SaveFailureKeepsOldDataset(t *testing.T) {
	store, _ := newTestStore(t)
	before := store.Snapshot()

	// Break persistence after the initial load: saving over a directory fails.
	store.path = t.TempDir()
	store.backupsDir = ""
	updates := store.Subscribe()

	added, err := store.Append(domain.Dataset{MA: []domain.DealRecord{{
		Kind:      domain.DealKindMA,
		Company:   "PulseTech",
		RawAmount: "$90M",
		Quarter:   "Q3 2025",
	}}})
	require.Error(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, before.TotalRows(), store.Snapshot().TotalRows())

	select {
	case <-updates:
		t.Fatal("failed append must not notify subscribers")
	default:
	}
}

func TestStore_Append_NotifiesSubscribers(t *testing.T) {
	store, _ := newTestStore(t)
	updates := store.Subscribe()

	_, err := store.Append(domain.Dataset{
		Investment: []domain.DealRecord{{
			Kind:      domain.DealKindInvestment,
			Company:   "Genomics Plus",
			RawAmount: "$40M",
			Quarter:   "Q4 2025",
			Sector:    "Genomics",
		}},
	})
	require.NoError(t, err)

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("expected a dataset update notification")
	}
}

func TestStore_SaveCreatesBackup(t *testing.T) {
	store, path := newTestStore(t)
	backupsDir := filepath.Join(filepath.Dir(path), "backups")

	require.NoError(t, store.Replace(store.Snapshot()))

	entries, err := os.ReadDir(backupsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "deals_")
}

func TestStore_SavePreservesExtraColumns(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Replace(store.Snapshot()))

	fresh := NewStore(nil, NewLoader(nil), StoreConfig{Path: path})
	require.NoError(t, fresh.Load())
	assert.Equal(t, "Acquisition", fresh.Snapshot().MA[0].ExtraField("Deal Type"))
}

func TestRecordKey_ExtraOrderIndependent(t *testing.T) {
	a := domain.DealRecord{
		Kind:    domain.DealKindMA,
		Company: "Acme",
		Extra:   map[string]string{"A": "1", "B": "2"},
	}
	b := domain.DealRecord{
		Kind:    domain.DealKindMA,
		Company: "Acme",
		Extra:   map[string]string{"B": "2", "A": "1"},
	}
	assert.Equal(t, recordKey(a), recordKey(b))

	c := b
	c.Extra = map[string]string{"B": "2", "A": "other"}
	assert.NotEqual(t, recordKey(a), recordKey(c))
}
