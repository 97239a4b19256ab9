package geocache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plazaview/property-geocode-service/internal/domain"
	"github.com/plazaview/property-geocode-service/internal/observability"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "geocode_cache.db")
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := tempDB(t)

	db, err := OpenSQLite(path)
	require.NoError(t, err)

	entries := map[string]domain.Result{
		"1067 w baltimore pike, media, pa 19063": {
			Latitude:         39.9168,
			Longitude:        -75.3879,
			FormattedAddress: "1067 W Baltimore Pike, Media, PA 19063, USA",
			OK:               true,
		},
		"9 mall dr, exton, pa 19341": {
			Latitude:         40.0201,
			Longitude:        -75.6281,
			FormattedAddress: "9 Mall Dr, Exton, PA 19341, USA",
			OK:               true,
		},
	}
	require.NoError(t, db.Save(entries))
	require.NoError(t, db.Close())

	// Simulate a process restart: fresh handle, fresh Store.
	db2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db2.Close()

	loaded, err := db2.Load()
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	store := NewStore(db2, observability.NewMetricsForTesting(), discardLogger())
	got, ok := store.Get("1067 w baltimore pike, media, pa 19063")
	require.True(t, ok)
	assert.Equal(t, entries["1067 w baltimore pike, media, pa 19063"], got)
}

func TestSQLiteStore_SaveReplacesPriorState(t *testing.T) {
	db, err := OpenSQLite(tempDB(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(map[string]domain.Result{
		"stale": {Latitude: 1, Longitude: 2, OK: true},
	}))
	require.NoError(t, db.Save(map[string]domain.Result{
		"fresh": {Latitude: 3, Longitude: 4, OK: true},
	}))

	loaded, err := db.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Contains(t, loaded, "fresh")
}

func TestSQLiteStore_LoadEmptyDatabase(t *testing.T) {
	db, err := OpenSQLite(tempDB(t))
	require.NoError(t, err)
	defer db.Close()

	loaded, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestNewStore_MissingDirectoryIsRecoverable(t *testing.T) {
	// OpenSQLite fails for an unwritable location; the service treats that
	// as a degraded-durability condition, not a fatal one.
	_, err := OpenSQLite(filepath.Join(tempDB(t), "nope", "cache.db"))
	assert.Error(t, err)
}
