package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/profile"
)

func TestGenerateIsDeterministic(t *testing.T) {
	opts := profile.DefaultHouseholdOptions()

	a := Generate("demo", 4, 42, opts)
	b := Generate("demo", 4, 42, opts)

	require.Len(t, a.Households, 4)
	assert.Equal(t, a.Households, b.Households)
	assert.Equal(t, int64(42), a.Seed)
	assert.Equal(t, 5, a.StepMinutes)

	for i, h := range a.Households {
		assert.Equal(t, i, h.Index)
		assert.Equal(t, profile.HouseholdSeed(42, i), h.Seed)
		assert.NotEmpty(t, h.LoadKWh)
	}
}

func TestGenerateSeedsChangeHouseholds(t *testing.T) {
	opts := profile.DefaultHouseholdOptions()

	a := Generate("a", 3, 1, opts)
	b := Generate("b", 3, 2, opts)

	require.NotEqual(t, a.Households, b.Households)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := Generate("roundtrip", 3, 7, profile.DefaultHouseholdOptions())

	path := filepath.Join(t.TempDir(), "profiles", "roundtrip.json")
	require.NoError(t, Save(ds, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ds, loaded)
}

func TestHouseholdRecordProfiles(t *testing.T) {
	h := HouseholdRecord{
		LoadKWh:    []float64{0.2, 0.3},
		PVKWh:      []float64{0.1, 0.4},
		EVChargeKW: []float64{0, 7.2},
	}
	ps := h.Profiles(5)

	assert.Equal(t, 5, ps.StepMinutes)
	// 0.3 load + 7.2 kW * (5/60) h EV - 0.4 PV
	assert.InDelta(t, 0.3+0.6-0.4, ps.NetKWh(1), 1e-12)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read dataset file")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse dataset file")
}

func TestListFiltersToJSONFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(Generate("a", 1, 1, profile.DefaultHouseholdOptions()), filepath.Join(dir, "a.json")))
	require.NoError(t, Save(Generate("b", 1, 2, profile.DefaultHouseholdOptions()), filepath.Join(dir, "b.json")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	paths, err := List(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a.json"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.json"), paths[1])
}

func TestListMissingDirIsEmpty(t *testing.T) {
	paths, err := List(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("DATASET_DIR", "/tmp/somewhere")
	assert.Equal(t, "/tmp/somewhere", DefaultDir())

	t.Setenv("DATASET_DIR", "")
	assert.Equal(t, "./data/profiles", DefaultDir())
}
