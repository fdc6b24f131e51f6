package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mordonez/healthdash/internal/health"
)

func sampleRecords() []health.DailyRecord {
	score := 82
	weight := 78.4
	return []health.DailyRecord{
		{
			Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Oura: &health.OuraRecord{
				Source:     health.SourceOura,
				Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				SleepScore: &score,
			},
			GSheet: &health.GSheetRecord{
				Source:       health.SourceGSheet,
				Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				BodyweightKg: &weight,
			},
		},
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "daily_data.json"))

	require.NoError(t, s.Save(sampleRecords()))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 82, *loaded[0].Oura.SleepScore)
	assert.InDelta(t, 78.4, *loaded[0].GSheet.BodyweightKg, 1e-9)
	assert.Nil(t, loaded[0].Garmin)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "daily_data.json"))

	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily_data.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
}

func TestFileStoreLoadIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily_data.json")
	payload := `[{"date":"2024-03-01T00:00:00Z","future_source":{"x":1}}]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	records, err := NewFileStore(path).Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
}

func TestFileStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "daily_data.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(nil))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "daily_data.json"))

	require.NoError(t, s.Save(sampleRecords()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "daily_data.json", entries[0].Name())
}
