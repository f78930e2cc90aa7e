package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hann12-34/discovr-events/internal/config"
	"github.com/hann12-34/discovr-events/internal/event"
)

func testEvent(id, title string, start *time.Time) *event.Event {
	return &event.Event{
		ID:          id,
		Title:       title,
		StartDate:   start,
		Season:      event.MapDateToSeason(start),
		Venue:       event.Venue{Name: "Commodore Ballroom", City: "Vancouver"},
		Category:    "Music",
		PriceRange:  event.PriceVaries,
		DataSources: []string{"commodore"},
		LastUpdated: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func at(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestFileStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first := []*event.Event{
		testEvent("evt-1", "Jazz Night Live", at("2026-03-14T20:00:00Z")),
		testEvent("evt-2", "Silent Disco Party", at("2026-03-01T20:00:00Z")),
		nil,
	}
	res, err := store.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 2}, res)
	assert.FileExists(t, filepath.Join(dir, "snapshot.json"))

	changed := testEvent("evt-1", "Jazz Night Live (updated)", at("2026-03-14T20:00:00Z"))
	res, err = store.Save(ctx, []*event.Event{changed, testEvent("evt-3", "Comedy Showcase", nil)})
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 1, Skipped: 1}, res)

	got, err := store.Get("evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night Live", got.Title, "existing events are never overwritten")

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Events, 3)
	assert.Equal(t, "2026-02-01T12:00:00Z", snap.UpdatedAt)

	sorted := snap.Sorted()
	assert.Equal(t, []string{"evt-2", "evt-1", "evt-3"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})

	_, err = store.Get("missing")
	assert.Error(t, err)
	assert.NoError(t, store.Close(ctx))
}

func TestFileStore_RerunStoresNothing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	events := []*event.Event{testEvent("evt-1", "Jazz Night Live", at("2026-03-14T20:00:00Z"))}

	_, err = store.Save(ctx, events)
	require.NoError(t, err)
	info, err := os.Stat(store.Path())
	require.NoError(t, err)

	res, err := store.Save(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Skipped: 1}, res)

	again, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime(), "file is not rewritten")
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))
	_, err = store.Load()
	assert.Error(t, err)
	_, err = store.Save(context.Background(), []*event.Event{testEvent("x", "Title Here", nil)})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewFileStore("~/discovr-data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "discovr-data", "snapshot.json"), store.Path())
	assert.DirExists(t, filepath.Join(home, "discovr-data"))
}

func TestDiscard(t *testing.T) {
	res, err := Discard{}.Save(context.Background(), []*event.Event{testEvent("a", "Jazz Night Live", nil)})
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Skipped: 1}, res)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.StoreNone})
	require.NoError(t, err)
	assert.IsType(t, Discard{}, s)

	s, err = Open(ctx, config.StorageConfig{Backend: config.StoreFile, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.StorageConfig{Backend: "postgres"})
	assert.Error(t, err)
}

// This test requires a running Redis instance on localhost:6379.
// It is skipped when Redis is not available.
func TestRedisStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := "discovr:test:" + time.Now().Format("150405.000")
	store, err := NewRedisStore(ctx, "localhost:6379", 0, stream, 100)
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer store.Close(ctx) // nolint:errcheck

	id := "test-" + time.Now().Format("20060102150405.000000")
	defer store.client.Del(ctx, eventKeyPrefix+id, stream)

	events := []*event.Event{testEvent(id, "Jazz Night Live", at("2026-03-14T20:00:00Z"))}
	res, err := store.Save(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 1}, res)

	res, err = store.Save(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Skipped: 1}, res)

	n, err := store.client.XLen(ctx, stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only new events are published")

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night Live", got.Title)
}

// This test requires a running MongoDB instance on localhost:27017.
// It is skipped when MongoDB is not available.
func TestMongoStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewMongoStore(ctx, "mongodb://localhost:27017", "discovr_test", "events")
	if err != nil {
		t.Skip("MongoDB is not available, skipping test")
	}
	defer store.Close(ctx)           // nolint:errcheck
	defer store.collection.Drop(ctx) // nolint:errcheck

	events := []*event.Event{
		testEvent("evt-1", "Jazz Night Live", at("2026-03-14T20:00:00Z")),
		testEvent("evt-2", "Silent Disco Party", nil),
	}
	res, err := store.Save(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 2}, res)

	events[0].Title = "Changed"
	res, err = store.Save(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Skipped: 2}, res)

	got, err := store.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night Live", got.Title)
	assert.Equal(t, []string{"commodore"}, got.DataSources)

	undated, err := store.Get(ctx, "evt-2")
	require.NoError(t, err)
	assert.Nil(t, undated.StartDate)
}
