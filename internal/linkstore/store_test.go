package linkstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"murmur/internal/candidate"
	"murmur/internal/linkstore"
	"murmur/internal/rotation"
	"murmur/internal/testsupport"
)

func TestImportAndCandidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	res, err := store.Import(ctx, map[string]candidate.Stats{
		"https://youtu.be/a": {Seen: 3, Visited: 1},
		"https://youtu.be/b": {Seen: 7},
		"  ":                 {Seen: 1},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Inserted != 2 || res.Updated != 0 {
		t.Fatalf("unexpected import result %+v", res)
	}

	res, err = store.Import(ctx, map[string]candidate.Stats{"https://youtu.be/a": {Seen: 9, Visited: 2}})
	if err != nil {
		t.Fatalf("re-Import: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 1 {
		t.Fatalf("unexpected upsert result %+v", res)
	}

	got, err := store.Candidates(ctx)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", got)
	}
	if got["https://youtu.be/a"] != (candidate.Stats{Seen: 9, Visited: 2}) {
		t.Fatalf("expected updated stats, got %+v", got["https://youtu.be/a"])
	}

	pool := candidate.NewPool(got)
	if pool.MaxSeen() != 9 || pool.MaxVisited() != 2 {
		t.Fatalf("unexpected pool maxima %d/%d", pool.MaxSeen(), pool.MaxVisited())
	}
}

func TestRecordDispatchAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	testsupport.SeedLinks(t, store, map[string]candidate.Stats{
		"https://youtu.be/a": {Seen: 3},
		"https://youtu.be/b": {Seen: 1},
	})

	var recorder rotation.Recorder = store
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, link := range []string{"https://youtu.be/a", "https://youtu.be/b", "https://youtu.be/a"} {
		err := recorder.RecordDispatch(ctx, rotation.Dispatch{
			ClipID:    link + "-clip",
			Link:      link,
			Title:     "Title",
			Slot:      i,
			Duration:  12 * time.Second,
			Effective: 10 * time.Second,
			Speed:     1.2,
			Amplitude: 0.8,
			At:        base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordDispatch: %v", err)
		}
	}

	history, err := store.History(ctx, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(history))
	}
	newest := history[0]
	if newest.Slot != 2 || newest.Link != "https://youtu.be/a" || !newest.PlayedAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected newest play %+v", newest)
	}
	if newest.Duration != 12*time.Second || newest.Effective != 10*time.Second || newest.Speed != 1.2 {
		t.Fatalf("unexpected play values %+v", newest)
	}

	links, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(links) != 2 || links[0].URL != "https://youtu.be/a" || links[0].Plays != 2 {
		t.Fatalf("unexpected list %+v", links)
	}
	if links[1].Plays != 1 || links[1].LastPlayed.IsZero() {
		t.Fatalf("expected play info for second link, got %+v", links[1])
	}

	summary, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if summary.Links != 2 || summary.Plays != 3 || summary.PlayedLinks != 2 || summary.MaxSeen != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.LastPlayed.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("unexpected last played %v", summary.LastPlayed)
	}
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	summary, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if summary.Links != 0 || summary.Plays != 0 || !summary.LastPlayed.IsZero() {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := linkstore.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.SeedLinks(t, store, map[string]candidate.Stats{"https://youtu.be/a": {Seen: 1}})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	got, err := reopened.Candidates(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted link, got %v err=%v", got, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := linkstore.Open(cfg); !errors.Is(err, linkstore.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
