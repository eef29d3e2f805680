package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleOutcomes() []models.Outcome {
	return []models.Outcome{
		{
			Link:     "https://music.apple.com/us/album/a/1?i=2",
			Status:   models.StatusMatched,
			Metadata: &models.TrackMetadata{Title: "Song", Artist: "Artist", Album: "Album"},
			Result:   &models.MatchResult{SpotifyID: "sp1", IsMatch: true, Score: 0.93},
		},
		{Link: "https://music.apple.com/us/album/b/3", Status: models.StatusUnmatched, Result: &models.MatchResult{Score: 0.4}},
		{Link: "https://music.apple.com/us/playlist/p/pl.x", Status: models.StatusError, Err: "invalid input"},
	}
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRun(models.RunConvert, "chat.txt")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRun(models.RunConvert, "chat.txt")
		run.Tally(sampleOutcomes())

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.Kind() != models.RunConvert || retrieved.Source() != "chat.txt" {
			t.Errorf("unexpected run %+v", retrieved)
		}
		if retrieved.Total() != 3 || retrieved.Matched() != 1 || retrieved.Unmatched() != 1 || retrieved.Failed() != 1 {
			t.Errorf("unexpected counts: total=%d matched=%d unmatched=%d failed=%d",
				retrieved.Total(), retrieved.Matched(), retrieved.Unmatched(), retrieved.Failed())
		}
		if retrieved.PlaylistID() != "" {
			t.Errorf("expected no playlist, got %q", retrieved.PlaylistID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRun(models.RunPlaylist, "-")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.SetPlaylistID("pl123")
		run.Tally(sampleOutcomes()[:1])
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.PlaylistID() != "pl123" || retrieved.Matched() != 1 {
			t.Errorf("update not persisted: playlist=%q matched=%d", retrieved.PlaylistID(), retrieved.Matched())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewRun(models.RunExtract, "-")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound for deleted run, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for _, kind := range []models.RunKind{models.RunExtract, models.RunConvert, models.RunConvert} {
			if err := repo.Create(models.NewRun(kind, "-")); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Sequence() != 3 {
			t.Errorf("expected newest run first, got sequence %d", all[0].Sequence())
		}

		converts, err := repo.List(map[string]any{"kind": models.RunConvert})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(converts) != 2 {
			t.Errorf("expected 2 convert runs, got %d", len(converts))
		}

		limited, err := repo.List(map[string]any{"kind": "convert", "limit": 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 run with limit, got %d", len(limited))
		}
	})
}

func TestLinkRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runs := NewRunRepository(db)
	run := models.NewRun(models.RunExtract, "chat.txt")
	if err := runs.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	sharedOn := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	input := []models.MusicLink{
		{Platform: models.PlatformAppleMusic, URL: "https://music.apple.com/us/album/a/1?i=2", Date: sharedOn},
		{Platform: models.PlatformSpotify, URL: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
	}

	repo := NewLinkRepository(db)

	t.Run("CreateBatch", func(t *testing.T) {
		stored, err := repo.CreateBatch(run.ID(), input)
		if err != nil {
			t.Fatalf("failed to create links: %v", err)
		}
		if len(stored) != 2 || stored[0].ID == "" || stored[1].Sequence <= stored[0].Sequence {
			t.Errorf("unexpected stored links %+v", stored)
		}
	})

	t.Run("ListByRun", func(t *testing.T) {
		links, err := repo.ListByRun(run.ID())
		if err != nil {
			t.Fatalf("failed to list links: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		if links[0].Link.URL != input[0].URL || links[0].Link.Platform != models.PlatformAppleMusic {
			t.Errorf("unexpected first link %+v", links[0].Link)
		}
		if !links[0].Link.Date.Equal(sharedOn) {
			t.Errorf("expected date %v, got %v", sharedOn, links[0].Link.Date)
		}
		if !links[1].Link.Date.IsZero() {
			t.Errorf("expected undated link, got %v", links[1].Link.Date)
		}
	})

	t.Run("FindByURL", func(t *testing.T) {
		found, err := repo.FindByURL(input[1].URL)
		if err != nil {
			t.Fatalf("failed to find link: %v", err)
		}
		if len(found) != 1 || found[0].RunID != run.ID() {
			t.Errorf("unexpected matches %+v", found)
		}
	})
}

func TestOutcomeRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runs := NewRunRepository(db)
	run := models.NewRun(models.RunConvert, "-")
	if err := runs.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	repo := NewOutcomeRepository(db)
	if _, err := repo.CreateBatch(run.ID(), sampleOutcomes()); err != nil {
		t.Fatalf("failed to create outcomes: %v", err)
	}

	t.Run("ListByRun", func(t *testing.T) {
		all, err := repo.ListByRun(run.ID(), "")
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(all))
		}
		if all[0].SpotifyID != "sp1" || all[0].Title != "Song" || all[0].Score != 0.93 {
			t.Errorf("unexpected matched outcome %+v", all[0])
		}
		if all[2].Error != "invalid input" || all[2].SpotifyID != "" {
			t.Errorf("unexpected error outcome %+v", all[2])
		}
	})

	t.Run("Filter By Status", func(t *testing.T) {
		errs, err := repo.ListByRun(run.ID(), models.StatusError)
		if err != nil {
			t.Fatalf("failed to list outcomes: %v", err)
		}
		if len(errs) != 1 {
			t.Errorf("expected 1 error outcome, got %d", len(errs))
		}
	})

	t.Run("LastMatch", func(t *testing.T) {
		id, err := repo.LastMatch("https://music.apple.com/us/album/a/1?i=2")
		if err != nil {
			t.Fatalf("failed to get last match: %v", err)
		}
		if id != "sp1" {
			t.Errorf("expected sp1, got %q", id)
		}

		id, err = repo.LastMatch("https://music.apple.com/us/album/b/3")
		if err != nil || id != "" {
			t.Errorf("expected no match for unmatched link, got %q, %v", id, err)
		}
	})
}

func TestHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	h := NewHistory(db)

	extract, err := h.RecordExtraction("chat.txt", []models.MusicLink{
		{Platform: models.PlatformAppleMusic, URL: "https://music.apple.com/us/album/a/1?i=2"},
	})
	if err != nil {
		t.Fatalf("failed to record extraction: %v", err)
	}
	if extract.Total() != 1 {
		t.Errorf("expected extract total 1, got %d", extract.Total())
	}

	if _, err := h.RecordConversion("chat.txt", sampleOutcomes()); err != nil {
		t.Fatalf("failed to record conversion: %v", err)
	}

	pl, err := h.RecordPlaylist("-", sampleOutcomes()[:1], "playlist1")
	if err != nil {
		t.Fatalf("failed to record playlist: %v", err)
	}

	recent, err := h.Recent(2)
	if err != nil {
		t.Fatalf("failed to list history: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent runs, got %d", len(recent))
	}
	if recent[0].ID() != pl.ID() || recent[0].PlaylistID() != "playlist1" {
		t.Errorf("expected playlist run first, got %s (%s)", recent[0].Kind(), recent[0].PlaylistID())
	}
	if recent[1].Kind() != models.RunConvert || recent[1].Matched() != 1 {
		t.Errorf("unexpected convert run %s matched=%d", recent[1].Kind(), recent[1].Matched())
	}

	outcomes, err := h.Outcomes.ListByRun(recent[1].ID(), "")
	if err != nil || len(outcomes) != 3 {
		t.Errorf("expected 3 outcomes for conversion run, got %d, %v", len(outcomes), err)
	}
}
