package contentindex

import (
	"context"
	"testing"

	"github.com/bonkai/bonkai/internal/models"
)

func TestIndex_SearchAcrossKinds(t *testing.T) {
	idx, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.IndexEvent(ctx, &models.Event{
		ID:          "ev1",
		Title:       "BONK meetup Lisbon",
		Description: "Community meetup for the BONK ecosystem",
		Tags:        []string{"bonk", "meetup"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexTrack(ctx, &models.AudioTrack{
		ID:          "tr1",
		Title:       "Staking deep dive",
		Description: "Podcast episode on Solana staking",
		Tags:        []string{"staking", "podcast"},
	}); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, "meetup", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "ev1" || hits[0].Kind != KindEvent {
		t.Errorf("hits: %+v", hits)
	}
	if hits[0].Title != "BONK meetup Lisbon" {
		t.Errorf("title not carried through: %s", hits[0].Title)
	}

	hits, err = idx.Search(ctx, "staking", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Kind != KindAudio {
		t.Errorf("hits: %+v", hits)
	}

	// Empty query returns no hits, not an error.
	hits, err = idx.Search(ctx, "   ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestIndex_Delete(t *testing.T) {
	idx, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.IndexEvent(ctx, &models.Event{ID: "ev1", Title: "bonk hackathon"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete(ctx, "ev1"); err != nil {
		t.Fatal(err)
	}
	hits, err := idx.Search(ctx, "hackathon", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits after delete, got %d", len(hits))
	}
}
