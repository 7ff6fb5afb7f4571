package scraper

import (
	"context"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/config"
)

func replayConfig() *config.Config {
	return &config.Config{
		Wait:      waitConfigForTests(),
		Traversal: testTraversalConfig(),
		Dedupe:    config.DedupeConfig{MaxDistance: 3},
	}
}

func TestReplay_ExtractsSnapshotPage(t *testing.T) {
	out, err := Replay(context.Background(), replayConfig(), widgetHTML, widgetURL)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	if out.PagesVisited != 1 {
		t.Errorf("PagesVisited = %d, a snapshot is a single page", out.PagesVisited)
	}
	if got := len(out.Result.Records); got != 2 {
		t.Fatalf("extracted %d records, want 2", got)
	}
	if out.Result.Records[0].Title != "14 Industrial Way" {
		t.Errorf("Records[0].Title = %q", out.Result.Records[0].Title)
	}
	if out.Result.Metadata.TotalProperties != 2 {
		t.Errorf("Metadata.TotalProperties = %d, want 2", out.Result.Metadata.TotalProperties)
	}
}

func TestReplay_NeverFollowsPager(t *testing.T) {
	out, err := Replay(context.Background(), replayConfig(), pagerPage(1, "Alpha"), pagerURL)
	if err != nil {
		t.Fatalf("Replay() error: %v", err)
	}

	if out.PagesVisited != 1 {
		t.Errorf("PagesVisited = %d, replay must not try to advance", out.PagesVisited)
	}
	if out.TotalPages != 5 {
		t.Errorf("TotalPages = %d, the advertised count should still be reported", out.TotalPages)
	}
	if len(out.Result.Records) != 1 {
		t.Errorf("extracted %d records, want 1", len(out.Result.Records))
	}
}
