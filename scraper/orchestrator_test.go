package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/mudassirfayaz/Kings-Properties/config"
	"github.com/mudassirfayaz/Kings-Properties/models"
)

func TestRun_RejectsUnusableTargetURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no scheme", "kingindustrial.com/properties"},
		{"wrong scheme", "ftp://kingindustrial.com/properties"},
		{"no host", "https://"},
		{"empty with no configured default", ""},
	}

	// No session is needed: validation runs before any page is acquired.
	o := NewOrchestrator(nil, &config.Config{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := o.Run(context.Background(), &models.RunRequest{URL: tt.url})
			if out != nil {
				t.Fatalf("Run() returned an outcome for %q", tt.url)
			}
			var serr *models.ScrapeError
			if !errors.As(err, &serr) || serr.Code != models.ErrCodeBadURL {
				t.Errorf("Run(%q) error = %v, want %s", tt.url, err, models.ErrCodeBadURL)
			}
		})
	}
}
