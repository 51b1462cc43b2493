package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://www.Yahoo.com/news/", "www.yahoo.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()

	if httpRequestsTotal == nil || scrapeRunsTotal == nil || scrapeArticlesTotal == nil || notesTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveScrapeAndNotes(t *testing.T) {
	Init()

	beforeRuns := testutil.ToFloat64(scrapeRunsTotal.WithLabelValues("success"))
	beforeCreated := testutil.ToFloat64(scrapeArticlesTotal.WithLabelValues("created"))
	beforeFailed := testutil.ToFloat64(scrapeArticlesTotal.WithLabelValues("failed"))
	beforeBytes := testutil.ToFloat64(scrapeBytesTotal.WithLabelValues("metrics.test"))
	beforeNotes := testutil.ToFloat64(notesTotal.WithLabelValues("create"))

	ObserveScrape("success", 3, 1)
	ObserveFetch("https://metrics.test/news/", 512, 200*time.Millisecond)
	ObserveNote("create")

	if got := testutil.ToFloat64(scrapeRunsTotal.WithLabelValues("success")) - beforeRuns; got != 1 {
		t.Errorf("expected one run recorded, got %f", got)
	}
	if got := testutil.ToFloat64(scrapeArticlesTotal.WithLabelValues("created")) - beforeCreated; got != 3 {
		t.Errorf("expected 3 created articles, got %f", got)
	}
	if got := testutil.ToFloat64(scrapeArticlesTotal.WithLabelValues("failed")) - beforeFailed; got != 1 {
		t.Errorf("expected 1 failed article, got %f", got)
	}
	if got := testutil.ToFloat64(scrapeBytesTotal.WithLabelValues("metrics.test")) - beforeBytes; got != 512 {
		t.Errorf("expected 512 bytes, got %f", got)
	}
	if got := testutil.ToFloat64(notesTotal.WithLabelValues("create")) - beforeNotes; got != 1 {
		t.Errorf("expected one note op, got %f", got)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://www.yahoo.com/news/", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
