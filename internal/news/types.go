package news

import (
	"errors"
	"time"
)

// SourceURL is the listing page every scrape fetches.
const SourceURL = "https://www.yahoo.com/news/"

// SourceOrigin is prefixed to the relative hrefs found on the listing page.
const SourceOrigin = SourceURL

// ErrNotFound is returned by stores when an id matches no document.
var ErrNotFound = errors.New("not found")

// Record is one headline extracted from the listing page.
type Record struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

// Article is a persisted headline. Notes holds Note ids in append order.
type Article struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Saved     bool      `json:"saved"`
	Notes     []string  `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleWithNotes is an Article with its note ids resolved to documents.
type ArticleWithNotes struct {
	Article
	Notes []Note `json:"notes"`
}

// Note is free text attached to an Article.
type Note struct {
	ID        string    `json:"_id"`
	Body      string    `json:"body"`
	Article   string    `json:"article"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleFilter narrows ListArticles. A nil Saved matches every article.
type ArticleFilter struct {
	Saved *bool
}

// SavedFilter returns a filter matching articles with the given saved flag.
func SavedFilter(saved bool) ArticleFilter {
	return ArticleFilter{Saved: &saved}
}

// Page is the raw result of fetching the source URL.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// ScrapeResult summarizes one scrape run.
type ScrapeResult struct {
	Found      int    `json:"found"`
	Created    int    `json:"created"`
	Failed     int    `json:"failed"`
	ArchiveURI string `json:"archive_uri,omitempty"`
}

// ScrapeEvent is published after every successful fetch.
type ScrapeEvent struct {
	SourceURL  string    `json:"source_url"`
	StatusCode int       `json:"status_code"`
	Found      int       `json:"found"`
	Created    int       `json:"created"`
	Failed     int       `json:"failed"`
	ArchiveURI string    `json:"archive_uri,omitempty"`
	ContentSHA string    `json:"content_sha256"`
	ScrapedAt  time.Time `json:"scraped_at"`
}
