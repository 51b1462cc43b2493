package news

import (
	"context"
	"time"
)

// ArticleStore persists Articles.
type ArticleStore interface {
	CreateArticle(ctx context.Context, rec Record) (Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]Article, error)
	GetArticle(ctx context.Context, id string) (Article, error)
	SaveArticle(ctx context.Context, id string) (Article, error)
	UnsaveArticle(ctx context.Context, id string) (Article, error)
	PushNote(ctx context.Context, articleID, noteID string) error
	PullNote(ctx context.Context, articleID, noteID string) error
}

// NoteStore persists Notes.
type NoteStore interface {
	CreateNote(ctx context.Context, articleID, body string) (Note, error)
	DeleteNote(ctx context.Context, id string) error
	NotesByID(ctx context.Context, ids []string) ([]Note, error)
}

// Store is the document store holding both collections.
type Store interface {
	ArticleStore
	NoteStore
	Ping(ctx context.Context) error
	Close()
}

// Fetcher retrieves the raw listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes named scrape events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces document ids.
type IDGenerator interface {
	NewID() (string, error)
}
