// Package gateway maps the HTTP operations onto store queries and runs the
// scrape pipeline (fetch, extract, persist, archive, publish).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/clock/system"
	"github.com/JakeFAU/news-scraper/internal/metrics"
	"github.com/JakeFAU/news-scraper/internal/news"
)

// EventScrapeCompleted names the event published after a successful scrape.
const EventScrapeCompleted = "scrape.completed"

// Extractor turns a fetched listing page into records.
type Extractor interface {
	Extract(html []byte) []news.Record
}

// Config controls Gateway behavior.
type Config struct {
	SourceURL     string
	ArchivePrefix string
	ContentType   string
}

// Gateway is the persistence layer used by the HTTP handlers and the CLI.
type Gateway struct {
	store     news.Store
	fetcher   news.Fetcher
	extractor Extractor
	archive   news.BlobStore
	publisher news.Publisher
	hasher    news.Hasher
	clock     news.Clock
	cfg       Config
	logger    *zap.Logger
}

// New wires a Gateway. archive, publisher and hasher are optional.
func New(
	store news.Store,
	fetcher news.Fetcher,
	extractor Extractor,
	archive news.BlobStore,
	publisher news.Publisher,
	hasher news.Hasher,
	clock news.Clock,
	cfg Config,
	logger *zap.Logger,
) *Gateway {
	if cfg.SourceURL == "" {
		cfg.SourceURL = news.SourceURL
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Gateway{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
		archive:   archive,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Scrape fetches the source page and creates one Article per extracted
// record. Only a failed fetch is returned as an error; insert failures are
// logged and counted.
func (g *Gateway) Scrape(ctx context.Context) (news.ScrapeResult, error) {
	page, err := g.fetcher.Fetch(ctx, g.cfg.SourceURL)
	if err != nil {
		metrics.ObserveScrape("failed", 0, 0)
		g.logger.Error("scrape fetch failed", zap.String("url", g.cfg.SourceURL), zap.Error(err))
		return news.ScrapeResult{}, fmt.Errorf("fetch %s: %w", g.cfg.SourceURL, err)
	}
	metrics.ObserveFetch(g.cfg.SourceURL, len(page.Body), page.Duration)
	if page.StatusCode >= http.StatusBadRequest {
		g.logger.Warn("source answered with error status",
			zap.String("url", g.cfg.SourceURL),
			zap.Int("status", page.StatusCode),
		)
	}

	records := g.extractor.Extract(page.Body)
	result := news.ScrapeResult{Found: len(records)}
	for _, rec := range records {
		if _, err := g.store.CreateArticle(ctx, rec); err != nil {
			result.Failed++
			g.logger.Warn("create article failed", zap.String("link", rec.Link), zap.Error(err))
			continue
		}
		result.Created++
	}

	hash, uri := g.archivePage(ctx, page)
	result.ArchiveURI = uri
	g.publishScrape(ctx, page, hash, result)

	metrics.ObserveScrape("success", result.Created, result.Failed)
	g.logger.Info("scrape completed",
		zap.String("url", g.cfg.SourceURL),
		zap.Int("found", result.Found),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
		zap.Duration("fetch_duration", page.Duration),
	)
	return result, nil
}

// Unsaved lists articles that have not been saved.
func (g *Gateway) Unsaved(ctx context.Context) ([]news.Article, error) {
	articles, err := g.store.ListArticles(ctx, news.SavedFilter(false))
	if err != nil {
		return nil, fmt.Errorf("list unsaved articles: %w", err)
	}
	return articles, nil
}

// Saved lists saved articles with their notes resolved.
func (g *Gateway) Saved(ctx context.Context) ([]news.ArticleWithNotes, error) {
	articles, err := g.store.ListArticles(ctx, news.SavedFilter(true))
	if err != nil {
		return nil, fmt.Errorf("list saved articles: %w", err)
	}
	out := make([]news.ArticleWithNotes, 0, len(articles))
	for _, article := range articles {
		resolved, err := g.withNotes(ctx, article)
		if err != nil {
			return out, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// All lists every article.
func (g *Gateway) All(ctx context.Context) ([]news.Article, error) {
	articles, err := g.store.ListArticles(ctx, news.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Article returns one article with notes resolved, or nil when the id is
// unknown.
func (g *Gateway) Article(ctx context.Context, id string) (*news.ArticleWithNotes, error) {
	article, err := g.store.GetArticle(ctx, id)
	if errors.Is(err, news.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	resolved, err := g.withNotes(ctx, article)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// Save marks an article saved and returns it, or nil when the id is unknown.
func (g *Gateway) Save(ctx context.Context, id string) (*news.Article, error) {
	article, err := g.store.SaveArticle(ctx, id)
	return found(article, err, "save article "+id)
}

// Unsave clears the saved flag and the notes list, returning the updated
// article or nil when the id is unknown.
func (g *Gateway) Unsave(ctx context.Context, id string) (*news.Article, error) {
	article, err := g.store.UnsaveArticle(ctx, id)
	return found(article, err, "unsave article "+id)
}

// AddNote creates a note and appends its id to the article. The two writes
// are not atomic; a missing article still yields the created note.
func (g *Gateway) AddNote(ctx context.Context, articleID, body string) (news.Note, error) {
	note, err := g.store.CreateNote(ctx, articleID, body)
	if err != nil {
		return news.Note{}, fmt.Errorf("create note: %w", err)
	}
	metrics.ObserveNote("create")
	if err := g.store.PushNote(ctx, articleID, note.ID); err != nil && !errors.Is(err, news.ErrNotFound) {
		return note, fmt.Errorf("attach note %s to %s: %w", note.ID, articleID, err)
	}
	return note, nil
}

// DeleteNote removes a note and pulls its id from the article. Deleting an
// already removed note is not an error.
func (g *Gateway) DeleteNote(ctx context.Context, noteID, articleID string) error {
	if err := g.store.DeleteNote(ctx, noteID); err != nil && !errors.Is(err, news.ErrNotFound) {
		return fmt.Errorf("delete note %s: %w", noteID, err)
	}
	metrics.ObserveNote("delete")
	if err := g.store.PullNote(ctx, articleID, noteID); err != nil && !errors.Is(err, news.ErrNotFound) {
		return fmt.Errorf("detach note %s from %s: %w", noteID, articleID, err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

func (g *Gateway) withNotes(ctx context.Context, article news.Article) (news.ArticleWithNotes, error) {
	notes, err := g.store.NotesByID(ctx, article.Notes)
	if err != nil {
		return news.ArticleWithNotes{}, fmt.Errorf("resolve notes for %s: %w", article.ID, err)
	}
	if notes == nil {
		notes = []news.Note{}
	}
	return news.ArticleWithNotes{Article: article, Notes: notes}, nil
}

func found(article news.Article, err error, op string) (*news.Article, error) {
	if errors.Is(err, news.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &article, nil
}

// archivePage writes the raw page to the archive and returns its digest and
// URI. Failures are logged and yield empty values.
func (g *Gateway) archivePage(ctx context.Context, page news.Page) (string, string) {
	if g.hasher == nil {
		return "", ""
	}
	hash, err := g.hasher.Hash(page.Body)
	if err != nil {
		g.logger.Warn("hash page failed", zap.Error(err))
		return "", ""
	}
	if g.archive == nil {
		return hash, ""
	}
	path := g.buildArchivePath(hash)
	uri, err := g.archive.PutObject(ctx, path, g.cfg.ContentType, page.Body)
	if err != nil {
		g.logger.Warn("archive page failed", zap.String("path", path), zap.Error(err))
		return hash, ""
	}
	g.logger.Debug("page archived", zap.String("uri", uri))
	return hash, uri
}

func (g *Gateway) buildArchivePath(hash string) string {
	day := g.clock.Now().UTC().Format("2006/01/02")
	prefix := strings.Trim(g.cfg.ArchivePrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", day, hash)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, day, hash)
}

func (g *Gateway) publishScrape(ctx context.Context, page news.Page, hash string, result news.ScrapeResult) {
	if g.publisher == nil {
		return
	}
	event := news.ScrapeEvent{
		SourceURL:  g.cfg.SourceURL,
		StatusCode: page.StatusCode,
		Found:      result.Found,
		Created:    result.Created,
		Failed:     result.Failed,
		ArchiveURI: result.ArchiveURI,
		ContentSHA: hash,
		ScrapedAt:  g.clock.Now(),
	}
	id, err := g.publisher.Publish(ctx, EventScrapeCompleted, event)
	if err != nil {
		g.logger.Warn("publish scrape event failed", zap.Error(err))
		return
	}
	g.logger.Debug("scrape event published", zap.String("message_id", id))
}
