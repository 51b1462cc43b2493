// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/JakeFAU/news-scraper/internal/news"
)

// Store keeps articles and notes in process memory. It implements news.Store.
type Store struct {
	mu       sync.RWMutex
	articles map[string]news.Article
	order    []string
	notes    map[string]news.Note
	ids      news.IDGenerator
	clock    news.Clock
}

// NewStore constructs a Store that assigns ids with ids and timestamps with clock.
func NewStore(ids news.IDGenerator, clock news.Clock) *Store {
	return &Store{
		articles: make(map[string]news.Article),
		notes:    make(map[string]news.Note),
		ids:      ids,
		clock:    clock,
	}
}

// CreateArticle inserts a new unsaved article.
func (s *Store) CreateArticle(_ context.Context, rec news.Record) (news.Article, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return news.Article{}, fmt.Errorf("generate article id: %w", err)
	}
	article := news.Article{
		ID:        id,
		Title:     rec.Title,
		Summary:   rec.Summary,
		Link:      rec.Link,
		Notes:     []string{},
		CreatedAt: s.clock.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[id] = article
	s.order = append(s.order, id)
	return cloneArticle(article), nil
}

// ListArticles returns matching articles in insertion order.
func (s *Store) ListArticles(_ context.Context, filter news.ArticleFilter) ([]news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]news.Article, 0, len(s.order))
	for _, id := range s.order {
		article := s.articles[id]
		if filter.Saved != nil && article.Saved != *filter.Saved {
			continue
		}
		out = append(out, cloneArticle(article))
	}
	return out, nil
}

// GetArticle fetches an article by id.
func (s *Store) GetArticle(_ context.Context, id string) (news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.articles[id]
	if !ok {
		return news.Article{}, news.ErrNotFound
	}
	return cloneArticle(article), nil
}

// SaveArticle sets saved=true and returns the updated article.
func (s *Store) SaveArticle(_ context.Context, id string) (news.Article, error) {
	return s.update(id, func(a *news.Article) {
		a.Saved = true
	})
}

// UnsaveArticle sets saved=false, clears the note list and returns the updated article.
func (s *Store) UnsaveArticle(_ context.Context, id string) (news.Article, error) {
	return s.update(id, func(a *news.Article) {
		a.Saved = false
		a.Notes = []string{}
	})
}

// PushNote appends noteID to the article's note list. Missing articles are ignored.
func (s *Store) PushNote(_ context.Context, articleID, noteID string) error {
	_, err := s.update(articleID, func(a *news.Article) {
		a.Notes = append(a.Notes, noteID)
	})
	if err != nil && !errors.Is(err, news.ErrNotFound) {
		return err
	}
	return nil
}

// PullNote removes every occurrence of noteID from the article's note list.
func (s *Store) PullNote(_ context.Context, articleID, noteID string) error {
	_, err := s.update(articleID, func(a *news.Article) {
		a.Notes = slices.DeleteFunc(a.Notes, func(id string) bool { return id == noteID })
	})
	if err != nil && !errors.Is(err, news.ErrNotFound) {
		return err
	}
	return nil
}

// CreateNote inserts a note pointing at articleID.
func (s *Store) CreateNote(_ context.Context, articleID, body string) (news.Note, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return news.Note{}, fmt.Errorf("generate note id: %w", err)
	}
	note := news.Note{ID: id, Body: body, Article: articleID, CreatedAt: s.clock.Now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[id] = note
	return note, nil
}

// DeleteNote removes a note. Deleting a missing note is not an error.
func (s *Store) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notes, id)
	return nil
}

// NotesByID returns the notes that exist among ids, in the order of ids.
func (s *Store) NotesByID(_ context.Context, ids []string) ([]news.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]news.Note, 0, len(ids))
	for _, id := range ids {
		if note, ok := s.notes[id]; ok {
			out = append(out, note)
		}
	}
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) update(id string, mutate func(*news.Article)) (news.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, ok := s.articles[id]
	if !ok {
		return news.Article{}, news.ErrNotFound
	}
	article.Notes = slices.Clone(article.Notes)
	mutate(&article)
	s.articles[id] = article
	return cloneArticle(article), nil
}

func cloneArticle(a news.Article) news.Article {
	a.Notes = append([]string{}, a.Notes...)
	return a
}
