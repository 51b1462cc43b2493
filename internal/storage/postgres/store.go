// Package postgres provides the Postgres-backed article and note store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/news-scraper/internal/news"
)

//go:embed schema.sql
var schema string

const articleColumns = "id, title, summary, link, saved, notes, created_at"

const noteColumns = "id, body, article, created_at"

// SQLSTATE character_not_in_repertoire: the value cannot be stored as text.
const codeCharacterNotInRepertoire = "22021"

// StoreConfig controls the Postgres connection pool.
type StoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store implements news.Store on two tables, articles and notes.
type Store struct {
	pool pool
}

// NewStore connects a pgx pool using cfg.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Migrate creates the articles and notes tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateArticle inserts an unsaved article; the id is assigned by Postgres.
func (s *Store) CreateArticle(ctx context.Context, rec news.Record) (news.Article, error) {
	query := `INSERT INTO articles (title, summary, link) VALUES ($1, $2, $3) RETURNING ` + articleColumns
	article, err := scanArticle(s.pool.QueryRow(ctx, query, rec.Title, rec.Summary, rec.Link))
	if err != nil {
		return news.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

// ListArticles returns matching articles oldest first.
func (s *Store) ListArticles(ctx context.Context, filter news.ArticleFilter) ([]news.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if filter.Saved != nil {
		query += ` WHERE saved = $1`
		args = append(args, *filter.Saved)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []news.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

// GetArticle fetches one article by id.
func (s *Store) GetArticle(ctx context.Context, id string) (news.Article, error) {
	if !validID(id) {
		return news.Article{}, fmt.Errorf("get article: %w", news.ErrNotFound)
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	article, err := scanArticle(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return news.Article{}, notFound("get article", err)
	}
	return article, nil
}

// SaveArticle sets saved=true and returns the updated row.
func (s *Store) SaveArticle(ctx context.Context, id string) (news.Article, error) {
	if !validID(id) {
		return news.Article{}, fmt.Errorf("save article: %w", news.ErrNotFound)
	}
	query := `UPDATE articles SET saved = TRUE WHERE id = $1 RETURNING ` + articleColumns
	article, err := scanArticle(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return news.Article{}, notFound("save article", err)
	}
	return article, nil
}

// UnsaveArticle sets saved=false, clears notes and returns the updated row.
func (s *Store) UnsaveArticle(ctx context.Context, id string) (news.Article, error) {
	if !validID(id) {
		return news.Article{}, fmt.Errorf("unsave article: %w", news.ErrNotFound)
	}
	query := `UPDATE articles SET saved = FALSE, notes = '{}' WHERE id = $1 RETURNING ` + articleColumns
	article, err := scanArticle(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return news.Article{}, notFound("unsave article", err)
	}
	return article, nil
}

// PushNote appends noteID to the article's notes list.
func (s *Store) PushNote(ctx context.Context, articleID, noteID string) error {
	if !validID(articleID) {
		return fmt.Errorf("push note: %w", news.ErrNotFound)
	}
	query := `UPDATE articles SET notes = array_append(notes, $2) WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, articleID, noteID); err != nil {
		return fmt.Errorf("push note: %w", err)
	}
	return nil
}

// PullNote removes noteID from the article's notes list.
func (s *Store) PullNote(ctx context.Context, articleID, noteID string) error {
	if !validID(articleID) || !validID(noteID) {
		return fmt.Errorf("pull note: %w", news.ErrNotFound)
	}
	query := `UPDATE articles SET notes = array_remove(notes, $2) WHERE id = $1`
	if _, err := s.pool.Exec(ctx, query, articleID, noteID); err != nil {
		return fmt.Errorf("pull note: %w", err)
	}
	return nil
}

// CreateNote inserts a note; the id is assigned by Postgres.
func (s *Store) CreateNote(ctx context.Context, articleID, body string) (news.Note, error) {
	query := `INSERT INTO notes (body, article) VALUES ($1, $2) RETURNING ` + noteColumns
	note, err := scanNote(s.pool.QueryRow(ctx, query, body, articleID))
	if err != nil {
		return news.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// DeleteNote removes a note by id. Zero affected rows is not an error.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("delete note: %w", news.ErrNotFound)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// NotesByID returns the existing notes among ids, ordered like ids.
func (s *Store) NotesByID(ctx context.Context, ids []string) ([]news.Note, error) {
	lookup := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			lookup = append(lookup, id)
		}
	}
	if len(lookup) == 0 {
		return []news.Note{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ANY($1)`, lookup)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]news.Note, len(ids))
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		byID[note.ID] = note
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	notes := make([]news.Note, 0, len(byID))
	for _, id := range ids {
		if note, ok := byID[id]; ok {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func scanArticle(row pgx.Row) (news.Article, error) {
	var a news.Article
	if err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Link, &a.Saved, &a.Notes, &a.CreatedAt); err != nil {
		return news.Article{}, err //nolint:wrapcheck // wrapped by callers
	}
	if a.Notes == nil {
		a.Notes = []string{}
	}
	return a, nil
}

func scanNote(row pgx.Row) (news.Note, error) {
	var n news.Note
	if err := row.Scan(&n.ID, &n.Body, &n.Article, &n.CreatedAt); err != nil {
		return news.Note{}, err //nolint:wrapcheck // wrapped by callers
	}
	return n, nil
}

func notFound(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, pgx.ErrNoRows) ||
		(errors.As(err, &pgErr) && pgErr.Code == codeCharacterNotInRepertoire) {
		return fmt.Errorf("%s: %w", op, news.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// validID reports whether id can be compared against a TEXT column at all.
func validID(id string) bool {
	return utf8.ValidString(id) && !strings.ContainsRune(id, 0)
}
