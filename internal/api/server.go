package api

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/logging"
	"github.com/JakeFAU/news-scraper/internal/markup"
	"github.com/JakeFAU/news-scraper/internal/metrics"
	"github.com/JakeFAU/news-scraper/internal/news"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const requestTimeout = 60 * time.Second

// Gateway is the persistence surface the handlers depend on.
type Gateway interface {
	Scrape(ctx context.Context) (news.ScrapeResult, error)
	Unsaved(ctx context.Context) ([]news.Article, error)
	Saved(ctx context.Context) ([]news.ArticleWithNotes, error)
	All(ctx context.Context) ([]news.Article, error)
	Article(ctx context.Context, id string) (*news.ArticleWithNotes, error)
	Save(ctx context.Context, id string) (*news.Article, error)
	Unsave(ctx context.Context, id string) (*news.Article, error)
	AddNote(ctx context.Context, articleID, body string) (news.Note, error)
	DeleteNote(ctx context.Context, noteID, articleID string) error
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the gateway.
type Server struct {
	router chi.Router
	gw     Gateway
	pages  map[string]*template.Template
	logger *zap.Logger
}

// NewServer constructs a Server with middleware, templates and routes.
func NewServer(gw Gateway, logger *zap.Logger) (*Server, error) {
	return newServer(gw, logger, requestTimeout)
}

func newServer(gw Gateway, logger *zap.Logger, timeout time.Duration) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	metrics.Init()

	s := &Server{
		gw:     gw,
		pages:  pages,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(logging.RequestIDMiddleware)
	r.Use(logging.Middleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	// Handlers run on the request goroutine; the deadline reaches the
	// fetch and store calls through the context.
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.index)
	r.Get("/saved", s.saved)
	r.Get("/scrape", s.scrape)

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", s.listArticles)
		r.Get("/{id}", s.getArticle)
		r.Post("/save/{id}", s.saveArticle)
		r.Post("/delete/{id}", s.unsaveArticle)
	})
	r.Post("/notes/save/{id}", s.saveNote)
	r.Delete("/notes/delete/{note_id}/{article_id}", s.deleteNote)

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func parsePages() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"markdown": markup.Render,
	}
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}
	names := []string{"index.html", "saved.html", "404.html"}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = clone
	}
	return pages, nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.gw.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	articles, err := s.gw.Unsaved(r.Context())
	if err != nil {
		s.logger.Error("list unsaved articles failed", zap.Error(err))
	}
	s.render(w, http.StatusOK, "index.html", map[string]any{"Articles": articles})
}

func (s *Server) saved(w http.ResponseWriter, r *http.Request) {
	articles, err := s.gw.Saved(r.Context())
	if err != nil {
		s.logger.Error("list saved articles failed", zap.Error(err))
	}
	s.render(w, http.StatusOK, "saved.html", map[string]any{"Articles": articles})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusNotFound, "404.html", map[string]any{"Path": r.URL.Path})
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	result, err := s.gw.Scrape(r.Context())
	if err != nil {
		writeText(w, http.StatusBadGateway, "Scrape Failed")
		return
	}
	s.logger.Debug("scrape served", zap.Int("created", result.Created))
	writeText(w, http.StatusOK, "Scrape Complete")
}

func (s *Server) listArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.gw.All(r.Context())
	if err != nil {
		s.logger.Error("list articles failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) getArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, err := s.gw.Article(r.Context(), id)
	if err != nil {
		s.logger.Error("get article failed", zap.String("article_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) saveArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, err := s.gw.Save(r.Context(), id)
	if err != nil {
		s.logger.Error("save article failed", zap.String("article_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) unsaveArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	article, err := s.gw.Unsave(r.Context(), id)
	if err != nil {
		s.logger.Error("unsave article failed", zap.String("article_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) saveNote(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	text, err := noteText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	note, err := s.gw.AddNote(r.Context(), articleID, text)
	if err != nil {
		s.logger.Error("save note failed", zap.String("article_id", articleID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "note_id")
	articleID := chi.URLParam(r, "article_id")
	if err := s.gw.DeleteNote(r.Context(), noteID, articleID); err != nil {
		s.logger.Error("delete note failed",
			zap.String("note_id", noteID),
			zap.String("article_id", articleID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeText(w, http.StatusOK, "Note Deleted")
}

type noteRequest struct {
	Text string `json:"text"`
}

// noteText reads the note body from a JSON payload or a urlencoded form.
func noteText(r *http.Request) (string, error) {
	if isJSON(r.Header.Get("Content-Type")) {
		var req noteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errors.New("invalid JSON")
		}
		return req.Text, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", errors.New("invalid form")
	}
	return r.PostForm.Get("text"), nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		writeText(w, http.StatusInternalServerError, "internal server error")
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.logger.Error("render template failed", zap.String("template", name), zap.Error(err))
		writeText(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write page failed", zap.String("template", name), zap.Error(err))
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("request_id", logging.RequestID(r.Context())),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		zap.L().Error("write text failed", zap.Error(err))
	}
}
