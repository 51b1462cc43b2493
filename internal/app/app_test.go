package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/config"
	"github.com/JakeFAU/news-scraper/internal/news"
	memorypublisher "github.com/JakeFAU/news-scraper/internal/publisher/memory"
	localstorage "github.com/JakeFAU/news-scraper/internal/storage/local"
	memorystorage "github.com/JakeFAU/news-scraper/internal/storage/memory"
)

func memoryConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Port: 3000},
		DB:      config.DBConfig{Driver: config.DriverMemory},
		Fetch:   config.FetchConfig{UserAgent: "test-agent", TimeoutSeconds: 5},
		Archive: config.ArchiveConfig{Driver: config.DriverNone, Prefix: "pages"},
		Events:  config.EventsConfig{Driver: config.DriverNone},
	}
}

func TestBuild_MemoryStack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := Build(ctx, memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(ctx)) })

	require.NotNil(t, a.Gateway())
	require.IsType(t, &memorystorage.Store{}, a.Store())
	require.Nil(t, a.archive)
	require.Nil(t, a.publisher)

	article, err := a.Store().CreateArticle(ctx, news.Record{Title: "A", Summary: "B", Link: "https://x/y"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/"+article.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"title":"A"`)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_LocalArchiveAndMemoryEvents(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.Archive = config.ArchiveConfig{
		Driver:  config.DriverLocal,
		BaseDir: filepath.Join(t.TempDir(), "pages"),
		Prefix:  "pages",
	}
	cfg.Events = config.EventsConfig{Driver: config.DriverMemory}

	ctx := context.Background()
	a, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(ctx)) })

	require.IsType(t, &localstorage.BlobStore{}, a.archive)
	require.IsType(t, &memorypublisher.Publisher{}, a.publisher)
}

func TestBuild_MemoryArchive(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.Archive.Driver = config.DriverMemory

	ctx := context.Background()
	a, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close(ctx)) })

	require.IsType(t, &memorystorage.BlobStore{}, a.archive)
}

func TestBuild_UnknownStoreDriver(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.DB.Driver = "mongo"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unknown db driver")
}

func TestClose_PartialApp(t *testing.T) {
	t.Parallel()

	a := &App{logger: zap.NewNop()}
	require.NoError(t, a.Close(context.Background()))
}
