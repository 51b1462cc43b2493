// Package app builds the long-lived services of the scraper and owns their
// shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-scraper/internal/api"
	"github.com/JakeFAU/news-scraper/internal/clock/system"
	"github.com/JakeFAU/news-scraper/internal/config"
	"github.com/JakeFAU/news-scraper/internal/extract"
	collyfetcher "github.com/JakeFAU/news-scraper/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/news-scraper/internal/fetcher/headless"
	"github.com/JakeFAU/news-scraper/internal/gateway"
	"github.com/JakeFAU/news-scraper/internal/hash/sha256"
	"github.com/JakeFAU/news-scraper/internal/id/uuid"
	"github.com/JakeFAU/news-scraper/internal/news"
	memorypublisher "github.com/JakeFAU/news-scraper/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/news-scraper/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/news-scraper/internal/storage/gcs"
	localstorage "github.com/JakeFAU/news-scraper/internal/storage/local"
	memorystorage "github.com/JakeFAU/news-scraper/internal/storage/memory"
	pgstore "github.com/JakeFAU/news-scraper/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies. It is safe for concurrent use
// once built.
type App struct {
	cfg             config.Config
	logger          *zap.Logger
	store           news.Store
	fetcher         news.Fetcher
	headless        *headlessfetcher.Fetcher
	archive         news.BlobStore
	publisher       news.Publisher
	storageClient   *storage.Client
	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
	gateway         *gateway.Gateway
	apiServer       *api.Server
}

// Build creates the application's dependencies. Anything opened before a
// failure is released before returning.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	a.logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("archive_driver", cfg.Archive.Driver),
		zap.String("events_driver", cfg.Events.Driver),
	)

	if err := a.build(ctx); err != nil {
		if closeErr := a.Close(ctx); closeErr != nil {
			a.logger.Warn("cleanup after failed build", zap.Error(closeErr))
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	var err error
	if a.store, err = a.setupStore(ctx); err != nil {
		return err
	}
	if a.fetcher, err = a.setupFetcher(); err != nil {
		return err
	}
	if a.archive, err = a.setupArchive(ctx); err != nil {
		return err
	}
	if a.publisher, err = a.setupPublisher(ctx); err != nil {
		return err
	}

	a.gateway = gateway.New(
		a.store,
		a.fetcher,
		extract.New(news.SourceOrigin),
		a.archive,
		a.publisher,
		sha256.New(),
		system.New(),
		gateway.Config{
			SourceURL:     news.SourceURL,
			ArchivePrefix: a.cfg.Archive.Prefix,
		},
		a.logger.Named("gateway"),
	)

	a.apiServer, err = api.NewServer(a.gateway, a.logger.Named("api"))
	if err != nil {
		return fmt.Errorf("api server init failed: %w", err)
	}
	return nil
}

func (a *App) setupStore(ctx context.Context) (news.Store, error) {
	switch a.cfg.DB.Driver {
	case config.DriverMemory:
		a.logger.Info("using in-memory article store")
		return memorystorage.NewStore(uuid.New(), system.New()), nil
	case config.DriverPostgres:
		store, err := pgstore.NewStore(ctx, pgstore.StoreConfig{
			DSN:      a.cfg.DB.DSN,
			MaxConns: a.cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store init failed: %w", err)
		}
		if a.cfg.DB.Migrate {
			if err := store.Migrate(ctx); err != nil {
				store.Close()
				return nil, fmt.Errorf("postgres migrate failed: %w", err)
			}
			a.logger.Info("postgres schema applied")
		}
		a.logger.Info("postgres article store initialized")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db driver: %s", a.cfg.DB.Driver)
	}
}

func (a *App) setupFetcher() (news.Fetcher, error) {
	if a.cfg.Fetch.Headless {
		fetcher, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       1,
			UserAgent:         a.cfg.Fetch.UserAgent,
			NavigationTimeout: a.cfg.HeadlessTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("headless fetcher init failed: %w", err)
		}
		a.headless = fetcher
		a.logger.Info("using headless chromedp fetcher")
		return fetcher, nil
	}
	a.logger.Info("using colly fetcher", zap.Duration("timeout", a.cfg.FetchTimeout()))
	return collyfetcher.New(collyfetcher.Config{
		UserAgent:     a.cfg.Fetch.UserAgent,
		RespectRobots: a.cfg.Fetch.RespectRobots,
		Timeout:       a.cfg.FetchTimeout(),
	}), nil
}

func (a *App) setupArchive(ctx context.Context) (news.BlobStore, error) {
	switch a.cfg.Archive.Driver {
	case config.DriverGCS:
		var err error
		a.storageClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		blobStore, err := gcsstorage.New(a.storageClient, gcsstorage.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.logger.Info("using GCS page archive", zap.String("bucket", a.cfg.Archive.GCSBucket))
		return blobStore, nil
	case config.DriverLocal:
		blobStore, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		a.logger.Info("using local page archive", zap.String("path", a.cfg.Archive.BaseDir))
		return blobStore, nil
	case config.DriverMemory:
		a.logger.Info("using in-memory page archive")
		return memorystorage.NewBlobStore(), nil
	default:
		a.logger.Info("page archive disabled")
		return nil, nil
	}
}

func (a *App) setupPublisher(ctx context.Context) (news.Publisher, error) {
	switch a.cfg.Events.Driver {
	case config.DriverPubSub:
		var err error
		a.pubsubClient, err = pubsub.NewClient(ctx, a.cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client init failed: %w", err)
		}
		a.pubsubPublisher = gcppublisher.New(a.pubsubClient.Topic(a.cfg.Events.Topic))
		a.logger.Info("Pub/Sub publisher initialized",
			zap.String("project", a.cfg.Events.ProjectID),
			zap.String("topic", a.cfg.Events.Topic),
		)
		return a.pubsubPublisher, nil
	case config.DriverMemory:
		a.logger.Info("using in-memory event publisher")
		return memorypublisher.New(), nil
	default:
		a.logger.Info("scrape events disabled")
		return nil, nil
	}
}

// Gateway returns the persistence gateway.
func (a *App) Gateway() *gateway.Gateway {
	return a.gateway
}

// Store returns the article store.
func (a *App) Store() news.Store {
	return a.store
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return nil
	}
}

// Close releases every resource opened by Build. It is safe to call on a
// partially built App.
func (a *App) Close(_ context.Context) error {
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	var errs []error
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if a.storageClient != nil {
		if err := a.storageClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if a.headless != nil {
		a.headless.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
