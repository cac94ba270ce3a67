package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if cfg.RunMigrations {
		mctx, mcancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := pkgdb.Migrate(mctx, db)
		mcancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	repo := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{Repo: repo, AccessSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret}

	actx, acancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = authSvc.EnsureAdmin(actx, cfg.AdminEmail, cfg.AdminPassword)
	acancel()
	if err != nil {
		log.Fatalf("ensure admin: %v", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	bgCtx = logging.IntoContext(bgCtx, logger)

	searchSvc := &service.SearchService{Repo: repo, Fallback: cfg.SearchFallback}
	var indexer *search.Indexer
	if cfg.SearchEnabled() {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		esClient, err := search.NewESClient(sctx, search.ESConfig{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err == nil {
			index := search.NewESIndex(esClient, cfg.ESIndex)
			if err = index.EnsureIndex(sctx); err == nil {
				embedder := search.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
				searchSvc.Embedder = embedder
				searchSvc.Index = index
				indexer = &search.Indexer{Embedder: embedder, Index: index}
			}
		}
		scancel()
		if err != nil {
			logger.Error("search_init_error", "error", err)
		}
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL is empty")
	}

	var publisher events.Publisher
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
		if indexer != nil {
			reader := events.NewReader(cfg.KafkaBrokers, events.TopicProducts, cfg.ServiceName+"-search-indexer")
			go func() {
				events.Consume(bgCtx, reader, indexer.Handle)
				_ = reader.Close()
			}()
		}
	} else {
		inline := events.NewInline()
		if indexer != nil {
			inline.Subscribe(events.TopicProducts, indexer.Handle)
		}
		publisher = inline
	}

	images := storage.NewLocalImageStore(cfg.UploadDir)
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("upload dir: %v", err)
	}

	checkout := &service.CheckoutService{UoW: repo, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.BodyLimit("6M"))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:       cfg.CookieSecure,
			SkipPrefixes: []string{"/health"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		DB:          db,
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc, SecureCookie: cfg.CookieSecure},
		CatalogHandler: &httpserver.CatalogHTTP{
			Svc:      &service.CatalogService{Repo: repo, Images: images, Events: publisher},
			Search:   searchSvc,
			Checkout: checkout,
		},
		CartHandler:  &httpserver.CartHTTP{Svc: &service.CartService{Repo: repo, Events: publisher}, Checkout: checkout},
		OrderHandler: &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: repo, Events: publisher}},
		AdminHandler: &httpserver.AdminHTTP{
			Customers: &service.CustomerService{Repo: repo},
			Analytics: &service.AnalyticsService{Repo: repo},
		},
		AuthMW:    auth.NewAutoRefreshMiddleware(authSvc, cfg.CookieSecure),
		UploadDir: cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	bgCancel()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("producer_close_error", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("stopped")
}
