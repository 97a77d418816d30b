package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/app/config"
	"inkpress/app/controllers"
	"inkpress/app/events"
	"inkpress/app/repositories"
	"inkpress/app/repositories/sanity"
	"inkpress/app/richtext"
	"inkpress/app/routes"
	"inkpress/app/services"
	"inkpress/app/views"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

const (
	prerenderTimeout = 30 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// App is the assembled blog: content store, event publisher and router.
type App struct {
	Config *config.Config
	Router http.Handler

	store     repositories.ContentStore
	db        *badger.DB
	publisher events.Publisher
	posts     *controllers.PostController
}

// NewApp wires the application for cfg.
func NewApp(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	images := sanity.ImageURLBuilder{ProjectID: cfg.ProjectID, Dataset: cfg.Dataset}

	switch cfg.StoreBackend {
	case config.BackendSanity:
		client, err := sanity.NewClient(sanity.Config{
			ProjectID: cfg.ProjectID,
			Dataset:   cfg.Dataset,
			Token:     cfg.Token,
			UseCDN:    cfg.UseCDN,
		}, nil)
		if err != nil {
			return nil, err
		}
		a.store = sanity.NewStore(client)
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.BadgerPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := openDB(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open Badger DB: %w", err)
		}
		a.db = db
		a.store = repositories.NewBadgerContentStore(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.KafkaEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := events.EnsureTopic(ctx, cfg.KafkaAddr, cfg.KafkaTopic); err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
		cancel()
		a.publisher = events.NewKafkaPublisher(cfg.KafkaAddr, cfg.KafkaTopic)
	} else {
		log.Warn("[server] kafka was not configured, comment events will not be published")
		a.publisher = events.NopPublisher{}
	}

	tmpl, err := views.Load(views.Helpers{
		ImageURL: images.URL,
		RichText: richtext.NewRenderer(images).Render,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.posts, err = controllers.NewPostController(services.NewPostService(a.store), tmpl, cfg.Revalidate())
	if err != nil {
		a.Close()
		return nil, err
	}
	comments := controllers.NewCommentController(services.NewCommentService(a.store, a.publisher))

	a.Router = routes.SetupRoutes(a.posts, comments)
	return a, nil
}

// Prerender warms the page cache. Failures only cost the first visitor a
// slower page, so they are logged and not returned.
func (a *App) Prerender(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, prerenderTimeout)
	defer cancel()

	if _, err := a.posts.Prerender(ctx); err != nil {
		log.Warnf("[server] failed to enumerate posts for pre-rendering: %v", err)
	}
}

// Serve handles requests on ln until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("[server] starting on %v", ln.Addr())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	log.Info("[server] HTTP server shut down gracefully")
	return nil
}

func (a *App) Close() {
	if a.posts != nil {
		a.posts.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warnf("[server] failed to close event publisher: %v", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warnf("[server] failed to close Badger DB: %v", err)
		}
	}
}

// RunAppServer starts the blog and blocks until SIGINT or SIGTERM.
func RunAppServer(cfg *config.Config) int {
	if err := cfg.Validate(); err != nil {
		log.Errorf("[server] invalid configuration: %v", err)
		return 1
	}
	log.Infof("[server] configuration: %s", cfg)

	app, err := NewApp(cfg)
	if err != nil {
		log.Errorf("[server] failed to start: %v", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Prerender(ctx)

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Errorf("[server] failed to listen on %s: %v", cfg.HTTPAddr, err)
		return 1
	}

	if err := app.Serve(ctx, ln); err != nil {
		log.Errorf("[server] %v", err)
		return 1
	}
	return 0
}
