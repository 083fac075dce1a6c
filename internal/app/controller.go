// Package app provides the bootstrap pipeline for the grocery service.
package app

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

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iggydv12/gogrocery/internal/api/rest"
	"github.com/iggydv12/gogrocery/internal/config"
	"github.com/iggydv12/gogrocery/internal/grocery"
	"github.com/iggydv12/gogrocery/internal/storage"
	"github.com/iggydv12/gogrocery/internal/storage/local"
	"github.com/iggydv12/gogrocery/internal/storage/memory"
	"github.com/iggydv12/gogrocery/internal/storage/mongo"
)

// Controller wires the store, service and REST server, and runs until shutdown.
type Controller struct {
	cfg    *config.Config
	logger *zap.Logger

	// ready, when set, receives the bound listener address once serving.
	ready chan<- string
}

// NewController creates a Controller.
func NewController(cfg *config.Config, logger *zap.Logger) *Controller {
	return &Controller{cfg: cfg, logger: logger}
}

// Run opens the store and serves HTTP until SIGINT/SIGTERM or ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Warn("store close failed", zap.Error(err))
		}
	}()

	svc := grocery.NewService(store, c.logger)
	api := rest.New(svc, c.logger, rest.Options{
		RequestTimeout: c.cfg.Server.RequestTimeout,
		Metrics:        c.cfg.Server.Metrics,
	})

	lis, err := net.Listen("tcp", c.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.cfg.Server.Addr, err)
	}
	srv := &http.Server{
		Handler:      api.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("REST API listening", zap.String("addr", lis.Addr().String()))
		if c.ready != nil {
			c.ready <- lis.Addr().String()
		}
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore builds the configured backend and initialises it, retrying on failure.
func (c *Controller) openStore(ctx context.Context) (storage.ItemStore, error) {
	store, err := c.newStore()
	if err != nil {
		return nil, err
	}

	err = retry.Do(func() error {
		initCtx, cancel := context.WithTimeout(ctx, c.cfg.Store.Mongo.ConnectTimeout)
		defer cancel()
		return store.Init(initCtx)
	},
		retry.Context(ctx),
		retry.Attempts(uint(c.cfg.Store.ConnectAttempts)),
		retry.Delay(1*time.Second),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("store init failed, retrying",
				zap.String("backend", c.cfg.Store.Backend),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("store init (%s): %w", c.cfg.Store.Backend, err)
	}
	return store, nil
}

func (c *Controller) newStore() (storage.ItemStore, error) {
	switch c.cfg.Store.Backend {
	case config.BackendMongo:
		m := c.cfg.Store.Mongo
		return mongo.NewStorage(mongo.Options{
			URI:        m.URI,
			Database:   m.Database,
			Collection: m.Collection,
		}, c.logger), nil
	case config.BackendPebble:
		return local.NewPebbleStorage(c.cfg.Store.Pebble.Path, c.logger), nil
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", c.cfg.Store.Backend)
	}
}
