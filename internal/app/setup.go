// Package app contains the application setup for the storefront.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/webstore/internal/cart"
	"github.com/abgdnv/webstore/internal/config"
	"github.com/abgdnv/webstore/internal/favorites"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/abgdnv/webstore/internal/order"
	"github.com/abgdnv/webstore/internal/service"
	"github.com/abgdnv/webstore/internal/store"
	grpcImpl "github.com/abgdnv/webstore/internal/transport/grpc"
	"github.com/abgdnv/webstore/internal/transport/rest"
	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/abgdnv/webstore/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

const serviceName = "storefront"

type Dependencies struct {
	CatalogService service.CatalogService
	OrderService   order.OrderService
	Logger         *slog.Logger
	Latency        time.Duration
	// Gatherer is served on MetricsPath when both are set.
	Gatherer    prometheus.Gatherer
	MetricsPath string

	closers []func() error
}

// Close releases the backends opened by SetupDependencies.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// SetupDependencies builds the catalog and order services on the configured backends.
// Orders live in the catalog backend.
// dbPool may be nil when no backend uses postgres.
func SetupDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger, Latency: cfg.Catalog.Latency}

	var (
		st     store.Store
		orders order.Store
	)
	switch cfg.Storage.Catalog {
	case config.DriverPostgres:
		if dbPool == nil {
			return nil, errors.New("postgres catalog requires a database pool")
		}
		st = store.NewPgStore(dbPool)
		orders = order.NewPgStore(dbPool)
	default:
		st = store.NewInMemoryStore()
		orders = order.NewInMemoryStore()
	}

	if cfg.Storage.Seed {
		n, err := store.SeedIfEmpty(ctx, st, store.SeedCatalog())
		if err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n > 0 {
			logger.Info("Catalog seeded", slog.Int("products", n))
		}
	}

	kvStore, err := newKVStore(cfg.Storage, dbPool, deps)
	if err != nil {
		return nil, err
	}

	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	deps.OrderService = order.NewService(orders, publisher, logger)
	deps.CatalogService = service.NewCatalog(
		st,
		favorites.NewRegistry(kvStore, cfg.Catalog.Slots, logger),
		cart.New(kvStore, logger),
		deps.OrderService,
		publisher,
		logger,
		cfg.Catalog.PageSize,
	)
	return deps, nil
}

func newKVStore(cfg config.StorageConfig, dbPool *pgxpool.Pool, deps *Dependencies) (kv.Store, error) {
	switch cfg.KV.Driver {
	case config.DriverPostgres:
		if dbPool == nil {
			return nil, errors.New("postgres kv requires a database pool")
		}
		return kv.NewPgStore(dbPool), nil
	case config.DriverSQLite:
		s, err := kv.OpenSQLite(cfg.KV.Path)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, s.Close)
		return s, nil
	default:
		return kv.NewMemory(), nil
	}
}

// SetupHttpHandler initializes the router and routes of the storefront.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.CatalogService, deps.OrderService, deps.Logger, deps.Latency).RegisterRoutes(mux)
	if deps.Gatherer != nil && deps.MetricsPath != "" {
		mux.Handle(deps.MetricsPath, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)
	return server.NewHTTPServer(cfg.HTTPServer, serviceName, mux)
}

// SetupGrpcServer initializes the gRPC server for the storefront.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	catalogRegisterFunc := func(s *grpc.Server) {
		grpcImpl.RegisterCatalogServiceServer(s, grpcImpl.NewServer(deps.CatalogService, deps.Logger))
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, catalogRegisterFunc)
}
