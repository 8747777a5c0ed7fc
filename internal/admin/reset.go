// Package admin assembles the record service from configuration and holds
// the maintenance operations shared by the server and translocctl.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/translocations/internal/config"
	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/metrics"
	"github.com/JonMunkholm/translocations/internal/store/memstore"
	"github.com/JonMunkholm/translocations/internal/store/mongostore"
	"github.com/JonMunkholm/translocations/internal/store/pgstore"
)

// ResetTimeout bounds a full reset of the collection.
const ResetTimeout = 30 * time.Second

// OpenStore connects to the backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMongo:
		return mongostore.Open(ctx, mongostore.Config{
			URI:             cfg.URL,
			Database:        cfg.Database,
			Collection:      cfg.Collection,
			OpTimeout:       cfg.OpTimeout,
			MaxPoolSize:     uint64(cfg.MaxConns),
			MinPoolSize:     uint64(cfg.MinConns),
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	case config.DriverPostgres:
		return pgstore.Open(ctx, pgstore.Config{
			URL:             cfg.URL,
			Table:           cfg.Collection,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			OpTimeout:       cfg.OpTimeout,
		})
	case config.DriverMemory:
		slog.Warn("using in-memory store; records are lost on exit")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// ServiceOptions maps configuration onto service options. m may be nil.
func ServiceOptions(cfg *config.Config, m *metrics.Metrics) core.Options {
	return core.Options{
		MaxErrors:            cfg.Import.MaxErrors,
		FallbackYear:         cfg.Import.FallbackYear,
		MaxFileSize:          cfg.Upload.MaxFileSize,
		MaxConcurrentImports: cfg.Upload.MaxConcurrent,
		MaxImportWait:        cfg.Upload.MaxWaitTime,
		ImportTimeout:        cfg.Upload.Timeout,
		AuditCapacity:        auditCapacity(cfg.Audit.Capacity),
		Metrics:              m,
	}
}

// auditCapacity maps the config's "0 disables" onto the service's
// "negative disables".
func auditCapacity(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// Open opens the store and wraps it in a service. Callers close the
// returned store.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*core.Service, core.Store, error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return core.NewService(store, ServiceOptions(cfg, m)), store, nil
}

// Reset removes every translocation. It refuses to run while an import
// holds the limiter, so a reset never races a commit in this process.
func Reset(ctx context.Context, svc *core.Service) error {
	if !svc.Limiter().TryAcquire() {
		return core.ErrTooManyImports
	}
	defer svc.Limiter().Release()

	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	return svc.Reset(ctx)
}
