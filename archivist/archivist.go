package archivist

import (
	"context"
	"log/slog"

	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// Store persists the cache snapshot so that a restart does not begin with an empty cache.
type Store interface {
	Name() string
	Save(ctx context.Context, records []Record) error
	Load(ctx context.Context) ([]Record, error)
	Close() error
}

const (
	BackendNone     = "none"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Archivist is responsible for keeping the latest data in memory and, optionally, in a Store.
type Archivist struct {
	*Cache
	store  Store
	logger *slog.Logger
}

// NewArchivist creates an Archivist over the given universe. store may be nil.
func NewArchivist(symbols []string, store Store) *Archivist {
	return &Archivist{
		Cache:  NewCache(symbols),
		store:  store,
		logger: slog.Default(),
	}
}

func (a *Archivist) WithLogger(l *slog.Logger) *Archivist {
	a.logger = l
	return a
}

// HasStore reports whether snapshots are persisted.
func (a *Archivist) HasStore() bool {
	return a.store != nil
}

// Flush writes the current snapshot to the store. Without a store it is a no-op.
func (a *Archivist) Flush(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	records := a.Snapshot()
	if err := a.store.Save(ctx, records); err != nil {
		return err
	}
	a.logger.Debug("archive flushed", "store", a.store.Name(), "symbols", len(records))
	return nil
}

// Warm restores the cache from the store and returns the number of restored symbols.
func (a *Archivist) Warm(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}

	records, err := a.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	n := a.Restore(records)
	a.logger.Info("archive restored", "store", a.store.Name(), "symbols", n)
	return n, nil
}

func (a *Archivist) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// OpenStore connects to the configured backend. BackendNone returns a nil Store.
func OpenStore(ctx context.Context, backend, postgresDSN, redisAddr string, log *slog.Logger) (Store, error) {
	switch backend {
	case "", BackendNone:
		return nil, nil
	case BackendPostgres:
		if postgresDSN == "" {
			return nil, newError(errlvl.ERROR, errMissingConnString, nil)
		}
		store, err := NewPostgresStore(ctx, postgresDSN, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		if redisAddr == "" {
			return nil, newError(errlvl.ERROR, errMissingConnString, nil)
		}
		store, err := NewRedisStore(ctx, redisAddr, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, newError(errlvl.ERROR, errUnknownBackend, nil)
	}
}
