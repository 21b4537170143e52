// Package backend builds the ledger store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"textledger/internal/cache"
	"textledger/internal/config"
	"textledger/internal/core"
	"textledger/internal/ledger"
	"textledger/internal/ledger/csvfile"
	"textledger/internal/ledger/memory"
	"textledger/internal/ledger/sheets"
	"textledger/internal/ledger/sqlite"
	"textledger/internal/log"
)

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// Result is a ready store plus its optional cleanup and entries cache.
type Result struct {
	Store   ledger.Store
	Cleanup CleanupFunc
	// Cache is set when CACHE_SIZE > 0 so callers can register it for expiry sweeps.
	Cache *cache.LRUCache[[]core.Entry]
}

// Close runs the cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the backend named by cfg.DataBackend and wraps it in an
// entries cache when one is configured.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	res, err := f.open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		c := cache.NewLRUCache[[]core.Entry](cfg.CacheSize, cfg.CacheTTL)
		res.Store = ledger.NewCachedStore(res.Store, c)
		res.Cache = c
	}

	f.logger.InfoContext(ctx, "Initialized ledger backend",
		log.FieldBackend, cfg.DataBackend,
		"cache_size", cfg.CacheSize)
	return res, nil
}

func (f *Factory) open(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case config.BackendFile:
		s, err := csvfile.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Using ledger files", "data_dir", cfg.DataDir)
		return &Result{Store: s}, nil

	case config.BackendMemory:
		f.logger.WarnContext(ctx, "Using in-memory ledgers; data is lost on restart")
		return &Result{Store: memory.New()}, nil

	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Using SQLite ledgers", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: s, Cleanup: s.Close}, nil

	case config.BackendSheets:
		s, err := OpenSheets(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Result{Store: s}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// OpenSheets builds the Google Sheets store. The mirror worker uses it directly.
func OpenSheets(ctx context.Context, cfg *config.Config) (*sheets.Store, error) {
	svc, err := sheets.NewService(ctx, sheets.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	s, err := sheets.New(svc, cfg.GoogleSpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets backend: %w", err)
	}
	return s, nil
}
