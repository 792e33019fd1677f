package backend

import (
	"context"
	"fmt"
	"log/slog"

	"smartspend/internal/adapters"
	"smartspend/internal/amqp"
	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/ledger"
	"smartspend/internal/ledger/firestore"
	"smartspend/internal/ledger/google"
	"smartspend/internal/ledger/memory"
	"smartspend/internal/services"
	"smartspend/internal/storage"
)

const sourceCacheSize = 8

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case FirestoreBackend:
		return f.createFirestoreBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config), nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}

// CreateSyncTarget builds the remote writer used by the sync worker.
func (f *DefaultFactory) CreateSyncTarget(ctx context.Context, target BackendType, config Config) (ledger.TransactionWriter, CleanupFunc, error) {
	if err := config.validateFor(target); err != nil {
		return nil, nil, err
	}
	switch target {
	case SheetsBackend:
		cli, err := google.New(ctx, config.Sheets)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		return cli, nil, nil
	case FirestoreBackend:
		store, err := firestore.New(ctx, config.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
		}
		return store, store.Close, nil
	case MemoryBackend:
		f.logger.Warn("Syncing to in-memory ledger, mirrored rows are lost on exit")
		return memory.New(), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported sync target: %s", target)
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// a nil *amqp.Client must not end up inside the interface
	var publisher services.SyncPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewTransactionService(repo, publisher)
	adapter := adapters.NewSQLiteAdapter(repo, svc)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: adapter,
		Ready:   adapter.Ping,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "cache_ttl", config.SourceCacheTTL)
	return f.withSourceCache(ctx, cli, cli, cli, config, nil), nil
}

func (f *DefaultFactory) createFirestoreBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := firestore.New(ctx, config.FirestoreProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
	}
	f.logger.Info("Initialized Firestore backend",
		"project_id", config.FirestoreProjectID,
		"cache_ttl", config.SourceCacheTTL)
	return f.withSourceCache(ctx, store, store, store, config, store.Close), nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	store := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Backend: store}
}

// withSourceCache puts a CachedSource in front of a remote source when a
// TTL is configured. Writes go through a CachingWriter so they invalidate it.
func (f *DefaultFactory) withSourceCache(
	ctx context.Context,
	writer ledger.TransactionWriter,
	source ledger.TransactionSource,
	registrar ledger.UserRegistrar,
	config Config,
	closeFn CleanupFunc,
) *BackendResult {
	if config.SourceCacheTTL <= 0 {
		return &BackendResult{
			Backend: composite{writer, source, registrar},
			Cleanup: closeFn,
		}
	}

	lru := cache.NewLRUCache[[]core.Transaction](sourceCacheSize, config.SourceCacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(context.WithoutCancel(ctx), config.SourceCacheTTL)

	cached := ledger.NewCachedSource(source, lru)
	return &BackendResult{
		Backend: composite{ledger.NewCachingWriter(writer, cached), cached, registrar},
		Cleanup: func() error {
			manager.Stop()
			if closeFn != nil {
				return closeFn()
			}
			return nil
		},
	}
}
