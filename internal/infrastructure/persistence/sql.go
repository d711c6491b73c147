package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
)

// storageEntry is one persisted key
type storageEntry struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;column:item_key;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (storageEntry) TableName() string {
	return "local_storage"
}

// SQLStore persists client state in a SQL table keyed by namespace, so
// separate CLI runs (or installs sharing a database) see one session and
// cart
type SQLStore struct {
	db        *gorm.DB
	namespace string
}

var _ shared.KeyValueStore = (*SQLStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a private in-memory database.
func NewSQLiteStore(path, namespace string, log *zap.Logger, logLevel string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	// sqlite allows one writer; an in-memory database also exists per connection
	return openSQLStore(sqlite.Open(path), "sqlite", 1, namespace, log, logLevel)
}

// NewPostgresStore connects to the PostgreSQL database at dsn
func NewPostgresStore(dsn, namespace string, log *zap.Logger, logLevel string) (*SQLStore, error) {
	return openSQLStore(postgres.Open(dsn), "postgresql", 4, namespace, log, logLevel)
}

func openSQLStore(dialector gorm.Dialector, system string, maxOpen int, namespace string, log *zap.Logger, logLevel string) (*SQLStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}
	// spans go to the global tracer provider, a no-op unless telemetry is on
	if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(system), otelgorm.WithoutQueryVariables())); err != nil {
		return nil, fmt.Errorf("failed to instrument storage database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)

	if err := db.AutoMigrate(&storageEntry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate storage database: %w", err)
	}

	return NewSQLStoreWithDB(db, namespace), nil
}

// NewSQLStoreWithDB creates a store on an existing, migrated connection
func NewSQLStoreWithDB(db *gorm.DB, namespace string) *SQLStore {
	if namespace == "" {
		namespace = "default"
	}
	return &SQLStore{db: db, namespace: namespace}
}

// Get implements shared.KeyValueStore
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry storageEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND item_key = ?", s.namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set implements shared.KeyValueStore
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := storageEntry{Namespace: s.namespace, Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete implements shared.KeyValueStore
func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND item_key IN ?", s.namespace, keys).
		Delete(&storageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Clear implements shared.KeyValueStore
func (s *SQLStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("namespace = ?", s.namespace).
		Delete(&storageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Close implements shared.KeyValueStore
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

