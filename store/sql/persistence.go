package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-botbase/core"
	"github.com/goliatone/go-botbase/migrations"
	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// NewPersistenceClient opens the configured database and wraps it in a
// go-persistence-bun client with the matching bun dialect.
func NewPersistenceClient(cfg core.PersistenceConfig) (*persistence.Client, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = core.DriverSQLite
	}
	server := strings.TrimSpace(cfg.Server)
	if server == "" {
		return nil, goerrors.New("sqlstore: persistence server is required", goerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode(core.ErrorBadInput).
			WithMetadata(map[string]any{"driver": driver})
	}

	var dialect schema.Dialect
	switch driver {
	case core.DriverSQLite:
		dialect = sqlitedialect.New()
	case core.DriverPostgres:
		dialect = pgdialect.New()
	default:
		return nil, goerrors.New("sqlstore: unsupported persistence driver", goerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode(core.ErrorBadInput).
			WithMetadata(map[string]any{"driver": driver})
	}

	sqlDB, err := sql.Open(driver, server)
	if err != nil {
		return nil, core.WrapError(err, goerrors.CategoryInternal, core.ErrorNotConfigured, "sqlstore: open database")
	}
	if driver == core.DriverSQLite {
		// sqlite serializes writers; a single connection keeps in-memory
		// databases shared and avoids SQLITE_BUSY under concurrent writes.
		sqlDB.SetMaxOpenConns(1)
	}

	cfg.Driver = driver
	cfg.Server = server
	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, core.WrapError(err, goerrors.CategoryInternal, core.ErrorNotConfigured, "sqlstore: new persistence client")
	}
	return client, nil
}

// RegisterMigrations registers the consumer migrations found under root for
// the client's dialect and applies them.
func RegisterMigrations(ctx context.Context, client *persistence.Client, driver string, root fs.FS) error {
	if client == nil {
		return notConfigured("sqlstore: persistence client is required")
	}
	dialect := migrations.DialectForDriver(driver)
	if dialect == "" {
		return goerrors.New("sqlstore: unsupported migration driver", goerrors.CategoryBadInput).
			WithCode(400).
			WithTextCode(core.ErrorBadInput).
			WithMetadata(map[string]any{"driver": driver})
	}
	_, err := migrations.Register(ctx, root, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(dialect))
	if err != nil {
		return err
	}
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, notConfigured("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, notConfigured("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, notConfigured(fmt.Sprintf("sqlstore: unsupported persistence client type %T", candidate))
	}
}
