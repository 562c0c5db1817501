package database

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// goose keeps its base FS, dialect and logger in package globals
var gooseMu sync.Mutex

// gooseUpContext is a seam for tests
var gooseUpContext = func(ctx context.Context, db *DB, dir string) error {
	return goose.UpContext(ctx, db.DB, dir)
}

// gooseLogger routes goose output through zap
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.sugar.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.sugar.Fatalf(format, v...) }

// RunMigrations applies the embedded migrations for the connection's dialect
func (db *DB) RunMigrations(ctx context.Context, logger *zap.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	goose.SetLogger(gooseLogger{sugar: logger.Named("migrations").Sugar()})

	if err := goose.SetDialect(db.Dialect.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	dir := path.Join("migrations", db.Dialect.MigrationsSubdir())
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to apply migrations from %s: %w", dir, err)
	}

	return nil
}
