package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/mindurmind/internal/ctxutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLBackend хранит блоб одной строкой в таблице dataset_blobs.
// Семантика та же, что у файла: один ключ, перезапись целиком.
type SQLBackend struct {
	db *sql.DB
}

func OpenSQL(ctx context.Context, dsn string) (*SQLBackend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()

	var blob []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT blob FROM dataset_blobs WHERE key = $1`, StorageKey,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (b *SQLBackend) Save(ctx context.Context, blob []byte) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO dataset_blobs (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = excluded.blob, updated_at = now()
	`, StorageKey, blob)
	return err
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	return b.db.PingContext(ctx)
}

func (b *SQLBackend) Close() error { return b.db.Close() }
