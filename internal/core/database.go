// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Arusey/Huduma/internal/config"
)

const dbProbeTimeout = 5 * time.Second

//go:embed migrations/*.sql
var migrationFS embed.FS

type Database struct {
	DB *sqlx.DB
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{DB: db}
	if err := d.Ping(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return d, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbProbeTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// migrationLockID serialises Migrate across processes booting at once.
const migrationLockID int64 = 0x68756475

// Migrate applies the embedded schema files in lexical order inside a single
// transaction. Every statement is written to be idempotent.
func (d *Database) Migrate(ctx context.Context) ([]string, error) {
	names, err := MigrationNames()
	if err != nil {
		return nil, err
	}

	err = InTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); lockErr != nil {
			return fmt.Errorf("lock migrations: %w", lockErr)
		}

		for _, name := range names {
			body, readErr := migrationFS.ReadFile("migrations/" + name)
			if readErr != nil {
				return fmt.Errorf("read migration %s: %w", name, readErr)
			}

			if _, execErr := tx.ExecContext(ctx, string(body)); execErr != nil {
				return fmt.Errorf("apply migration %s: %w", name, execErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

func MigrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateKeyError reports whether err is a Postgres unique violation.
func IsDuplicateKeyError(err error) bool {
	return pgErrorCode(err) == uniqueViolation
}

// IsForeignKeyError reports whether err is a Postgres foreign key violation,
// e.g. a rating inserted for a department deleted a moment earlier.
func IsForeignKeyError(err error) bool {
	return pgErrorCode(err) == foreignKeyViolation
}

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func jitteredDuration(base time.Duration) time.Duration {
	if base < 7 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base / 7)))
	return base + jitter
}
