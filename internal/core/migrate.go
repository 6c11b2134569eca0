// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey serialises concurrent instances applying migrations.
const migrationLockKey = 72_340_172

type Migration struct {
	Name string
	ID   string
	SQL  string
}

// LoadMigrations returns the embedded migrations in apply order. The id
// embeds a content hash so an edited file is applied again.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		sum := sha256.Sum256(body)
		migrations = append(migrations, Migration{
			Name: name,
			ID:   name + ":" + hex.EncodeToString(sum[:]),
			SQL:  string(body),
		})
	}

	return migrations, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id         TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	migrations, err := LoadMigrations(migrationsFS)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		err := InTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(
				ctx,
				"SELECT pg_advisory_xact_lock($1)",
				migrationLockKey,
			); err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}

			var applied bool
			if err := tx.GetContext(
				ctx,
				&applied,
				"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE id = $1)",
				m.ID,
			); err != nil {
				return fmt.Errorf("check migration: %w", err)
			}
			if applied {
				return nil
			}

			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}

			_, err := tx.ExecContext(
				ctx,
				"INSERT INTO schema_migrations (id) VALUES ($1)",
				m.ID,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
	}

	return nil
}
