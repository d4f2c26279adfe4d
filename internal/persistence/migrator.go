package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Migrator applies the SQL files under migrationsDir in version order.
// Files follow the golang-migrate convention {version}_{name}.up.sql /
// .down.sql; applied versions are tracked in pool_ledger.schema_migrations
// so the ledger schema and its bookkeeping live side by side.
type Migrator struct {
	db            *sql.DB
	migrationsDir string
	logger        zerolog.Logger
}

// migrationFile is one parsed migration filename.
type migrationFile struct {
	Version  int64
	Filename string
}

func NewMigrator(db *sql.DB, migrationsDir string, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:            db,
		migrationsDir: migrationsDir,
		logger:        logger.With().Str("component", "migrator").Logger(),
	}
}

// Up applies every pending up-migration, each in its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("load applied versions: %w", err)
	}

	files, err := loadMigrationDir(m.migrationsDir, ".up.sql")
	if err != nil {
		return fmt.Errorf("scan migrations: %w", err)
	}

	for _, f := range files {
		if applied[f.Version] {
			continue
		}
		if err := m.applyFile(ctx, f); err != nil {
			return err
		}
		m.logger.Info().Int64("version", f.Version).Str("file", f.Filename).Msg("migration applied")
	}

	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	var version int64
	var filename string
	err := m.db.QueryRowContext(ctx, `
		SELECT version, filename FROM pool_ledger.schema_migrations
		ORDER BY version DESC LIMIT 1
	`).Scan(&version, &filename)
	if err == sql.ErrNoRows {
		m.logger.Info().Msg("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load latest version: %w", err)
	}

	downFile := strings.Replace(filename, ".up.sql", ".down.sql", 1)
	content, err := os.ReadFile(filepath.Join(m.migrationsDir, downFile))
	if err != nil {
		return fmt.Errorf("read down migration %s: %w", downFile, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("exec down migration %s: %w", downFile, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pool_ledger.schema_migrations WHERE version = $1
	`, version); err != nil {
		return fmt.Errorf("remove version record %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.logger.Info().Int64("version", version).Str("file", downFile).Msg("migration rolled back")
	return nil
}

// applyFile runs one up-migration and records its version in a single
// transaction, so a failed migration leaves no version record behind.
func (m *Migrator) applyFile(ctx context.Context, f migrationFile) error {
	content, err := os.ReadFile(filepath.Join(m.migrationsDir, f.Filename))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", f.Filename, err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", f.Filename, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("exec migration %s: %w", f.Filename, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pool_ledger.schema_migrations (version, filename) VALUES ($1, $2)
	`, f.Version, f.Filename); err != nil {
		return fmt.Errorf("record migration %s: %w", f.Filename, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", f.Filename, err)
	}
	return nil
}

// ensureVersionTable creates the schema and the version table. The 0001
// migration also creates the schema; both use IF NOT EXISTS so either may
// run first.
func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE SCHEMA IF NOT EXISTS pool_ledger;
		CREATE TABLE IF NOT EXISTS pool_ledger.schema_migrations (
			version    BIGINT PRIMARY KEY,
			filename   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int64]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM pool_ledger.schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// loadMigrationDir returns the migration files carrying the given suffix,
// sorted by numeric version. A file without a parsable numeric prefix is an
// error rather than a silently skipped migration.
func loadMigrationDir(dir, suffix string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		version, err := parseVersion(e.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, migrationFile{Version: version, Filename: e.Name()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// parseVersion extracts the numeric prefix, e.g. "0001_init.up.sql" -> 1.
func parseVersion(filename string) (int64, error) {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s: missing version prefix", filename)
	}
	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("migration %s: bad version prefix: %w", filename, err)
	}
	return version, nil
}
