package db

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/rulegate/migrations"
)

/*
 * Schema migrations for the rule store.
 *
 * Migration scripts are embedded per driver and applied in filename order,
 * the numeric prefix dictating sequence. Every applied script leaves a
 * ledger row carrying its SHA-256 digest; on the next run the digests are
 * re-verified, so an edited script fails loudly instead of letting the
 * deployed schema drift from the files.
 */

// MigrationStatus describes one migration script and whether it has run.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   string
	ExecutionMs int64
}

// migrationScript is one embedded .sql file with its content digest.
type migrationScript struct {
	name   string
	digest string
	body   string
}

// ledgerRow mirrors the schema_migrations bookkeeping table.
type ledgerRow struct {
	ID          string `db:"migration_id"`
	Checksum    string `db:"checksum"`
	AppliedAt   string `db:"applied_at"`
	ExecutionMs int64  `db:"execution_ms"`
}

// MigrateUp applies every pending migration for the connected driver.
// Digests of already-applied scripts are verified before anything runs.
func MigrateUp(db *sqlx.DB) error {
	scripts, err := loadScripts(db.DriverName())
	if err != nil {
		return err
	}
	ledger, err := readLedger(db, scripts)
	if err != nil {
		return err
	}

	for _, s := range scripts {
		if _, done := ledger[s.name]; done {
			continue
		}
		if err := applyScript(db, s); err != nil {
			return fmt.Errorf("migration %s failed: %w", s.name, err)
		}
	}
	return nil
}

// MigrateStatus reports the applied/pending state of every known script.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	scripts, err := loadScripts(db.DriverName())
	if err != nil {
		return nil, err
	}
	ledger, err := readLedger(db, scripts)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(scripts))
	for _, s := range scripts {
		st := MigrationStatus{ID: s.name, Checksum: s.digest}
		if row, ok := ledger[s.name]; ok {
			st.Applied = true
			st.AppliedAt = row.AppliedAt
			st.ExecutionMs = row.ExecutionMs
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// loadScripts reads the embedded migration set for a driver, sorted by
// filename.
func loadScripts(driver string) ([]migrationScript, error) {
	var fsys fs.FS
	var dir string
	switch driver {
	case "sqlite3":
		fsys, dir = migrations.SqliteMigrations, "sqlite"
	case "postgres":
		fsys, dir = migrations.PostgresMigrations, "postgres"
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var scripts []migrationScript
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		sum := sha256.Sum256(body)
		scripts = append(scripts, migrationScript{
			name:   e.Name(),
			digest: hex.EncodeToString(sum[:]),
			body:   string(body),
		})
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].name < scripts[j].name })
	return scripts, nil
}

// readLedger ensures the bookkeeping table exists, loads it, and verifies
// every recorded digest against the embedded scripts.
func readLedger(db *sqlx.DB, scripts []migrationScript) (map[string]ledgerRow, error) {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_id TEXT PRIMARY KEY,
			checksum     TEXT NOT NULL,
			applied_at   TEXT NOT NULL,
			execution_ms INTEGER NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("failed to create migration ledger: %w", err)
	}

	var rows []ledgerRow
	if err := db.Select(&rows, "SELECT migration_id, checksum, applied_at, execution_ms FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}

	known := make(map[string]string, len(scripts))
	for _, s := range scripts {
		known[s.name] = s.digest
	}

	ledger := make(map[string]ledgerRow, len(rows))
	for _, row := range rows {
		digest, ok := known[row.ID]
		if !ok {
			return nil, fmt.Errorf("migration %s recorded in ledger but no script exists", row.ID)
		}
		if digest != row.Checksum {
			return nil, fmt.Errorf("migration %s changed after being applied: ledger has %.12s, script has %.12s",
				row.ID, row.Checksum, digest)
		}
		ledger[row.ID] = row
	}
	return ledger, nil
}

// applyScript runs one migration and its ledger insert in a single
// transaction; a script that ran but was never recorded would run again.
func applyScript(db *sqlx.DB, s migrationScript) error {
	start := time.Now()

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// lib/pq rejects multiple statements per Exec, so split on semicolons.
	for _, stmt := range strings.Split(s.body, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	_, err = tx.Exec(db.Rebind(
		"INSERT INTO schema_migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		s.name, s.digest, time.Now().UTC().Format(time.RFC3339), time.Since(start).Milliseconds())
	if err != nil {
		return err
	}
	return tx.Commit()
}
