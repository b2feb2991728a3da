package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the catalogue at dbPath. An empty path
// opens an in-memory database.
func New(dbPath string) (*DB, error) {
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_symbol_id START 1;`,

		`CREATE TABLE IF NOT EXISTS packages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			homepage TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL,
			pages INTEGER NOT NULL,
			processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_processed ON packages (processed_at)`,

		// Symbols are replaced by delete-then-insert in one transaction, so
		// (package_id, canonical_reference) carries no unique key.
		`CREATE TABLE IF NOT EXISTS symbols (
			id INTEGER PRIMARY KEY,
			package_id TEXT NOT NULL,
			canonical_reference TEXT NOT NULL,
			route TEXT NOT NULL,
			title TEXT NOT NULL,
			kind TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_package ON symbols (package_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Package operations ---

type Package struct {
	ID          string
	Name        string
	Version     string
	Homepage    string
	ContentHash string
	Pages       int
	ProcessedAt time.Time
}

type Symbol struct {
	CanonicalReference string
	Route              string
	Title              string
	Kind               string
}

// RecordPackage upserts pkg and replaces its symbol index. A zero
// ProcessedAt is recorded as now.
func (db *DB) RecordPackage(ctx context.Context, pkg Package, symbols []Symbol) error {
	if pkg.ProcessedAt.IsZero() {
		pkg.ProcessedAt = time.Now()
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO packages (id, name, version, homepage, content_hash, pages, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			version = EXCLUDED.version,
			homepage = EXCLUDED.homepage,
			content_hash = EXCLUDED.content_hash,
			pages = EXCLUDED.pages,
			processed_at = EXCLUDED.processed_at`,
		pkg.ID, pkg.Name, pkg.Version, pkg.Homepage, pkg.ContentHash, pkg.Pages, pkg.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting package %s: %w", pkg.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE package_id = ?`, pkg.ID); err != nil {
		return fmt.Errorf("clearing symbols for %s: %w", pkg.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbols (id, package_id, canonical_reference, route, title, kind)
		 VALUES (nextval('seq_symbol_id'), ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing symbol insert: %w", err)
	}
	defer stmt.Close()
	for _, s := range symbols {
		if _, err := stmt.ExecContext(ctx, pkg.ID, s.CanonicalReference, s.Route, s.Title, s.Kind); err != nil {
			return fmt.Errorf("inserting symbol %s: %w", s.CanonicalReference, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing package %s: %w", pkg.ID, err)
	}
	return nil
}

const packageColumns = `id, name, version, homepage, content_hash, pages, processed_at`

func scanPackage(row interface{ Scan(...any) error }) (*Package, error) {
	var p Package
	if err := row.Scan(&p.ID, &p.Name, &p.Version, &p.Homepage, &p.ContentHash, &p.Pages, &p.ProcessedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPackage returns the catalogue entry for id, or nil if there is none.
func (db *DB) GetPackage(ctx context.Context, id string) (*Package, error) {
	p, err := scanPackage(db.conn.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting package %s: %w", id, err)
	}
	return p, nil
}

// ListPackages returns processed packages, most recent first. A limit of
// zero or less returns all of them.
func (db *DB) ListPackages(ctx context.Context, limit int) ([]Package, error) {
	query := `SELECT ` + packageColumns + ` FROM packages ORDER BY processed_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, *p)
	}
	return pkgs, rows.Err()
}

// DeletePackage removes a package and its symbols.
func (db *DB) DeletePackage(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE package_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear empties the catalogue.
func (db *DB) Clear(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM symbols`, `DELETE FROM packages`} {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clearing catalogue: %w", err)
		}
	}
	return nil
}

// --- Symbol search ---

// Match ranks: exact title, then title prefix or final-segment match, then
// substring.
const (
	RankExact = iota
	RankPrefix
	RankSubstring
)

type SymbolMatch struct {
	PackageID string
	Symbol
	Rank int
}

// SearchSymbols finds symbols whose title contains query (case-insensitive),
// optionally restricted to packageIDs.
func (db *DB) SearchSymbols(ctx context.Context, query string, packageIDs []string, limit int) ([]SymbolMatch, error) {
	q := strings.ToLower(query)
	args := []any{q, q, "." + q, q}

	var pkgFilter string
	if len(packageIDs) > 0 {
		placeholders := make([]string, len(packageIDs))
		for i, id := range packageIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		pkgFilter = fmt.Sprintf(` AND package_id IN (%s)`, strings.Join(placeholders, ","))
	}
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT package_id, canonical_reference, route, title, kind, rank
		FROM (
			SELECT *,
				CASE
					WHEN lower(title) = ? THEN 0
					WHEN starts_with(lower(title), ?) OR ends_with(lower(title), ?) THEN 1
					ELSE 2
				END AS rank
			FROM symbols
		)
		WHERE contains(lower(title), ?)%s
		ORDER BY rank, length(title), title, package_id
		LIMIT ?`, pkgFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolMatch
	for rows.Next() {
		var m SymbolMatch
		if err := rows.Scan(&m.PackageID, &m.CanonicalReference, &m.Route, &m.Title, &m.Kind, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountSymbols returns the number of indexed symbols for a package.
func (db *DB) CountSymbols(ctx context.Context, packageID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols WHERE package_id = ?`, packageID).Scan(&count)
	return count, err
}
