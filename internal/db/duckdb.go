package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
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
		`CREATE SEQUENCE IF NOT EXISTS seq_package_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_export_id START 1;`,

		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			doc_count INTEGER NOT NULL,
			output_dir TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS packages (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			title TEXT NOT NULL,
			path TEXT NOT NULL,
			short_description TEXT,
			content_hash TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY,
			package_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			title TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			path TEXT NOT NULL,
			short_description TEXT,
			content_hash TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_package ON exports (package_id)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_name ON exports (name)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Run operations ---

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	DocCount   int
	OutputDir  string
}

// PackageRecord is a package and its exports as recorded for one run.
type PackageRecord struct {
	Package
	Exports []Export
}

// RecordRun replaces the indexed packages with those of run. The run gets a
// fresh id when it has none.
func (db *DB) RecordRun(run *Run, packages []PackageRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM exports`, `DELETE FROM packages`} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, doc_count, output_dir) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.DocCount, run.OutputDir,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, p := range packages {
		var pkgID int
		if err := tx.QueryRow(
			`INSERT INTO packages (id, run_id, name, title, path, short_description, content_hash)
			 VALUES (nextval('seq_package_id'), ?, ?, ?, ?, ?, ?) RETURNING id`,
			run.ID, p.Name, p.Title, p.Path, p.ShortDescription, p.ContentHash,
		).Scan(&pkgID); err != nil {
			return fmt.Errorf("inserting package %s: %w", p.Name, err)
		}

		for _, e := range p.Exports {
			if _, err := tx.Exec(
				`INSERT INTO exports (id, package_id, name, title, doc_type, path, short_description, content_hash)
				 VALUES (nextval('seq_export_id'), ?, ?, ?, ?, ?, ?, ?)`,
				pkgID, e.Name, e.Title, e.DocType, e.Path, e.ShortDescription, e.ContentHash,
			); err != nil {
				return fmt.Errorf("inserting export %s/%s: %w", p.Name, e.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run, or nil when nothing was indexed yet.
func (db *DB) LastRun() (*Run, error) {
	var r Run
	err := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, doc_count, output_dir FROM runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.DocCount, &r.OutputDir)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// --- Package operations ---

type Package struct {
	ID               int
	Name             string
	Title            string
	Path             string
	ShortDescription string
	ContentHash      string
	ExportCount      int
}

func (db *DB) ListPackages() ([]Package, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.name, p.title, p.path, coalesce(p.short_description, ''), coalesce(p.content_hash, ''),
		        (SELECT COUNT(*) FROM exports e WHERE e.package_id = p.id)
		 FROM packages p ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Title, &p.Path, &p.ShortDescription, &p.ContentHash, &p.ExportCount); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

// --- Export operations ---

type Export struct {
	ID               int
	Package          string
	Name             string
	Title            string
	DocType          string
	Path             string
	ShortDescription string
	ContentHash      string
}

const exportColumns = `e.id, p.name, e.name, e.title, e.doc_type, e.path,
	coalesce(e.short_description, ''), coalesce(e.content_hash, '')`

func scanExport(row interface{ Scan(...any) error }) (Export, error) {
	var e Export
	err := row.Scan(&e.ID, &e.Package, &e.Name, &e.Title, &e.DocType, &e.Path, &e.ShortDescription, &e.ContentHash)
	return e, err
}

// GetExport looks an export up by package and name, ignoring case. It
// returns nil when there is no such export.
func (db *DB) GetExport(pkg, name string) (*Export, error) {
	e, err := scanExport(db.conn.QueryRow(
		`SELECT `+exportColumns+`
		 FROM exports e JOIN packages p ON p.id = e.package_id
		 WHERE lower(p.name) = ? AND lower(e.name) = ?`,
		strings.ToLower(pkg), strings.ToLower(name),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Search matches query case-insensitively against export names and short
// descriptions. Exact name matches come first, then name matches, then
// description matches.
func (db *DB) Search(query string, limit int) ([]Export, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(
		`SELECT `+exportColumns+`
		 FROM exports e JOIN packages p ON p.id = e.package_id
		 WHERE contains(lower(e.name), ?) OR contains(lower(coalesce(e.short_description, '')), ?)
		 ORDER BY (lower(e.name) = ?) DESC, contains(lower(e.name), ?) DESC, length(e.name), e.name, p.name
		 LIMIT ?`,
		q, q, q, q, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching exports: %w", err)
	}
	defer rows.Close()

	var results []Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
