// Package storage persists the client and job tables in SQLite. It is
// the persistence collaborator for the reconciler: it hands back plain
// records and makes no attempt to validate them; repair is the
// reconciler's responsibility.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/Malta2023/solucao-gestao/internal/records"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dateLayout = "2006-01-02"

// Store wraps a SQLite database with methods for clients, jobs, and the
// import audit trail.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "gestao.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in
// ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Clients ---

// LoadClients returns all clients ordered by id.
func (s *Store) LoadClients() ([]records.Client, error) {
	rows, err := s.db.Query(`
		SELECT id, name, phone, email, address, registered_at
		FROM clients ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []records.Client
	for rows.Next() {
		var c records.Client
		var registeredAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &registeredAt); err != nil {
			return nil, err
		}
		c.RegisteredAt = parseDate(registeredAt)
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// ReplaceClients rewrites the whole clients table in one transaction.
func (s *Store) ReplaceClients(clients []records.Client) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceClientsTx(tx, clients); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceClientsTx(tx *sql.Tx, clients []records.Client) error {
	if _, err := tx.Exec("DELETE FROM clients"); err != nil {
		return fmt.Errorf("clearing clients: %w", err)
	}
	for _, c := range clients {
		if _, err := tx.Exec(`
			INSERT INTO clients (id, name, phone, email, address, registered_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Phone, c.Email, c.Address, formatDate(c.RegisteredAt),
		); err != nil {
			return fmt.Errorf("inserting client %d: %w", c.ID, err)
		}
	}
	return nil
}

// --- Jobs ---

// LoadJobs returns all job rows in storage order (rowid). Ids that fail
// numeric coercion come back as 0 so the repair pass treats them as
// missing; everything else is passed through as stored.
func (s *Store) LoadJobs() ([]records.Job, error) {
	rows, err := s.db.Query(`
		SELECT id, client_name, status, visit_date, quote_date, completion_date,
		       labor_cost, material_cost, total, down_payment, paid_in_full, description
		FROM jobs ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []records.Job
	for rows.Next() {
		var j records.Job
		var rawID, status, visit, quoteD, completion string
		var labor, material, total, down string
		var paid int
		if err := rows.Scan(&rawID, &j.ClientName, &status, &visit, &quoteD, &completion,
			&labor, &material, &total, &down, &paid, &j.Description); err != nil {
			return nil, err
		}
		j.ID = coerceID(rawID)
		j.Status = records.Status(status)
		j.VisitDate = parseDate(visit)
		j.QuoteDate = parseDate(quoteD)
		j.CompletionDate = parseDate(completion)
		j.LaborCost = parseAmount(labor)
		j.MaterialCost = parseAmount(material)
		j.Total = parseAmount(total)
		j.DownPayment = parseAmount(down)
		j.PaidInFull = paid != 0
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ReplaceJobs rewrites the whole jobs table in one transaction,
// preserving slice order as storage order.
func (s *Store) ReplaceJobs(jobs []records.Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceJobsTx(tx, jobs); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceTables rewrites clients and jobs in a single transaction, so an
// import either persists both its client and its job or neither.
func (s *Store) ReplaceTables(clients []records.Client, jobs []records.Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceClientsTx(tx, clients); err != nil {
		return err
	}
	if err := replaceJobsTx(tx, jobs); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceJobsTx(tx *sql.Tx, jobs []records.Job) error {
	if _, err := tx.Exec("DELETE FROM jobs"); err != nil {
		return fmt.Errorf("clearing jobs: %w", err)
	}
	for _, j := range jobs {
		paid := 0
		if j.PaidInFull {
			paid = 1
		}
		if _, err := tx.Exec(`
			INSERT INTO jobs (id, client_name, status, visit_date, quote_date, completion_date,
			                  labor_cost, material_cost, total, down_payment, paid_in_full, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			strconv.FormatInt(j.ID, 10), j.ClientName, string(j.Status),
			formatDate(j.VisitDate), formatDate(j.QuoteDate), formatDate(j.CompletionDate),
			j.LaborCost.String(), j.MaterialCost.String(), j.Total.String(), j.DownPayment.String(),
			paid, j.Description,
		); err != nil {
			return fmt.Errorf("inserting job %d: %w", j.ID, err)
		}
	}
	return nil
}

// --- Imports ---

// RecordImport appends one audit row for an import attempt.
func (s *Store) RecordImport(rec ImportRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO imports (id, filename, status, client_id, job_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.Status, rec.ClientID, rec.JobID, rec.Error,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListImports returns the most recent import attempts, newest first.
func (s *Store) ListImports(limit int) ([]ImportRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, status, client_id, job_id, error, created_at
		FROM imports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Status, &rec.ClientID, &rec.JobID, &rec.Error, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		rec.CreatedAt = t
		results = append(results, rec)
	}
	return results, rows.Err()
}

// --- column coercion helpers ---

func coerceID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
