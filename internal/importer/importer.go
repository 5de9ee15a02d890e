// Package importer runs the full import cycle for one uploaded document:
// extract text, parse fields, reconcile against the tables, persist. Each
// user action is one "load → repair → mutate → repair → persist" unit;
// failed extractions never touch persisted state.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Malta2023/solucao-gestao/internal/pdftext"
	"github.com/Malta2023/solucao-gestao/internal/quote"
	"github.com/Malta2023/solucao-gestao/internal/records"
	"github.com/Malta2023/solucao-gestao/internal/storage"
)

// TableStore abstracts the persistence collaborator.
type TableStore interface {
	LoadClients() ([]records.Client, error)
	LoadJobs() ([]records.Job, error)
	ReplaceTables([]records.Client, []records.Job) error
	ReplaceJobs([]records.Job) error
	RecordImport(storage.ImportRecord) error
}

// Importer coordinates text extraction, parsing, and reconciliation.
type Importer struct {
	store     TableStore
	extractor pdftext.Extractor
	parser    *quote.Parser
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an Importer with the given dependencies.
func New(store TableStore, extractor pdftext.Extractor, parser *quote.Parser) *Importer {
	return &Importer{
		store:     store,
		extractor: extractor,
		parser:    parser,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// Result reports what one successful import produced.
type Result struct {
	ImportID string
	ClientID int64
	JobID    int64
	Quote    *quote.ExtractedQuote
}

// ImportPDF runs one document through the whole cycle. On failure the
// tables are left untouched and only the audit trail records the attempt.
// Callers distinguish "could not read file" (pdftext.ErrUnreadable) from
// "read the file but didn't recognize it" (quote.ErrNotRecognized).
func (imp *Importer) ImportPDF(data []byte, filename string) (*Result, error) {
	importID := uuid.New().String()
	now := imp.now()

	text, err := imp.extractor.Extract(data)
	if err != nil {
		imp.audit(storage.ImportRecord{
			ID: importID, Filename: filename, Status: storage.ImportStatusUnreadable,
			Error: err.Error(), CreatedAt: now,
		})
		return nil, err
	}

	q, err := imp.parser.Parse(text)
	if err != nil {
		imp.logger.Info("document not recognized", "filename", filename, "error", err)
		imp.audit(storage.ImportRecord{
			ID: importID, Filename: filename, Status: storage.ImportStatusRejected,
			Error: err.Error(), CreatedAt: now,
		})
		return nil, err
	}

	clients, err := imp.store.LoadClients()
	if err != nil {
		return nil, fmt.Errorf("loading clients: %w", err)
	}
	jobs, err := imp.store.LoadJobs()
	if err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}

	res := records.Import(clients, jobs, q, now)

	// Both tables commit together; a half-imported document must not
	// leave a client behind without its job.
	if err := imp.store.ReplaceTables(res.Clients, res.Jobs); err != nil {
		return nil, fmt.Errorf("saving tables: %w", err)
	}

	imp.audit(storage.ImportRecord{
		ID: importID, Filename: filename, Status: storage.ImportStatusOK,
		ClientID: res.ClientID, JobID: res.JobID, CreatedAt: now,
	})

	imp.logger.Info("quote imported",
		"filename", filename,
		"client", q.ClientName,
		"client_id", res.ClientID,
		"job_id", res.JobID,
		"total", q.Total.String(),
		"total_confidence", string(q.TotalConfidence),
	)

	return &Result{
		ImportID: importID,
		ClientID: res.ClientID,
		JobID:    res.JobID,
		Quote:    q,
	}, nil
}

// RepairAll runs the repair pass over the persisted job table and writes
// the result back. Returns the number of rows after repair.
func (imp *Importer) RepairAll() (int, error) {
	jobs, err := imp.store.LoadJobs()
	if err != nil {
		return 0, fmt.Errorf("loading jobs: %w", err)
	}
	repaired := records.Repair(jobs)
	if err := imp.store.ReplaceJobs(repaired); err != nil {
		return 0, fmt.Errorf("saving jobs: %w", err)
	}
	if dropped := len(jobs) - len(repaired); dropped > 0 {
		imp.logger.Info("repair pass removed rows", "dropped", dropped, "remaining", len(repaired))
	}
	return len(repaired), nil
}

// audit appends one row to the import trail. Audit failures are logged,
// never surfaced; losing an audit row must not fail an otherwise good
// import.
func (imp *Importer) audit(rec storage.ImportRecord) {
	if err := imp.store.RecordImport(rec); err != nil {
		imp.logger.Warn("recording import audit row", "import_id", rec.ID, "error", err)
	}
}

// IsUnreadable reports whether err means the file itself was unusable.
func IsUnreadable(err error) bool {
	return errors.Is(err, pdftext.ErrUnreadable)
}

// IsNotRecognized reports whether err means the file was readable but its
// content didn't match a known document layout.
func IsNotRecognized(err error) bool {
	return errors.Is(err, quote.ErrNotRecognized)
}
