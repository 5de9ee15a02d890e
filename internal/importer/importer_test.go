package importer

import (
	"fmt"
	"testing"
	"time"

	"github.com/Malta2023/solucao-gestao/internal/pdftext"
	"github.com/Malta2023/solucao-gestao/internal/quote"
	"github.com/Malta2023/solucao-gestao/internal/records"
	"github.com/Malta2023/solucao-gestao/internal/storage"
)

// fakeExtractor returns canned text instead of decoding a real PDF, so
// these tests exercise the pipeline without document fixtures.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(data []byte) (string, error) {
	return f.text, f.err
}

func newTestImporter(t *testing.T, ex pdftext.Extractor) (*Importer, *storage.Store) {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	imp := New(s, ex, quote.NewParser())
	imp.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return imp, s
}

const quoteText = `ORÇAMENTO
Cliente: Maria Souza
Criado em: 10/03/25
Descrição: Pintura externa
Total: R$ 1.200,00`

func TestImportPDFSuccess(t *testing.T) {
	imp, s := newTestImporter(t, fakeExtractor{text: quoteText})

	res, err := imp.ImportPDF([]byte("%PDF-"), "orcamento.pdf")
	if err != nil {
		t.Fatalf("ImportPDF: %v", err)
	}
	if res.ClientID != 1 || res.JobID != 1 {
		t.Errorf("ids = client %d job %d, want 1/1", res.ClientID, res.JobID)
	}

	clients, err := s.LoadClients()
	if err != nil {
		t.Fatalf("LoadClients: %v", err)
	}
	if len(clients) != 1 || clients[0].Name != "Maria Souza" {
		t.Errorf("clients = %+v", clients)
	}

	jobs, err := s.LoadJobs()
	if err != nil {
		t.Fatalf("LoadJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != records.StatusQuoteSent {
		t.Errorf("jobs = %+v", jobs)
	}

	imports, err := s.ListImports(10)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(imports) != 1 || imports[0].Status != storage.ImportStatusOK || imports[0].JobID != 1 {
		t.Errorf("imports = %+v", imports)
	}
}

func TestImportPDFRejectedLeavesTablesUntouched(t *testing.T) {
	imp, s := newTestImporter(t, fakeExtractor{text: "some unrelated invoice"})

	_, err := imp.ImportPDF([]byte("%PDF-"), "junk.pdf")
	if !IsNotRecognized(err) {
		t.Fatalf("err = %v, want not-recognized", err)
	}
	if IsUnreadable(err) {
		t.Fatal("rejection must not be classified as unreadable")
	}

	clients, _ := s.LoadClients()
	jobs, _ := s.LoadJobs()
	if len(clients) != 0 || len(jobs) != 0 {
		t.Errorf("failed extraction wrote partial state: clients %d jobs %d", len(clients), len(jobs))
	}

	imports, _ := s.ListImports(10)
	if len(imports) != 1 || imports[0].Status != storage.ImportStatusRejected {
		t.Errorf("imports = %+v", imports)
	}
}

func TestImportPDFUnreadable(t *testing.T) {
	ex := fakeExtractor{err: fmt.Errorf("%w: bad xref", pdftext.ErrUnreadable)}
	imp, s := newTestImporter(t, ex)

	_, err := imp.ImportPDF([]byte("not a pdf"), "broken.pdf")
	if !IsUnreadable(err) {
		t.Fatalf("err = %v, want unreadable", err)
	}

	imports, _ := s.ListImports(10)
	if len(imports) != 1 || imports[0].Status != storage.ImportStatusUnreadable {
		t.Errorf("imports = %+v", imports)
	}
}

func TestImportPDFTwiceCollapses(t *testing.T) {
	imp, s := newTestImporter(t, fakeExtractor{text: quoteText})

	if _, err := imp.ImportPDF(nil, "orcamento.pdf"); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := imp.ImportPDF(nil, "orcamento.pdf")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}

	jobs, _ := s.LoadJobs()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %+v, want double import collapsed by signature", jobs)
	}
	if jobs[0].ID != res.JobID {
		t.Errorf("surviving id %d, reported %d", jobs[0].ID, res.JobID)
	}
}

// auditFailStore simulates a store whose audit table cannot be written.
type auditFailStore struct {
	*storage.Store
}

func (auditFailStore) RecordImport(storage.ImportRecord) error {
	return fmt.Errorf("disk full")
}

func TestImportPDFSucceedsWhenAuditWriteFails(t *testing.T) {
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	imp := New(auditFailStore{s}, fakeExtractor{text: quoteText}, quote.NewParser())

	res, err := imp.ImportPDF([]byte("%PDF-"), "orcamento.pdf")
	if err != nil {
		t.Fatalf("ImportPDF must not fail on an audit error: %v", err)
	}
	if res.ClientID != 1 || res.JobID != 1 {
		t.Errorf("ids = client %d job %d, want 1/1", res.ClientID, res.JobID)
	}

	jobs, _ := s.LoadJobs()
	if len(jobs) != 1 {
		t.Errorf("jobs = %+v, want the import persisted", jobs)
	}
}

func TestRepairAll(t *testing.T) {
	imp, s := newTestImporter(t, fakeExtractor{text: quoteText})

	seed := []records.Job{
		{ID: 0, ClientName: "Ana"},
		{ID: 0, ClientName: ""},
		{ID: 2, ClientName: "Bia"},
		{ID: 2, ClientName: "Bia", Description: "editado"},
	}
	if err := s.ReplaceJobs(seed); err != nil {
		t.Fatalf("ReplaceJobs: %v", err)
	}

	n, err := imp.RepairAll()
	if err != nil {
		t.Fatalf("RepairAll: %v", err)
	}
	if n != 2 {
		t.Errorf("rows after repair = %d, want 2", n)
	}

	jobs, _ := s.LoadJobs()
	for _, j := range jobs {
		if j.ID <= 0 || j.ClientName == "" {
			t.Errorf("invariant violated after repair: %+v", j)
		}
	}
}
