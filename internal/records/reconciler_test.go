package records

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malta2023/solucao-gestao/internal/quote"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"", StatusScheduling},
		{"🔵 Agendamento", StatusScheduling},
		{"orçamento enviado", StatusQuoteSent},
		{"Execução", StatusInProgress},
		{"concluido", StatusCompleted},
		{"🔴 Cancelado", StatusCancelled},
		{"whatever else", StatusScheduling},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpsertClientReusesNormalizedName(t *testing.T) {
	now := day(2025, time.March, 10)
	clients := []Client{{ID: 1, Name: "João Silva", RegisteredAt: now}}

	out, id := UpsertClient(clients, "  joão   silva ", now)
	if id != 1 {
		t.Errorf("id = %d, want 1 (existing client reused)", id)
	}
	if len(out) != 1 {
		t.Errorf("len(clients) = %d, want 1", len(out))
	}
}

func TestUpsertClientInsertsNew(t *testing.T) {
	now := day(2025, time.March, 10)

	out, id := UpsertClient(nil, "Maria Souza", now)
	if id != 1 {
		t.Errorf("first client id = %d, want 1", id)
	}
	if out[0].Name != "Maria Souza" || out[0].Phone != "" || !out[0].RegisteredAt.Equal(now) {
		t.Errorf("unexpected client record: %+v", out[0])
	}

	out, id = UpsertClient(out, "Carlos", now)
	if id != 2 {
		t.Errorf("second client id = %d, want 2", id)
	}
}

func TestRepairDropsBlankClientsAndAssignsIDs(t *testing.T) {
	jobs := []Job{
		{ID: 3, ClientName: "Ana", Status: StatusQuoteSent, QuoteDate: day(2025, 1, 1), Total: decimal.Zero},
		{ID: 0, ClientName: "   ", QuoteDate: day(2025, 1, 2)}, // blank client, dropped
		{ID: 0, ClientName: "Bruno", QuoteDate: day(2025, 1, 3), Total: decimal.Zero},
		{ID: 0, ClientName: "Carla", QuoteDate: day(2025, 1, 4), Total: decimal.Zero},
	}

	out := Repair(jobs)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].ID != 3 || out[1].ID != 4 || out[2].ID != 5 {
		t.Errorf("ids = [%d %d %d], want [3 4 5]", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestRepairDedupByIDKeepsLast(t *testing.T) {
	jobs := []Job{
		{ID: 2, ClientName: "Ana", Description: "primeira versão", QuoteDate: day(2025, 1, 1), Total: decimal.Zero},
		{ID: 2, ClientName: "Ana", Description: "versão final", QuoteDate: day(2025, 1, 5), Total: decimal.Zero},
	}

	out := Repair(jobs)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].Description != "versão final" {
		t.Errorf("kept %q, want the last occurrence", out[0].Description)
	}
}

func TestRepairDedupBySignature(t *testing.T) {
	total := d(t, "1200.00")
	jobs := []Job{
		{ID: 1, ClientName: "Maria Souza", Description: "Pintura externa", QuoteDate: day(2025, 3, 10), Total: total},
		{ID: 2, ClientName: "maria souza", Description: "Pintura  externa", QuoteDate: day(2025, 3, 12), Total: total},
	}

	out := Repair(jobs)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1 after signature dedup", len(out))
	}
	if out[0].ID != 2 {
		t.Errorf("kept id %d, want 2 (latest quote date)", out[0].ID)
	}
}

func TestRepairKeepsRowsWithDistinctTotals(t *testing.T) {
	jobs := []Job{
		{ID: 1, ClientName: "Maria Souza", Description: "Pintura externa", QuoteDate: day(2025, 3, 10), Total: d(t, "1200.00")},
		{ID: 2, ClientName: "Maria Souza", Description: "Pintura externa", QuoteDate: day(2025, 3, 12), Total: d(t, "1500.00")},
	}

	out := Repair(jobs)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2 (different totals are different jobs)", len(out))
	}
}

func TestRepairDedupBySignatureEqualDatesLastWins(t *testing.T) {
	total := d(t, "500.00")
	jobs := []Job{
		{ID: 1, ClientName: "Ana", Description: "Telhado", QuoteDate: day(2025, 6, 1), Total: total},
		{ID: 2, ClientName: "Ana", Description: "Telhado", QuoteDate: day(2025, 6, 1), Total: total},
	}

	out := Repair(jobs)
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("got %+v, want only id 2 (last in table order)", out)
	}
}

func TestRepairIdempotent(t *testing.T) {
	jobs := []Job{
		{ID: 0, ClientName: "Ana", QuoteDate: day(2025, 1, 1), Total: d(t, "100.00")},
		{ID: 7, ClientName: "Bruno", QuoteDate: day(2025, 1, 2), Total: d(t, "200.00")},
		{ID: 7, ClientName: "Bruno", Description: "editado", QuoteDate: day(2025, 1, 3), Total: d(t, "250.00")},
		{ID: 0, ClientName: "", QuoteDate: day(2025, 1, 4)},
	}

	once := Repair(jobs)
	twice := Repair(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("repair is not a fixed point:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestImportEndToEnd(t *testing.T) {
	now := day(2025, time.March, 15)
	q := &quote.ExtractedQuote{
		ClientName:  "Maria Souza",
		IssueDate:   day(2025, time.March, 10),
		Description: "Pintura externa",
		Total:       d(t, "1200.00"),
		Kind:        quote.KindQuote,
	}

	res := Import(nil, nil, q, now)

	if res.ClientID != 1 {
		t.Errorf("ClientID = %d, want 1", res.ClientID)
	}
	if len(res.Clients) != 1 || res.Clients[0].Name != "Maria Souza" {
		t.Fatalf("clients = %+v", res.Clients)
	}
	if res.JobID != 1 || len(res.Jobs) != 1 {
		t.Fatalf("JobID = %d, jobs = %+v", res.JobID, res.Jobs)
	}
	j := res.Jobs[0]
	if j.Status != StatusQuoteSent {
		t.Errorf("Status = %q, want %q", j.Status, StatusQuoteSent)
	}
	if !j.Total.Equal(d(t, "1200.00")) || !j.LaborCost.IsZero() || !j.MaterialCost.IsZero() {
		t.Errorf("costs = labor %s material %s total %s", j.LaborCost, j.MaterialCost, j.Total)
	}
	if !j.QuoteDate.Equal(q.IssueDate) {
		t.Errorf("QuoteDate = %v, want %v", j.QuoteDate, q.IssueDate)
	}
	if j.PaidInFull || !j.DownPayment.IsZero() {
		t.Errorf("payment defaults wrong: paid=%v down=%s", j.PaidInFull, j.DownPayment)
	}
}

func TestImportReusesClientAcrossCase(t *testing.T) {
	now := day(2025, time.April, 1)
	clients := []Client{{ID: 4, Name: "João Silva", RegisteredAt: now}}

	q := &quote.ExtractedQuote{ClientName: "joão silva", Total: d(t, "300.00")}
	res := Import(clients, nil, q, now)

	if res.ClientID != 4 {
		t.Errorf("ClientID = %d, want 4", res.ClientID)
	}
	if len(res.Clients) != 1 {
		t.Errorf("duplicate client created: %+v", res.Clients)
	}
	if res.Jobs[0].ClientName != "João Silva" {
		t.Errorf("job references %q, want the stored spelling", res.Jobs[0].ClientName)
	}
}

func TestImportTwiceCollapsesBySignature(t *testing.T) {
	now := day(2025, time.May, 1)
	q := &quote.ExtractedQuote{
		ClientName:  "Ana",
		IssueDate:   day(2025, time.April, 20),
		Description: "Reforma",
		Total:       d(t, "800.00"),
	}

	first := Import(nil, nil, q, now)
	second := Import(first.Clients, first.Jobs, q, now)

	if len(second.Jobs) != 1 {
		t.Fatalf("jobs = %+v, want the double import collapsed", second.Jobs)
	}
	if second.Jobs[0].ID != second.JobID {
		t.Errorf("JobID = %d does not match surviving row id %d", second.JobID, second.Jobs[0].ID)
	}
}

func TestImportDefaultsDateToToday(t *testing.T) {
	now := day(2025, time.July, 7)
	q := &quote.ExtractedQuote{ClientName: "Bia", Total: d(t, "50.00")}

	res := Import(nil, nil, q, now)
	if !res.Jobs[0].QuoteDate.Equal(now) {
		t.Errorf("QuoteDate = %v, want %v (today fallback)", res.Jobs[0].QuoteDate, now)
	}
}

func TestSaveJobRecomputesTotal(t *testing.T) {
	jobs, saved := SaveJob(nil, Job{
		ClientName:   "Ana",
		LaborCost:    d(t, "100.00"),
		MaterialCost: d(t, "50.00"),
		Total:        d(t, "999.00"), // stale stored total must be ignored
	})
	if !saved.Total.Equal(d(t, "150.00")) {
		t.Errorf("Total = %s, want 150.00", saved.Total)
	}
	if saved.ID != 1 || len(jobs) != 1 {
		t.Errorf("id = %d, len = %d", saved.ID, len(jobs))
	}

	saved.MaterialCost = d(t, "75.00")
	jobs, saved = SaveJob(jobs, saved)
	if len(jobs) != 1 {
		t.Fatalf("edit appended instead of replacing: %+v", jobs)
	}
	if !saved.Total.Equal(d(t, "175.00")) {
		t.Errorf("Total after edit = %s, want 175.00", saved.Total)
	}
}

func TestDeleteJob(t *testing.T) {
	jobs := []Job{
		{ID: 1, ClientName: "Ana"},
		{ID: 2, ClientName: "Bia"},
	}
	out := DeleteJob(jobs, 1)
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("DeleteJob result: %+v", out)
	}
	if got := DeleteJob(out, 99); len(got) != 1 {
		t.Errorf("deleting a missing id changed the table: %+v", got)
	}
}
