package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Malta2023/solucao-gestao/internal/records"
)

func TestWorkbook(t *testing.T) {
	total, _ := decimal.NewFromString("1200.00")
	clients := []records.Client{
		{ID: 1, Name: "Maria Souza", Phone: "11 98888-7777", RegisteredAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	jobs := []records.Job{
		{ID: 1, ClientName: "Maria Souza", Status: records.StatusQuoteSent,
			QuoteDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Total:     total, Description: "Pintura externa"},
	}

	data, err := Workbook(clients, jobs, nil)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := map[string]bool{"Clientes": false, "Obras": false}
	for _, s := range sheets {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for s, seen := range want {
		if !seen {
			t.Errorf("sheet %q missing, have %v", s, sheets)
		}
	}

	name, err := f.GetCellValue("Clientes", "B2")
	if err != nil || name != "Maria Souza" {
		t.Errorf("Clientes!B2 = %q (%v), want Maria Souza", name, err)
	}

	totalCell, err := f.GetCellValue("Obras", "I2")
	if err != nil || totalCell != "R$ 1.200,00" {
		t.Errorf("Obras!I2 = %q (%v), want R$ 1.200,00", totalCell, err)
	}

	dateCell, _ := f.GetCellValue("Obras", "E2")
	if dateCell != "10/03/2025" {
		t.Errorf("Obras!E2 = %q, want 10/03/2025", dateCell)
	}
}

func TestWorkbookEmptyTables(t *testing.T) {
	data, err := Workbook(nil, nil, nil)
	if err != nil {
		t.Fatalf("Workbook on empty tables: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty workbook bytes")
	}
}
