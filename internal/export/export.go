// Package export produces XLSX workbooks of the client and job tables,
// the modern stand-in for the spreadsheet backend older revisions of the
// dashboard saved into directly.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Malta2023/solucao-gestao/internal/parse"
	"github.com/Malta2023/solucao-gestao/internal/records"
)

const (
	clientsSheet = "Clientes"
	jobsSheet    = "Obras"
	dateLayout   = "02/01/2006"
)

// Workbook renders both tables into a single XLSX file and returns its
// bytes.
func Workbook(clients []records.Client, jobs []records.Job, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := writeClients(f, clients); err != nil {
		return nil, err
	}
	if err := writeJobs(f, jobs); err != nil {
		return nil, err
	}

	// Drop excelize's default sheet so Clientes opens first.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if index, err := f.GetSheetIndex(clientsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}

	logger.Info("workbook exported",
		"clients", len(clients),
		"jobs", len(jobs),
		"duration", time.Since(start).String(),
	)
	return buf.Bytes(), nil
}

func writeClients(f *excelize.File, clients []records.Client) error {
	if _, err := f.NewSheet(clientsSheet); err != nil {
		return err
	}

	headers := []string{"ID", "Nome", "Telefone", "Email", "Endereço", "Cadastro"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(clientsSheet, cell, h); err != nil {
			return err
		}
	}

	for row, c := range clients {
		values := []any{c.ID, c.Name, c.Phone, c.Email, c.Address, formatDate(c.RegisteredAt)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(clientsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(clientsSheet, "B", "B", 28)
	_ = f.SetColWidth(clientsSheet, "E", "E", 36)
	return nil
}

func writeJobs(f *excelize.File, jobs []records.Job) error {
	if _, err := f.NewSheet(jobsSheet); err != nil {
		return err
	}

	headers := []string{
		"ID", "Cliente", "Status", "Data Visita", "Data Orçamento", "Data Conclusão",
		"Mão de Obra", "Materiais", "Total", "Entrada", "Pago", "Descrição",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(jobsSheet, cell, h); err != nil {
			return err
		}
	}

	for row, j := range jobs {
		paid := "Não"
		if j.PaidInFull {
			paid = "Sim"
		}
		values := []any{
			j.ID, j.ClientName, string(j.Status),
			formatDate(j.VisitDate), formatDate(j.QuoteDate), formatDate(j.CompletionDate),
			parse.FormatCurrency(j.LaborCost), parse.FormatCurrency(j.MaterialCost),
			parse.FormatCurrency(j.Total), parse.FormatCurrency(j.DownPayment),
			paid, j.Description,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(jobsSheet, cell, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(jobsSheet, "B", "B", 28)
	_ = f.SetColWidth(jobsSheet, "C", "C", 22)
	_ = f.SetColWidth(jobsSheet, "L", "L", 48)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
