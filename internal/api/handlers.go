// Package api exposes the importer and the tables over a local HTTP API
// and an MCP server. Both surfaces are thin: all policy lives in the
// importer and reconciler.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Malta2023/solucao-gestao/internal/export"
	"github.com/Malta2023/solucao-gestao/internal/importer"
	"github.com/Malta2023/solucao-gestao/internal/records"
	"github.com/Malta2023/solucao-gestao/internal/storage"
)

const maxImportBodySize = 25 << 20 // 25MB, generous for scanned quotes

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Store    *storage.Store
	Importer *importer.Importer
	Token    string
}

// NewAppHandler builds the chi router for the local API.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/import", handleImport(deps))
		r.Get("/clients", handleListClients(deps))
		r.Get("/jobs", handleListJobs(deps))
		r.Post("/jobs", handleSaveJob(deps))
		r.Delete("/jobs/{id}", handleDeleteJob(deps))
		r.Post("/repair", handleRepair(deps))
		r.Get("/imports", handleListImports(deps))
		r.Get("/export.xlsx", handleExport(deps))
	})

	return r
}

type clientJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	RegisteredAt string `json:"registered_at,omitempty"`
}

type jobJSON struct {
	ID             int64  `json:"id"`
	ClientName     string `json:"client_name"`
	Status         string `json:"status"`
	VisitDate      string `json:"visit_date,omitempty"`
	QuoteDate      string `json:"quote_date,omitempty"`
	CompletionDate string `json:"completion_date,omitempty"`
	LaborCost      string `json:"labor_cost"`
	MaterialCost   string `json:"material_cost"`
	Total          string `json:"total"`
	DownPayment    string `json:"down_payment"`
	PaidInFull     bool   `json:"paid_in_full"`
	Description    string `json:"description,omitempty"`
}

const jsonDateLayout = "2006-01-02"

func clientToJSON(c records.Client) clientJSON {
	out := clientJSON{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
	if !c.RegisteredAt.IsZero() {
		out.RegisteredAt = c.RegisteredAt.Format(jsonDateLayout)
	}
	return out
}

func jobToJSON(j records.Job) jobJSON {
	formatDate := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(jsonDateLayout)
	}
	return jobJSON{
		ID:             j.ID,
		ClientName:     j.ClientName,
		Status:         string(j.Status),
		VisitDate:      formatDate(j.VisitDate),
		QuoteDate:      formatDate(j.QuoteDate),
		CompletionDate: formatDate(j.CompletionDate),
		LaborCost:      j.LaborCost.StringFixed(2),
		MaterialCost:   j.MaterialCost.StringFixed(2),
		Total:          j.Total.StringFixed(2),
		DownPayment:    j.DownPayment.StringFixed(2),
		PaidInFull:     j.PaidInFull,
		Description:    j.Description,
	}
}

func jobFromJSON(in jobJSON) (records.Job, error) {
	parseDate := func(s string) (time.Time, error) {
		if s == "" {
			return time.Time{}, nil
		}
		return time.Parse(jsonDateLayout, s)
	}
	parseAmount := func(s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}

	j := records.Job{
		ID:          in.ID,
		ClientName:  in.ClientName,
		Status:      records.NormalizeStatus(in.Status),
		PaidInFull:  in.PaidInFull,
		Description: in.Description,
	}
	var err error
	if j.VisitDate, err = parseDate(in.VisitDate); err != nil {
		return j, fmt.Errorf("visit_date: %w", err)
	}
	if j.QuoteDate, err = parseDate(in.QuoteDate); err != nil {
		return j, fmt.Errorf("quote_date: %w", err)
	}
	if j.CompletionDate, err = parseDate(in.CompletionDate); err != nil {
		return j, fmt.Errorf("completion_date: %w", err)
	}
	if j.LaborCost, err = parseAmount(in.LaborCost); err != nil {
		return j, fmt.Errorf("labor_cost: %w", err)
	}
	if j.MaterialCost, err = parseAmount(in.MaterialCost); err != nil {
		return j, fmt.Errorf("material_cost: %w", err)
	}
	if j.DownPayment, err = parseAmount(in.DownPayment); err != nil {
		return j, fmt.Errorf("down_payment: %w", err)
	}
	return j, nil
}

func handleImport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading body: %v", err)
			return
		}
		if len(data) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "empty body")
			return
		}

		filename := r.URL.Query().Get("filename")

		res, err := deps.Importer.ImportPDF(data, filename)
		switch {
		case importer.IsUnreadable(err):
			httpError(w, http.StatusBadRequest, "unreadable_file", "could not read file")
			return
		case importer.IsNotRecognized(err):
			httpError(w, http.StatusUnprocessableEntity, "not_recognized", "document not recognized")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "internal_error", "import failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"import_id":        res.ImportID,
			"client_id":        res.ClientID,
			"job_id":           res.JobID,
			"client_name":      res.Quote.ClientName,
			"total":            res.Quote.Total.StringFixed(2),
			"total_confidence": string(res.Quote.TotalConfidence),
			"kind":             string(res.Quote.Kind),
		})
	}
}

func handleListClients(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := deps.Store.LoadClients()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading clients: %v", err)
			return
		}
		out := make([]clientJSON, 0, len(clients))
		for _, c := range clients {
			out = append(out, clientToJSON(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleListJobs(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := deps.Store.LoadJobs()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading jobs: %v", err)
			return
		}
		// Listing always serves repaired rows, but only a mutation
		// persists the repair.
		jobs = records.Repair(jobs)

		if client := r.URL.Query().Get("client"); client != "" {
			filtered := jobs[:0]
			for _, j := range jobs {
				if records.SameName(j.ClientName, client) {
					filtered = append(filtered, j)
				}
			}
			jobs = filtered
		}

		out := make([]jobJSON, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, jobToJSON(j))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleSaveJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in jobJSON
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if records.NormalizeName(in.ClientName) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "client_name is required")
			return
		}

		j, err := jobFromJSON(in)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		jobs, err := deps.Store.LoadJobs()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading jobs: %v", err)
			return
		}
		jobs = records.Repair(jobs)
		jobs, saved := records.SaveJob(jobs, j)
		jobs = records.Repair(jobs)
		if err := deps.Store.ReplaceJobs(jobs); err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "saving jobs: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, jobToJSON(saved))
	}
}

func handleDeleteJob(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid job id")
			return
		}

		jobs, err := deps.Store.LoadJobs()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading jobs: %v", err)
			return
		}
		jobs = records.Repair(records.DeleteJob(records.Repair(jobs), id))
		if err := deps.Store.ReplaceJobs(jobs); err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "saving jobs: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	}
}

func handleRepair(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Importer.RepairAll()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "repair failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"jobs": n})
	}
}

func handleListImports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}
		imports, err := deps.Store.ListImports(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading imports: %v", err)
			return
		}
		type importJSON struct {
			ID        string `json:"id"`
			Filename  string `json:"filename,omitempty"`
			Status    string `json:"status"`
			ClientID  int64  `json:"client_id,omitempty"`
			JobID     int64  `json:"job_id,omitempty"`
			Error     string `json:"error,omitempty"`
			CreatedAt string `json:"created_at"`
		}
		out := make([]importJSON, 0, len(imports))
		for _, rec := range imports {
			out = append(out, importJSON{
				ID: rec.ID, Filename: rec.Filename, Status: rec.Status,
				ClientID: rec.ClientID, JobID: rec.JobID, Error: rec.Error,
				CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleExport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := deps.Store.LoadClients()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading clients: %v", err)
			return
		}
		jobs, err := deps.Store.LoadJobs()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "loading jobs: %v", err)
			return
		}
		data, err := export.Workbook(clients, records.Repair(jobs), nil)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "internal_error", "export failed: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="gestao.xlsx"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
