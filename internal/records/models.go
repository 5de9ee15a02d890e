// Package records holds the persistent client and job (obra) tables and
// the reconciliation logic that keeps them consistent across imports and
// historical corruption.
package records

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the obra lifecycle stage. The persisted strings are the
// emoji-prefixed labels the dashboard has always used; NormalizeStatus
// folds free-text variants onto them.
type Status string

const (
	StatusScheduling Status = "🔵 Agendamento"
	StatusQuoteSent  Status = "🟠 Orçamento Enviado"
	StatusInProgress Status = "🟤 Execução"
	StatusCompleted  Status = "🟢 Concluído"
	StatusCancelled  Status = "🔴 Cancelado"
)

// NormalizeStatus maps stored status text onto a canonical Status.
// Empty or unrecognized values normalize to StatusScheduling.
func NormalizeStatus(s string) Status {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "agendamento"):
		return StatusScheduling
	case strings.Contains(lower, "enviado"), strings.Contains(lower, "orçamento"), strings.Contains(lower, "orcamento"):
		return StatusQuoteSent
	case strings.Contains(lower, "execução"), strings.Contains(lower, "execucao"):
		return StatusInProgress
	case strings.Contains(lower, "concluído"), strings.Contains(lower, "concluido"):
		return StatusCompleted
	case strings.Contains(lower, "cancelado"):
		return StatusCancelled
	}
	return StatusScheduling
}

// Client is a persistent client record. Name is the natural key: no two
// clients share a normalized name, enforced by the reconciler at creation
// time rather than by a storage constraint.
type Client struct {
	ID           int64
	Name         string
	Phone        string
	Email        string
	Address      string
	RegisteredAt time.Time
}

// Job is a persistent obra record. ClientName references Client by name,
// not id; that is the contract the rest of the system was built on.
// ID values of zero or less mean the id was missing or
// non-numeric in storage; the repair pass reassigns them.
type Job struct {
	ID             int64
	ClientName     string
	Status         Status
	VisitDate      time.Time // zero = absent
	QuoteDate      time.Time
	CompletionDate time.Time
	LaborCost      decimal.Decimal
	MaterialCost   decimal.Decimal
	Total          decimal.Decimal
	DownPayment    decimal.Decimal
	PaidInFull     bool
	Description    string
}

// NormalizeName trims and collapses internal whitespace. Name matching is
// case-insensitive on top of this.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nameKey is the case-folded dedup key for client names.
func nameKey(s string) string {
	return strings.ToLower(NormalizeName(s))
}

// SameName reports whether two client names match under the dedup rule
// (whitespace-collapsed, case-insensitive).
func SameName(a, b string) bool {
	return nameKey(a) == nameKey(b)
}
