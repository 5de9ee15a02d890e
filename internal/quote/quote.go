// Package quote turns raw text extracted from orçamento and recibo PDFs
// into structured records. Extraction is heuristic: it targets the
// business's own document layout and degrades to an explicit failure on
// anything else.
package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotRecognized is returned when the text does not match any known
// document layout. ErrNoClient and ErrNoTotal wrap it: all extraction
// failures satisfy errors.Is(err, ErrNotRecognized).
var ErrNotRecognized = errors.New("document not recognized")

var (
	ErrNoClient = fmt.Errorf("no client line found: %w", ErrNotRecognized)
	ErrNoTotal  = fmt.Errorf("no usable total found: %w", ErrNotRecognized)
)

// Kind identifies the document shape the extractor matched.
type Kind string

const (
	KindQuote   Kind = "orcamento"
	KindReceipt Kind = "recibo"
)

// TotalConfidence reports how the total was located.
type TotalConfidence string

const (
	// TotalFromLabel means the total came from an explicit "Total:" or
	// "Valor:" line.
	TotalFromLabel TotalConfidence = "label"
	// TotalFromScan means no labeled total existed and the largest
	// currency-shaped token in the document was used. Best effort only:
	// a displayed figure larger than the grand total defeats it.
	TotalFromScan TotalConfidence = "scan"
)

// ExtractedQuote is the ephemeral result of parsing one document. It is
// created fresh per document, never mutated after extraction, and
// consumed exactly once by the reconciler.
type ExtractedQuote struct {
	ClientName      string
	IssueDate       time.Time // zero when no parseable date was found
	Total           decimal.Decimal
	Description     string
	DocumentNumber  string
	Kind            Kind
	TotalConfidence TotalConfidence
}
