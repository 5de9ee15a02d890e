package quote

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malta2023/solucao-gestao/internal/parse"
)

// Label patterns for the orçamento shape. First match on a line wins.
var (
	reClient   = regexp.MustCompile(`(?i)^\s*(?:Cliente|Para|Sra?\.?|Nome)\s*:\s*(.+)$`)
	reDateLine = regexp.MustCompile(`(?i)^\s*(?:Criado em|Data)\s*:\s*(.+)$`)
	reTotal    = regexp.MustCompile(`(?i)^\s*Total\s*:\s*(.+)$`)
	reDesc     = regexp.MustCompile(`(?i)^\s*Descri(?:ç|c)(?:ã|a)o\s*:\s*(.*)$`)
	reValor    = regexp.MustCompile(`(?i)^\s*Valor\s*:\s*(.+)$`)
	reDocNum   = regexp.MustCompile(`(?i)\b(?:Nº|N°|No\.?|N(?:ú|u)mero)\s*:?\s*([0-9][0-9./-]*)`)
)

// Receipt-shape labels. Receipts share the normalizer with quotes but not
// the label vocabulary.
var (
	reReceivedFrom = regexp.MustCompile(`(?i)^\s*Recebemos de\s*:\s*(.+)$`)
	reReferente    = regexp.MustCompile(`(?i)^\s*Referente a\s*:\s*(.+)$`)
)

// anyLabel marks lines that carry a field label in either shape; the
// description fallback must not swallow them.
var anyLabel = regexp.MustCompile(`(?i)^\s*(?:Cliente|Para|Sra?\.?|Nome|Criado em|Data|Total|Valor|Descri(?:ç|c)(?:ã|a)o|Recebemos de|Referente a)\s*:`)

// currencyOnly matches lines that are nothing but monetary tokens, the
// residue of table columns collapsing onto their own lines.
var currencyOnly = regexp.MustCompile(`^\s*(?:R?\$?\s*\d{1,3}(?:\.\d{3})*,\d{2}\s*)+$`)

// maxFallbackDescLines caps how many leading free lines the description
// fallback collects, so a multi-page footer or signature block never
// becomes the description.
const maxFallbackDescLines = 5

// Parser extracts structured fields from document text. Denylist holds
// lowercase substrings of boilerplate recurring in every document from
// this source (company name, address, contact lines); matching lines are
// never part of a description.
type Parser struct {
	Denylist []string
}

// NewParser builds a Parser with the given boilerplate denylist entries.
func NewParser(denylist ...string) *Parser {
	lowered := make([]string, 0, len(denylist))
	for _, d := range denylist {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			lowered = append(lowered, d)
		}
	}
	return &Parser{Denylist: lowered}
}

// Parse extracts an ExtractedQuote from page-ordered document text.
// The text must contain ORÇAMENTO or RECIBO (case-insensitive) to be
// considered at all; extraction fails outright when the client or the
// total cannot be determined, so a bad scan never fabricates records.
func (p *Parser) Parse(text string) (*ExtractedQuote, error) {
	kind, ok := Classify(text)
	if !ok {
		return nil, ErrNotRecognized
	}

	lines := splitLines(text)

	q := &ExtractedQuote{Kind: kind}
	switch kind {
	case KindReceipt:
		q.ClientName = firstMatch(lines, reReceivedFrom)
		if q.ClientName == "" {
			return nil, ErrNoClient
		}
		total, conf, ok := labeledTotal(lines, reValor)
		if !ok {
			total, conf, ok = scannedTotal(text)
		}
		if !ok || total.IsZero() {
			return nil, ErrNoTotal
		}
		q.Total, q.TotalConfidence = total, conf
		q.Description = p.receiptDescription(lines)
	default:
		q.ClientName = firstMatch(lines, reClient)
		if q.ClientName == "" {
			return nil, ErrNoClient
		}
		total, conf, ok := labeledTotal(lines, reTotal)
		if !ok {
			total, conf, ok = scannedTotal(text)
		}
		if !ok || total.IsZero() {
			return nil, ErrNoTotal
		}
		q.Total, q.TotalConfidence = total, conf
		q.Description = p.quoteDescription(lines)
	}

	q.IssueDate = extractDate(lines, text)
	q.DocumentNumber = firstMatch(lines, reDocNum)

	return q, nil
}

// Classify gates extraction on the document keyword. Text without
// ORÇAMENTO or RECIBO anywhere is not a candidate, regardless of other
// field-shaped content.
func Classify(text string) (Kind, bool) {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "ORÇAMENTO") || strings.Contains(upper, "ORCAMENTO"):
		return KindQuote, true
	case strings.Contains(upper, "RECIBO"):
		return KindReceipt, true
	}
	return "", false
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// firstMatch returns the first submatch of re across lines, trimmed.
func firstMatch(lines []string, re *regexp.Regexp) string {
	for _, l := range lines {
		if m := re.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[len(m)-1])
		}
	}
	return ""
}

// labeledTotal reads the amount from an explicit label line.
func labeledTotal(lines []string, re *regexp.Regexp) (decimal.Decimal, TotalConfidence, bool) {
	for _, l := range lines {
		m := re.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		token := parse.CurrencyPattern.FindString(m[1])
		if token == "" {
			token = m[1]
		}
		d, err := parse.Currency(token)
		if err != nil {
			continue
		}
		return d, TotalFromLabel, true
	}
	return decimal.Zero, "", false
}

// scannedTotal takes the maximum of every currency-shaped token in the
// text. The largest monetary figure on a quote is overwhelmingly likely
// to be the grand total, since line items are smaller than their sum.
func scannedTotal(text string) (decimal.Decimal, TotalConfidence, bool) {
	max := decimal.Zero
	found := false
	for _, token := range parse.CurrencyPattern.FindAllString(text, -1) {
		d, err := parse.Currency(token)
		if err != nil {
			continue
		}
		if !found || d.GreaterThan(max) {
			max = d
			found = true
		}
	}
	return max, TotalFromScan, found
}

// extractDate prefers a labeled date line and falls back to the first
// date-shaped token anywhere in the text.
func extractDate(lines []string, text string) time.Time {
	if raw := firstMatch(lines, reDateLine); raw != "" {
		if token := parse.DatePattern.FindString(raw); token != "" {
			if t, ok := parse.Date(token); ok {
				return t
			}
		}
	}
	if token := parse.DatePattern.FindString(text); token != "" {
		if t, ok := parse.Date(token); ok {
			return t
		}
	}
	return time.Time{}
}

// quoteDescription collects lines between the Descrição label and the
// next Total/Valor label. Without a Descrição label it falls back to the
// leading unlabeled, non-boilerplate lines.
func (p *Parser) quoteDescription(lines []string) string {
	var out []string
	collecting := false
	for _, l := range lines {
		if m := reDesc.FindStringSubmatch(l); m != nil {
			collecting = true
			if rest := strings.TrimSpace(m[1]); rest != "" {
				out = append(out, rest)
			}
			continue
		}
		if !collecting {
			continue
		}
		if reTotal.MatchString(l) || reValor.MatchString(l) {
			break
		}
		if p.keepDescriptionLine(l) {
			out = append(out, l)
		}
	}
	if collecting {
		return strings.Join(out, "\n")
	}
	return p.fallbackDescription(lines)
}

// receiptDescription takes the Referente a line plus following free lines
// up to the next label.
func (p *Parser) receiptDescription(lines []string) string {
	var out []string
	collecting := false
	for _, l := range lines {
		if m := reReferente.FindStringSubmatch(l); m != nil {
			collecting = true
			if rest := strings.TrimSpace(m[1]); rest != "" {
				out = append(out, rest)
			}
			continue
		}
		if !collecting {
			continue
		}
		if anyLabel.MatchString(l) {
			break
		}
		if p.keepDescriptionLine(l) {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// fallbackDescription collects leading lines that are neither boilerplate
// nor field-labeled, capped so footers never leak in.
func (p *Parser) fallbackDescription(lines []string) string {
	var out []string
	for _, l := range lines {
		if len(out) >= maxFallbackDescLines {
			break
		}
		if anyLabel.MatchString(l) {
			continue
		}
		if p.keepDescriptionLine(l) {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// keepDescriptionLine rejects pure currency residue, the document
// keyword itself, and denylisted boilerplate.
func (p *Parser) keepDescriptionLine(l string) bool {
	if currencyOnly.MatchString(l) {
		return false
	}
	upper := strings.ToUpper(l)
	if strings.Contains(upper, "ORÇAMENTO") || strings.Contains(upper, "ORCAMENTO") || strings.Contains(upper, "RECIBO") {
		return false
	}
	lower := strings.ToLower(l)
	for _, d := range p.Denylist {
		if strings.Contains(lower, d) {
			return false
		}
	}
	return true
}
