package records

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Malta2023/solucao-gestao/internal/quote"
)

// UpsertClient reuses an existing client whose normalized name matches,
// or inserts a new one with empty contact fields and id max+1 (1 for an
// empty table). Returns the updated table and the client's id.
func UpsertClient(clients []Client, name string, now time.Time) ([]Client, int64) {
	key := nameKey(name)
	for _, c := range clients {
		if nameKey(c.Name) == key {
			return clients, c.ID
		}
	}

	var maxID int64
	for _, c := range clients {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	c := Client{
		ID:           maxID + 1,
		Name:         NormalizeName(name),
		RegisteredAt: now,
	}
	return append(clients, c), c.ID
}

// clientNameByID returns the stored spelling for a client id, so job rows
// reference the canonical name rather than whatever casing the document
// carried.
func clientNameByID(clients []Client, id int64) string {
	for _, c := range clients {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// NextJobID returns max(valid ids)+1, or 1 for an empty table.
func NextJobID(jobs []Job) int64 {
	var maxID int64
	for _, j := range jobs {
		if j.ID > maxID {
			maxID = j.ID
		}
	}
	return maxID + 1
}

// signature is the derived dedup key: two rows sharing it are the same
// logical job regardless of id. The quote date is deliberately not part
// of the key; a re-import of the same document that was stamped a
// different date must still collapse onto one row.
type signature struct {
	client      string
	description string
	total       string
}

func signatureOf(j Job) signature {
	return signature{
		client:      nameKey(j.ClientName),
		description: nameKey(j.Description),
		total:       j.Total.StringFixed(2),
	}
}

// Repair fixes a job table corrupted by historical CSV round-tripping.
// It drops rows with a blank client name, assigns missing ids
// sequentially from max+1 in table order, deduplicates by id keeping the
// last occurrence, and collapses signature duplicates keeping the row
// with the latest quote date (last in table order on a tie). Running it
// once reaches a fixed point; it never fails on malformed rows.
func Repair(jobs []Job) []Job {
	// Drop unrecoverable rows.
	kept := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if NormalizeName(j.ClientName) == "" {
			continue
		}
		j.Status = NormalizeStatus(string(j.Status))
		kept = append(kept, j)
	}

	// Assign missing ids from max+1 in table order.
	var maxID int64
	for _, j := range kept {
		if j.ID > maxID {
			maxID = j.ID
		}
	}
	for i := range kept {
		if kept[i].ID <= 0 {
			maxID++
			kept[i].ID = maxID
		}
	}

	// Dedup by id, keeping the last occurrence (most recently written).
	lastByID := make(map[int64]int, len(kept))
	for i, j := range kept {
		lastByID[j.ID] = i
	}
	deduped := make([]Job, 0, len(kept))
	for i, j := range kept {
		if lastByID[j.ID] == i {
			deduped = append(deduped, j)
		}
	}

	// Collapse signature duplicates: latest quote date wins, last row in
	// table order on an equal date.
	winner := make(map[signature]int, len(deduped))
	for i, j := range deduped {
		sig := signatureOf(j)
		if w, ok := winner[sig]; ok {
			if deduped[i].QuoteDate.Before(deduped[w].QuoteDate) {
				continue
			}
		}
		winner[sig] = i
	}
	out := make([]Job, 0, len(deduped))
	for i, j := range deduped {
		if winner[signatureOf(j)] == i {
			out = append(out, j)
		}
	}
	return out
}

// ImportResult reports what an import did to the tables.
type ImportResult struct {
	Clients  []Client
	Jobs     []Job
	ClientID int64
	JobID    int64
}

// Import merges a successfully extracted document into the tables. The
// client is upserted by normalized name; a new job row is always appended
// (incoming documents represent new engagements, never silent merges into
// an existing job). Repair runs before and after the insertion so the
// table invariant holds continuously, not just eventually. The job keeps
// the extracted total with a zero cost breakdown until it is itemized
// manually.
func Import(clients []Client, jobs []Job, q *quote.ExtractedQuote, now time.Time) ImportResult {
	jobs = Repair(jobs)

	clients, clientID := UpsertClient(clients, q.ClientName, now)

	quoteDate := q.IssueDate
	if quoteDate.IsZero() {
		quoteDate = now
	}

	job := Job{
		ID:           NextJobID(jobs),
		ClientName:   clientNameByID(clients, clientID),
		Status:       StatusQuoteSent,
		QuoteDate:    quoteDate,
		LaborCost:    decimal.Zero,
		MaterialCost: decimal.Zero,
		Total:        q.Total,
		DownPayment:  decimal.Zero,
		Description:  q.Description,
	}
	jobs = Repair(append(jobs, job))

	// A re-import may have been collapsed into an earlier row; report the
	// id of whichever row survived for this document.
	jobID := job.ID
	sig := signatureOf(job)
	for _, j := range jobs {
		if signatureOf(j) == sig {
			jobID = j.ID
			break
		}
	}

	return ImportResult{Clients: clients, Jobs: jobs, ClientID: clientID, JobID: jobID}
}

// SaveJob is the manual form path: the total is always recomputed from
// its cost components, a new row gets id max+1, and editing an existing
// id replaces that row.
func SaveJob(jobs []Job, j Job) ([]Job, Job) {
	j.ClientName = NormalizeName(j.ClientName)
	j.Status = NormalizeStatus(string(j.Status))
	j.Total = j.LaborCost.Add(j.MaterialCost)

	if j.ID <= 0 {
		j.ID = NextJobID(jobs)
		return append(jobs, j), j
	}

	out := make([]Job, 0, len(jobs)+1)
	for _, existing := range jobs {
		if existing.ID != j.ID {
			out = append(out, existing)
		}
	}
	return append(out, j), j
}

// DeleteJob removes the row with the given id. Missing ids are a no-op.
func DeleteJob(jobs []Job, id int64) []Job {
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if j.ID != id {
			out = append(out, j)
		}
	}
	return out
}
