package storage

import "time"

// Import statuses.
const (
	ImportStatusOK         = "ok"
	ImportStatusRejected   = "rejected"   // readable file, unrecognized content
	ImportStatusUnreadable = "unreadable" // not a usable PDF at all
)

// ImportRecord is one audit row per import attempt, successful or not.
type ImportRecord struct {
	ID        string
	Filename  string
	Status    string
	ClientID  int64
	JobID     int64
	Error     string
	CreatedAt time.Time
}
