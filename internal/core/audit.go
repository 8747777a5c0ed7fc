package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of change an audit entry records.
type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionImport AuditAction = "import"
	ActionReset  AuditAction = "reset"
)

// AuditSeverity ranks entries for operators scanning the log.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// DefaultAuditCapacity is how many entries the log keeps when unset.
const DefaultAuditCapacity = 500

// AuditEntry is one recorded change.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	RecordID     string        `json:"record_id,omitempty"`
	FileName     string        `json:"file_name,omitempty"`
	IPAddress    string        `json:"ip_address,omitempty"`
	RowsAffected int           `json:"rows_affected"`
	RowErrors    int           `json:"row_errors,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AuditFilter narrows AuditLog.Entries. Zero fields match everything.
type AuditFilter struct {
	Action AuditAction
	Since  time.Time
	Limit  int
}

// determineSeverity ranks an action. Anything that replaces or clears the
// whole collection is critical.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionReset:
		return SeverityCritical
	case ActionDelete:
		return SeverityHigh
	case ActionUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AuditLog keeps the most recent entries in memory, oldest dropped first.
// It is per process and does not survive a restart.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	next    int
	full    bool
	now     func() time.Time
}

// NewAuditLog returns a log holding up to capacity entries. A capacity
// below one disables recording.
func NewAuditLog(capacity int) *AuditLog {
	if capacity < 0 {
		capacity = 0
	}
	return &AuditLog{
		entries: make([]AuditEntry, capacity),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record stamps e with an id, severity and time and appends it.
func (l *AuditLog) Record(ctx context.Context, e AuditEntry) AuditEntry {
	e.ID = uuid.New().String()
	e.Severity = determineSeverity(e.Action)
	e.CreatedAt = l.now()
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return e
	}
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return e
}

// Entries returns matching entries, newest first.
func (l *AuditLog) Entries(f AuditFilter) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.entries)
	}

	out := make([]AuditEntry, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.next - 1 - i + len(l.entries)) % len(l.entries)
		e := l.entries[idx]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
