package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/modelcsv/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport        AuditAction = "import"
	ActionElementUpdate AuditAction = "element_update"
	ActionDelete        AuditAction = "delete"
)

// ParseAuditAction returns the action named s.
func ParseAuditAction(s string) (AuditAction, bool) {
	switch a := AuditAction(s); a {
	case ActionImport, ActionElementUpdate, ActionDelete:
		return a, true
	}
	return "", false
}

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// Audit query limits.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 1000
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	DocumentID   string        `json:"documentId"`
	DocumentName string        `json:"documentName,omitempty"`
	Source       string        `json:"source,omitempty"`
	Role         string        `json:"role,omitempty"`
	Index        *int          `json:"index,omitempty"`
	Attribute    string        `json:"attribute,omitempty"`
	OldValue     string        `json:"oldValue,omitempty"`
	NewValue     string        `json:"newValue,omitempty"`
	Samples      int           `json:"samples,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditFilter contains filtering options for querying the audit log. Zero
// fields do not filter.
type AuditFilter struct {
	DocumentID string
	Action     AuditAction
	Since      time.Time
	Limit      int
	Offset     int
}

// normalize clamps Limit into [1, MaxAuditLimit] and Offset to >= 0.
func (f AuditFilter) normalize() AuditFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultAuditLimit
	case f.Limit > MaxAuditLimit:
		f.Limit = MaxAuditLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionDelete:
		return SeverityHigh
	case ActionImport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// recordAudit stores an audit entry for a change that already happened.
// Failures are logged, never returned: the change itself stands.
func (s *Service) recordAudit(ctx context.Context, e AuditEntry) {
	e.ID = uuid.NewString()
	e.Severity = determineSeverity(e.Action)
	e.CreatedAt = time.Now().UTC()
	if e.Source == "" {
		e.Source = RequestMetaFromContext(ctx).Source()
	}

	// A cancelled request must not lose the record of what it already did.
	ctx = context.WithoutCancel(ctx)
	if err := s.store.LogAudit(ctx, &e); err != nil {
		logging.FromContext(ctx).Warn("audit log write failed",
			"action", e.Action,
			"document", e.DocumentID,
			"error", err,
		)
	}
}

// AuditLog returns audit entries matching filter, newest first.
func (s *Service) AuditLog(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	return s.store.ListAudit(ctx, filter.normalize())
}
