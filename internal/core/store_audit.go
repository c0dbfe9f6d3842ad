package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const auditSchemaSQL = `
CREATE TABLE IF NOT EXISTS model_audit_log (
    id             UUID PRIMARY KEY,
    action         TEXT NOT NULL,
    severity       TEXT NOT NULL,
    document_id    UUID NOT NULL,
    document_name  TEXT,
    source         TEXT,
    role           TEXT,
    idx            INTEGER,
    attribute      TEXT,
    old_value      TEXT,
    new_value      TEXT,
    samples        INTEGER,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS model_audit_log_document_idx ON model_audit_log (document_id, created_at DESC);
CREATE INDEX IF NOT EXISTS model_audit_log_created_idx ON model_audit_log (created_at);
`

const auditSelectColumns = "id, action, severity, document_id, document_name, source, role, idx, attribute, old_value, new_value, samples, created_at"

// LogAudit inserts one audit entry. Entries outlive their document.
func (s *PgStore) LogAudit(ctx context.Context, e *AuditEntry) error {
	idx := pgtype.Int4{}
	if e.Index != nil {
		idx = ToPgInt4(*e.Index, true)
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO model_audit_log (`+auditSelectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ToPgUUID(e.ID), string(e.Action), string(e.Severity), ToPgUUID(e.DocumentID),
		ToPgText(e.DocumentName), ToPgText(e.Source), ToPgText(e.Role), idx,
		ToPgText(e.Attribute), ToPgText(e.OldValue), ToPgText(e.NewValue),
		ToPgInt4(e.Samples, e.Samples > 0), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// auditListQuery builds the paged audit query for filter.
func auditListQuery(filter AuditFilter) (string, []any) {
	wb := NewWhereBuilder()
	wb.AddDocumentID(filter.DocumentID)
	wb.Add("action", string(filter.Action))
	wb.AddSince("created_at", filter.Since)
	where, args := wb.Build()

	n := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM model_audit_log%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		auditSelectColumns, where, n, n+1)
	return query, append(args, filter.Limit, filter.Offset)
}

// ListAudit returns entries matching filter, newest first.
func (s *PgStore) ListAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	query, args := auditListQuery(filter)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			id, docID                                pgtype.UUID
			action, severity                         string
			name, source, role, attr, oldVal, newVal pgtype.Text
			idx, samples                             pgtype.Int4
			createdAt                                time.Time
		)
		if err := rows.Scan(&id, &action, &severity, &docID, &name, &source, &role, &idx,
			&attr, &oldVal, &newVal, &samples, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e := AuditEntry{
			ID:           PgUUIDToString(id),
			Action:       AuditAction(action),
			Severity:     AuditSeverity(severity),
			DocumentID:   PgUUIDToString(docID),
			DocumentName: FromPgText(name),
			Source:       FromPgText(source),
			Role:         FromPgText(role),
			Attribute:    FromPgText(attr),
			OldValue:     FromPgText(oldVal),
			NewValue:     FromPgText(newVal),
			CreatedAt:    createdAt,
		}
		if v, ok := FromPgInt4(idx); ok {
			e.Index = &v
		}
		if v, ok := FromPgInt4(samples); ok {
			e.Samples = v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneAudit deletes up to batchSize entries created before cutoff and
// returns how many were removed.
func (s *PgStore) PruneAudit(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM model_audit_log WHERE id IN (
		     SELECT id FROM model_audit_log WHERE created_at < $1 ORDER BY created_at LIMIT $2
		 )`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}
