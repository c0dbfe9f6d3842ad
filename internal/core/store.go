package core

// store.go persists documents in PostgreSQL.
//
// A document is spread over three tables: one header row in model_documents,
// one row per element in model_elements and one row per sample in
// model_samples. Samples are written with COPY; everything for one document
// is written in a single transaction so a failed import leaves nothing behind.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/modelcsv/internal/model"
)

// ErrDocumentNotFound is returned when no document has the requested ID.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore is the persistence layer used by Service.
type DocumentStore interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]DocumentInfo, error)
	Delete(ctx context.Context, id string) error
	SaveElement(ctx context.Context, id string, isInput bool, e model.InputElement) error

	LogAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
	PruneAudit(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS model_documents (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL,
    source      TEXT,
    n_inputs    INTEGER NOT NULL,
    n_outputs   INTEGER NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS model_elements (
    document_id          UUID NOT NULL REFERENCES model_documents(id) ON DELETE CASCADE,
    role                 TEXT NOT NULL,
    idx                  INTEGER NOT NULL,
    name                 TEXT,
    title                TEXT,
    description          TEXT,
    min_value            DOUBLE PRECISION,
    max_value            DOUBLE PRECISION,
    scaling_length       DOUBLE PRECISION,
    default_value        DOUBLE PRECISION,
    discretization_step  DOUBLE PRECISION,
    target_value         DOUBLE PRECISION,
    optimization_index   INTEGER,
    PRIMARY KEY (document_id, role, idx)
);

CREATE TABLE IF NOT EXISTS model_samples (
    document_id  UUID NOT NULL REFERENCES model_documents(id) ON DELETE CASCADE,
    seq          INTEGER NOT NULL,
    inputs       DOUBLE PRECISION[],
    outputs      DOUBLE PRECISION[],
    PRIMARY KEY (document_id, seq)
);
`

// elementColumns is the column order shared by elementParams and scanElement.
var elementColumns = []string{
	"document_id", "role", "idx", "name", "title", "description",
	"min_value", "max_value", "scaling_length", "default_value",
	"discretization_step", "target_value", "optimization_index",
}

var sampleColumns = []string{"document_id", "seq", "inputs", "outputs"}

// PgStore is a DocumentStore backed by a pgx pool.
type PgStore struct {
	db TxBeginner
}

// NewPgStore returns a store using db, usually a *pgxpool.Pool.
func NewPgStore(db TxBeginner) *PgStore {
	return &PgStore{db: db}
}

// EnsureSchema creates the document and audit tables if they do not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL+auditSchemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create stores doc with its elements and samples.
func (s *PgStore) Create(ctx context.Context, doc *Document) error {
	id := ToPgUUID(doc.ID)
	if !id.Valid {
		return fmt.Errorf("create document: invalid id %q", doc.ID)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO model_documents (id, name, source, n_inputs, n_outputs, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, doc.Name, ToPgText(doc.Source),
		doc.Definition.InputLength(), doc.Definition.OutputLength(), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	if err := insertElements(ctx, tx, id, doc.Definition); err != nil {
		return err
	}

	if rows := sampleRows(id, doc.Data); len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"model_samples"}, sampleColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy samples: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy samples: wrote %d of %d rows", n, len(rows))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertElements(ctx context.Context, tx pgx.Tx, id pgtype.UUID, def *model.DataDefinition) error {
	query := insertElementSQL()
	for _, e := range def.Inputs {
		if _, err := tx.Exec(ctx, query, elementParams(id, RoleInput, e)...); err != nil {
			return fmt.Errorf("insert input %d: %w", e.Index, err)
		}
	}
	for _, e := range def.Outputs {
		in := model.InputElement{Element: e.Element}
		if _, err := tx.Exec(ctx, query, elementParams(id, RoleOutput, in)...); err != nil {
			return fmt.Errorf("insert output %d: %w", e.Index, err)
		}
	}
	return nil
}

func insertElementSQL() string {
	placeholders := make([]string, len(elementColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO model_elements (%s) VALUES (%s)",
		strings.Join(elementColumns, ", "), strings.Join(placeholders, ", "))
}

// elementParams returns the values of one model_elements row in
// elementColumns order. Output elements never carry input-only facets.
func elementParams(id pgtype.UUID, role string, e model.InputElement) []any {
	params := []any{
		id,
		role,
		e.Index,
		ToPgText(e.Name),
		ToPgText(e.Title),
		ToPgText(e.Description),
		ToPgFloat8(e.Min, e.BoundsDefined),
		ToPgFloat8(e.Max, e.BoundsDefined),
		ToPgFloat8(e.ScalingLength, e.ScalingLengthDefined),
		ToPgFloat8(e.DefaultValue, e.DefaultValueDefined),
		ToPgFloat8(e.DiscretizationStep, e.DiscretizationStepDefined),
		ToPgFloat8(e.TargetValue, e.TargetValueDefined),
		ToPgInt4(e.OptimizationIndex, e.OptimizationIndexDefined),
	}
	if role == RoleOutput {
		params[9] = pgtype.Float8{}
		params[10] = pgtype.Float8{}
		params[12] = pgtype.Int4{}
	}
	return params
}

// sampleRows returns the COPY rows for set. Absent vectors are NULL arrays.
func sampleRows(id pgtype.UUID, set *model.SampledDataSet) [][]any {
	if set == nil {
		return nil
	}
	rows := make([][]any, 0, len(set.Records))
	for i, rec := range set.Records {
		rows = append(rows, []any{id, i, rec.Inputs, rec.Outputs})
	}
	return rows
}

// elementRow mirrors one model_elements row.
type elementRow struct {
	Role               string
	Index              int
	Name               pgtype.Text
	Title              pgtype.Text
	Description        pgtype.Text
	Min                pgtype.Float8
	Max                pgtype.Float8
	ScalingLength      pgtype.Float8
	DefaultValue       pgtype.Float8
	DiscretizationStep pgtype.Float8
	TargetValue        pgtype.Float8
	OptimizationIndex  pgtype.Int4
}

// apply copies r into its element of def.
func (r elementRow) apply(def *model.DataDefinition) error {
	isInput, ok := ParseRole(r.Role)
	if !ok {
		return fmt.Errorf("element %d: unknown role %q", r.Index, r.Role)
	}
	e := def.Common(isInput, r.Index)
	if e == nil {
		return fmt.Errorf("%w: %s %d", model.ErrNoSuchElement, r.Role, r.Index)
	}

	e.Name = FromPgText(r.Name)
	e.Title = FromPgText(r.Title)
	e.Description = FromPgText(r.Description)
	if r.Min.Valid && r.Max.Valid {
		e.SetBounds(r.Min.Float64, r.Max.Float64)
	}
	if v, ok := FromPgFloat8(r.ScalingLength); ok {
		e.SetScalingLength(v)
	}
	if v, ok := FromPgFloat8(r.TargetValue); ok {
		e.SetTargetValue(v)
	}

	if !isInput {
		return nil
	}
	in := def.Input(r.Index)
	if v, ok := FromPgFloat8(r.DefaultValue); ok {
		in.SetDefaultValue(v)
	}
	if v, ok := FromPgFloat8(r.DiscretizationStep); ok {
		in.SetDiscretizationStep(v)
	}
	if v, ok := FromPgInt4(r.OptimizationIndex); ok {
		in.SetOptimizationIndex(v)
	}
	return nil
}

// Get loads a full document.
func (s *PgStore) Get(ctx context.Context, id string) (*Document, error) {
	uid := ToPgUUID(id)
	if !uid.Valid {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}

	var (
		name      string
		source    pgtype.Text
		nIn, nOut int
		createdAt time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT name, source, n_inputs, n_outputs, created_at FROM model_documents WHERE id = $1`, uid,
	).Scan(&name, &source, &nIn, &nOut, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	def, err := model.NewDataDefinition(nIn, nOut)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if err := s.loadElements(ctx, uid, def); err != nil {
		return nil, err
	}
	set, err := s.loadSamples(ctx, uid, nIn, nOut)
	if err != nil {
		return nil, err
	}

	return &Document{
		ID:         id,
		Name:       name,
		Source:     FromPgText(source),
		CreatedAt:  createdAt,
		Definition: def,
		Data:       set,
	}, nil
}

func (s *PgStore) loadElements(ctx context.Context, id pgtype.UUID, def *model.DataDefinition) error {
	rows, err := s.db.Query(ctx,
		`SELECT role, idx, name, title, description, min_value, max_value, scaling_length,
		        default_value, discretization_step, target_value, optimization_index
		 FROM model_elements WHERE document_id = $1 ORDER BY role, idx`, id)
	if err != nil {
		return fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r elementRow
		if err := rows.Scan(&r.Role, &r.Index, &r.Name, &r.Title, &r.Description, &r.Min, &r.Max,
			&r.ScalingLength, &r.DefaultValue, &r.DiscretizationStep, &r.TargetValue, &r.OptimizationIndex); err != nil {
			return fmt.Errorf("scan element: %w", err)
		}
		if err := r.apply(def); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *PgStore) loadSamples(ctx context.Context, id pgtype.UUID, nIn, nOut int) (*model.SampledDataSet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT inputs, outputs FROM model_samples WHERE document_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	set := model.NewSampledDataSet(nIn, nOut)
	for rows.Next() {
		var rec model.SampleRecord
		if err := rows.Scan(&rec.Inputs, &rec.Outputs); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if err := set.Append(rec); err != nil {
			return nil, fmt.Errorf("load sample %d: %w", set.Len(), err)
		}
	}
	return set, rows.Err()
}

// List returns all documents, newest first.
func (s *PgStore) List(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.Query(ctx,
		`SELECT d.id, d.name, d.source, d.n_inputs, d.n_outputs, d.created_at,
		        (SELECT count(*) FROM model_samples s WHERE s.document_id = d.id)
		 FROM model_documents d ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var infos []DocumentInfo
	for rows.Next() {
		var (
			id      pgtype.UUID
			source  pgtype.Text
			info    DocumentInfo
			samples int64
		)
		if err := rows.Scan(&id, &info.Name, &source, &info.Inputs, &info.Outputs, &info.CreatedAt, &samples); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.ID = PgUUIDToString(id)
		info.Source = FromPgText(source)
		info.Samples = int(samples)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a document and, by cascade, its elements and samples.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	uid := ToPgUUID(id)
	if !uid.Valid {
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM model_documents WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}

// SaveElement overwrites every facet of one stored element.
func (s *PgStore) SaveElement(ctx context.Context, id string, isInput bool, e model.InputElement) error {
	uid := ToPgUUID(id)
	if !uid.Valid {
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, id)
	}
	role := RoleOutput
	if isInput {
		role = RoleInput
	}

	p := elementParams(uid, role, e)
	tag, err := s.db.Exec(ctx,
		`UPDATE model_elements SET name = $4, title = $5, description = $6, min_value = $7,
		        max_value = $8, scaling_length = $9, default_value = $10,
		        discretization_step = $11, target_value = $12, optimization_index = $13
		 WHERE document_id = $1 AND role = $2 AND idx = $3`, p...)
	if err != nil {
		return fmt.Errorf("update element: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", model.ErrNoSuchElement, role, e.Index)
	}
	return nil
}
