package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/modelcsv/internal/codec"
	"github.com/JonMunkholm/modelcsv/internal/export"
	"github.com/JonMunkholm/modelcsv/internal/logging"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoFile          = errors.New("no file provided")
	ErrEmptyFile       = errors.New("empty file")
	ErrImportCancelled = errors.New("import cancelled")
	ErrImportTimeout   = errors.New("import timed out")
)

// DefaultImportTimeout is the maximum duration of one import when the
// configuration sets none.
const DefaultImportTimeout = 5 * time.Minute

// ServiceConfig holds the settings Service needs from the application config.
type ServiceConfig struct {
	Codec         codec.Options
	Separator     rune
	MaxFileSize   int64 // 0 means unlimited
	MaxConcurrent int
	MaxWaitTime   time.Duration
	Timeout       time.Duration
}

// Service provides document import, query, edit and export.
type Service struct {
	store   DocumentStore
	limiter *ImportLimiter
	opts    codec.Options
	sep     rune
	maxSize int64
	timeout time.Duration
}

// NewService creates a Service on top of store.
func NewService(store DocumentStore, cfg ServiceConfig) (*Service, error) {
	sep := cfg.Separator
	if sep == 0 {
		sep = table.DefaultSeparator
	}
	if !table.ValidSeparator(sep) {
		return nil, fmt.Errorf("%w: %q", table.ErrInvalidSeparator, sep)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultImportTimeout
	}
	return &Service{
		store:   store,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		opts:    cfg.Codec,
		sep:     sep,
		maxSize: cfg.MaxFileSize,
		timeout: timeout,
	}, nil
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Separator returns the CSV field separator.
func (s *Service) Separator() rune {
	return s.sep
}

// EnsureSchema creates the storage tables if needed.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.store.EnsureSchema(ctx)
}

// codecOptions returns the configured options logging through logger.
func (s *Service) codecOptions(logger *slog.Logger) codec.Options {
	opts := s.opts
	opts.Logger = logger
	return opts
}

// Parse decodes a model file without storing it.
func (s *Service) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	return s.parse(ctx, r, logging.FromContext(ctx))
}

func (s *Service) parse(ctx context.Context, r io.Reader, logger *slog.Logger) (*Document, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	counter := table.NewCountingReader(src, s.maxSize)

	t := table.New()
	readErr := t.Read(counter, s.sep)
	if s.maxSize > 0 && counter.BytesRead > s.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxSize)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read csv: %w", readErr)
	}
	if t.FirstNonEmptyRow(0) < 0 {
		return nil, ErrEmptyFile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	def, set, err := codec.Decode(t, s.codecOptions(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("parsed model file",
		"bytes", counter.BytesRead,
		"rows", t.RowCount(),
		"inputs", def.InputLength(),
		"outputs", def.OutputLength(),
		"samples", set.Len(),
	)
	return &Document{Definition: def, Data: set}, nil
}

// Import parses r and stores it as a new document named name.
func (s *Service) Import(ctx context.Context, name string, r io.Reader) (*DocumentInfo, error) {
	logger := logging.WithFields(ctx, "document", name)

	var info *DocumentInfo
	err := s.limiter.Do(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		start := time.Now()
		doc, err := s.parse(ctx, r, logger)
		if err != nil {
			return importError(ctx, err)
		}

		doc.ID = uuid.NewString()
		doc.Name = name
		doc.Source = RequestMetaFromContext(ctx).Source()
		doc.CreatedAt = time.Now().UTC()

		if err := s.store.Create(ctx, doc); err != nil {
			return importError(ctx, fmt.Errorf("store document: %w", err))
		}

		i := doc.Info()
		info = &i
		s.recordAudit(ctx, AuditEntry{
			Action:       ActionImport,
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			Source:       doc.Source,
			Samples:      i.Samples,
		})
		logger.Info("import completed",
			"id", doc.ID,
			"inputs", i.Inputs,
			"outputs", i.Outputs,
			"samples", i.Samples,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
	if err != nil {
		logger.Warn("import failed", "error", err)
		return nil, err
	}
	return info, nil
}

// importError replaces a bare context error with the import-specific one.
func importError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrImportTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrImportCancelled, err)
	}
	return err
}

// Get returns a stored document.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.store.Get(ctx, id)
}

// List returns all stored documents.
func (s *Service) List(ctx context.Context) ([]DocumentInfo, error) {
	return s.store.List(ctx)
}

// Delete removes a stored document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, AuditEntry{Action: ActionDelete, DocumentID: id})
	logging.FromContext(ctx).Info("document deleted", "id", id)
	return nil
}

// ExportCSV writes a stored document as a model file.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	opts := s.codecOptions(logging.WithFields(ctx, "id", id))
	return codec.EncodeCSV(w, s.sep, doc.Definition, doc.Data, opts)
}

// ExportArrow writes the samples of a stored document as an Arrow IPC stream.
func (s *Service) ExportArrow(ctx context.Context, id string, w io.Writer) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return export.WriteIPC(w, doc.Definition, doc.Data)
}

// UpdateElement sets one attribute of one element from its grid text and
// returns the updated document. Empty text clears the attribute.
func (s *Service) UpdateElement(ctx context.Context, id string, isInput bool, index int, attr, text string) (*Document, error) {
	a, err := model.ParseAttribute(attr)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := gridValue(doc.Definition, isInput, index, a)
	if err := doc.Definition.SetAttribute(isInput, index, a, text); err != nil {
		return nil, err
	}

	var e model.InputElement
	if isInput {
		e = *doc.Definition.Input(index)
	} else {
		e = model.InputElement{Element: doc.Definition.Output(index).Element}
	}
	if err := s.store.SaveElement(ctx, id, isInput, e); err != nil {
		return nil, err
	}

	role := RoleOutput
	if isInput {
		role = RoleInput
	}
	s.recordAudit(ctx, AuditEntry{
		Action:       ActionElementUpdate,
		DocumentID:   id,
		DocumentName: doc.Name,
		Role:         role,
		Index:        &index,
		Attribute:    a.String(),
		OldValue:     old,
		NewValue:     gridValue(doc.Definition, isInput, index, a),
	})

	logging.FromContext(ctx).Info("element updated",
		"id", id,
		"input", isInput,
		"index", index,
		"attribute", a.String(),
	)
	return doc, nil
}

// gridValue returns the display text of attribute a of one element, or ""
// when the element does not exist.
func gridValue(def *model.DataDefinition, isInput bool, index int, a model.Attribute) string {
	var row []string
	switch {
	case isInput && def.Input(index) != nil:
		row = model.InputGridRow(*def.Input(index))
	case !isInput && def.Output(index) != nil:
		row = model.OutputGridRow(*def.Output(index))
	default:
		return ""
	}
	return row[1+int(a)]
}
