package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/modelcsv/internal/codec"
	"github.com/JonMunkholm/modelcsv/internal/model"
)

const sampleFile = `NumInputs;2
NumOutputs;1
ElementTypes;Input;Input;Output
ElementIndices;0;1;0
Names;x1;x2;y1
MinimalValues;0;0;-1
MaximalValues;1;1;1
Data
;0.5;0.25;0.1
;1;0;-1
`

// memStore is an in-memory DocumentStore.
type memStore struct {
	mu        sync.Mutex
	docs      map[string]*Document
	createErr error
	schema    bool
	audit     []AuditEntry
	auditErr  error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*Document)}
}

func (m *memStore) EnsureSchema(ctx context.Context) error {
	m.schema = true
	return nil
}

func (m *memStore) Create(ctx context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.ID] = &Document{
		ID:         doc.ID,
		Name:       doc.Name,
		Source:     doc.Source,
		CreatedAt:  doc.CreatedAt,
		Definition: doc.Definition.Clone(),
		Data:       doc.Data.Clone(),
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	c := *doc
	c.Definition = doc.Definition.Clone()
	c.Data = doc.Data.Clone()
	return &c, nil
}

func (m *memStore) List(ctx context.Context) ([]DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var infos []DocumentInfo
	for _, doc := range m.docs {
		infos = append(infos, doc.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memStore) SaveElement(ctx context.Context, id string, isInput bool, e model.InputElement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	if isInput {
		doc.Definition.Inputs[e.Index] = e
	} else {
		doc.Definition.Outputs[e.Index] = model.OutputElement{Element: e.Element}
	}
	return nil
}

func (m *memStore) LogAudit(ctx context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audit = append(m.audit, *e)
	return nil
}

func (m *memStore) ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.DocumentID != "" && e.DocumentID != f.DocumentID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if e.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) PruneAudit(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []AuditEntry
	var n int64
	for _, e := range m.audit {
		if e.CreatedAt.Before(cutoff) && n < int64(batchSize) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.audit = kept
	return n, nil
}

func newTestService(t *testing.T, store DocumentStore, cfg ServiceConfig) *Service {
	t.Helper()
	cfg.Codec = codec.DefaultOptions()
	cfg.Codec.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Separator == 0 {
		cfg.Separator = ';'
	}
	svc, err := NewService(store, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// ----------------------------------------------------------------------------
// Parse Tests
// ----------------------------------------------------------------------------

func TestService_Parse(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})

	doc, err := svc.Parse(context.Background(), strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Definition.InputLength(); got != 2 {
		t.Errorf("inputs = %d, want 2", got)
	}
	if got := doc.Definition.OutputLength(); got != 1 {
		t.Errorf("outputs = %d, want 1", got)
	}
	if got := doc.Definition.Outputs[0].Name; got != "y1" {
		t.Errorf("output name = %q, want y1", got)
	}
	if !doc.Definition.Outputs[0].BoundsDefined || doc.Definition.Outputs[0].Min != -1 {
		t.Errorf("output bounds = %+v", doc.Definition.Outputs[0].Element)
	}
	if got := doc.Data.Len(); got != 2 {
		t.Fatalf("samples = %d, want 2", got)
	}
	if got := doc.Data.Records[1].Outputs[0]; got != -1 {
		t.Errorf("second output = %v, want -1", got)
	}
}

func TestService_ParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    io.Reader
		maxSize  int64
		wantErr  error
		wantCode string
	}{
		{
			name:     "nil reader",
			input:    nil,
			wantErr:  ErrNoFile,
			wantCode: "FILE004",
		},
		{
			name:     "empty file",
			input:    strings.NewReader(""),
			wantErr:  ErrEmptyFile,
			wantCode: "FILE005",
		},
		{
			name:     "blank rows only",
			input:    strings.NewReader(";;\n;\n"),
			wantErr:  ErrEmptyFile,
			wantCode: "FILE005",
		},
		{
			name:     "too large",
			input:    strings.NewReader(sampleFile),
			maxSize:  16,
			wantErr:  ErrFileTooLarge,
			wantCode: "FILE001",
		},
		{
			name:     "structural",
			input:    strings.NewReader("NumInputs;2\nNumInputs;3\n"),
			wantErr:  codec.ErrStructural,
			wantCode: "STR001",
		},
		{
			name:     "unresolvable",
			input:    strings.NewReader("Names;a;b\nData\n;1;2\n"),
			wantErr:  codec.ErrResolution,
			wantCode: "RES001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMemStore(), ServiceConfig{MaxFileSize: tt.maxSize})

			_, err := svc.Parse(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse error = %v, want %v", err, tt.wantErr)
			}
			if got := MapError(err).Code; got != tt.wantCode {
				t.Errorf("MapError code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestService_ParseCancelled(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Parse(ctx, strings.NewReader(sampleFile))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Parse error = %v, want context.Canceled", err)
	}
}

// ----------------------------------------------------------------------------
// Import Tests
// ----------------------------------------------------------------------------

func TestService_Import(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, ServiceConfig{})

	ctx := ContextWithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.1", UserAgent: "curl"})
	info, err := svc.Import(ctx, "plant", strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if info.ID == "" {
		t.Error("Import returned an empty ID")
	}
	if info.Name != "plant" || info.Inputs != 2 || info.Outputs != 1 || info.Samples != 2 {
		t.Errorf("info = %+v", info)
	}
	if info.Source != "10.0.0.1 (curl)" {
		t.Errorf("source = %q", info.Source)
	}
	if time.Since(info.CreatedAt) > time.Minute {
		t.Errorf("createdAt = %v", info.CreatedAt)
	}

	stored, err := svc.Get(context.Background(), info.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Data.Len() != 2 {
		t.Errorf("stored samples = %d, want 2", stored.Data.Len())
	}
	if got := svc.Limiter().ActiveCount(); got != 0 {
		t.Errorf("limiter still holds %d slots", got)
	}
}

func TestService_ImportStoreFailure(t *testing.T) {
	store := newMemStore()
	store.createErr = errors.New("dial tcp 127.0.0.1:5432: connection refused")
	svc := newTestService(t, store, ServiceConfig{})

	_, err := svc.Import(context.Background(), "plant", strings.NewReader(sampleFile))
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := MapError(err).Code; got != "DB004" {
		t.Errorf("code = %q, want DB004", got)
	}
}

func TestService_ImportBusy(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{MaxConcurrent: 1, MaxWaitTime: 20 * time.Millisecond})
	if !svc.Limiter().TryAcquire() {
		t.Fatal("could not occupy the only slot")
	}
	defer svc.Limiter().Release()

	_, err := svc.Import(context.Background(), "plant", strings.NewReader(sampleFile))
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Import error = %v, want ErrTooManyImports", err)
	}
}

func TestImportError(t *testing.T) {
	base := errors.New("copy samples: broken pipe")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := importError(ctx, base); !errors.Is(err, ErrImportCancelled) {
		t.Errorf("cancelled: got %v", err)
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if err := importError(ctx, base); !errors.Is(err, ErrImportTimeout) {
		t.Errorf("deadline: got %v", err)
	}

	if err := importError(context.Background(), base); err != base {
		t.Errorf("live context: got %v, want the original error", err)
	}
}

// ----------------------------------------------------------------------------
// Query, Export and Edit Tests
// ----------------------------------------------------------------------------

func importSample(t *testing.T, svc *Service) string {
	t.Helper()
	info, err := svc.Import(context.Background(), "plant", strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return info.ID
}

func TestService_ListAndDelete(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	id := importSample(t, svc)

	infos, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != id {
		t.Fatalf("List = %+v", infos)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), id); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Get after Delete = %v, want ErrDocumentNotFound", err)
	}
	if err := svc.Delete(context.Background(), id); MapError(err).Code != "DOC001" {
		t.Errorf("second Delete code = %q, want DOC001", MapError(err).Code)
	}
}

func TestService_ExportCSVRoundTrip(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	id := importSample(t, svc)

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), id, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "Names;x1;x2;y1") {
		t.Errorf("export lacks the names row:\n%s", buf.String())
	}

	again, err := svc.Parse(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Parse exported file: %v", err)
	}
	orig, _ := svc.Get(context.Background(), id)
	if again.Data.Len() != orig.Data.Len() {
		t.Fatalf("samples = %d, want %d", again.Data.Len(), orig.Data.Len())
	}
	for i := range orig.Data.Records {
		a, b := orig.Data.Records[i], again.Data.Records[i]
		for j := range a.Inputs {
			if a.Inputs[j] != b.Inputs[j] {
				t.Errorf("record %d input %d = %v, want %v", i, j, b.Inputs[j], a.Inputs[j])
			}
		}
	}
}

func TestService_ExportArrow(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	id := importSample(t, svc)

	var buf bytes.Buffer
	if err := svc.ExportArrow(context.Background(), id, &buf); err != nil {
		t.Fatalf("ExportArrow: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("ExportArrow wrote nothing")
	}

	if err := svc.ExportArrow(context.Background(), "missing", io.Discard); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("missing document: got %v", err)
	}
}

func TestService_UpdateElement(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, ServiceConfig{})
	id := importSample(t, svc)
	ctx := context.Background()

	doc, err := svc.UpdateElement(ctx, id, true, 1, "DefaultValue", "0.75")
	if err != nil {
		t.Fatalf("UpdateElement: %v", err)
	}
	if in := doc.Definition.Inputs[1]; !in.DefaultValueDefined || in.DefaultValue != 0.75 {
		t.Errorf("returned element = %+v", in)
	}

	stored, _ := svc.Get(ctx, id)
	if in := stored.Definition.Inputs[1]; !in.DefaultValueDefined || in.DefaultValue != 0.75 {
		t.Errorf("stored element = %+v", in)
	}

	if _, err := svc.UpdateElement(ctx, id, false, 0, "Title", "Yield"); err != nil {
		t.Fatalf("UpdateElement output: %v", err)
	}
	stored, _ = svc.Get(ctx, id)
	if got := stored.Definition.Outputs[0].Title; got != "Yield" {
		t.Errorf("output title = %q, want Yield", got)
	}
}

func TestService_UpdateElementErrors(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	id := importSample(t, svc)

	tests := []struct {
		name     string
		id       string
		isInput  bool
		index    int
		attr     string
		text     string
		wantCode string
	}{
		{name: "unknown attribute", id: id, isInput: true, attr: "Colour", text: "red", wantCode: "MDL001"},
		{name: "input only on output", id: id, isInput: false, attr: "DefaultValue", text: "1", wantCode: "MDL002"},
		{name: "no such element", id: id, isInput: true, index: 9, attr: "Name", text: "z", wantCode: "MDL003"},
		{name: "not a number", id: id, isInput: true, attr: "Min", text: "low", wantCode: "MDL004"},
		{name: "missing document", id: "nope", isInput: true, attr: "Name", text: "z", wantCode: "DOC001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateElement(context.Background(), tt.id, tt.isInput, tt.index, tt.attr, tt.text)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := MapError(err).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestNewService_InvalidSeparator(t *testing.T) {
	if _, err := NewService(newMemStore(), ServiceConfig{Separator: '"'}); err == nil {
		t.Error("expected an error for a quote separator")
	}
}

func TestService_EnsureSchema(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, ServiceConfig{})
	if err := svc.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !store.schema {
		t.Error("store schema not created")
	}
}

func TestDocumentView(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceConfig{})
	doc, err := svc.Parse(context.Background(), strings.NewReader(sampleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	v := doc.View()
	if len(v.Elements) != 3 {
		t.Fatalf("elements = %d, want 3", len(v.Elements))
	}
	out := v.Elements[2]
	if out.Role != RoleOutput || out.Values["Name"] != "y1" || out.Values["Min"] != "-1" {
		t.Errorf("output view = %+v", out)
	}
	if _, ok := out.Values["DefaultValue"]; ok {
		t.Error("empty facets should be omitted")
	}
	if len(v.Records) != 2 || *v.Records[0].Inputs[0] != 0.5 {
		t.Errorf("records = %+v", v.Records)
	}
}
