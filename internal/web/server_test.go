package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/modelcsv/internal/codec"
	"github.com/JonMunkholm/modelcsv/internal/config"
	"github.com/JonMunkholm/modelcsv/internal/core"
	"github.com/JonMunkholm/modelcsv/internal/model"
)

// ----------------------------------------------------------------------------
// Fake service
// ----------------------------------------------------------------------------

type fakeService struct {
	mu         sync.Mutex
	docs       map[string]*core.Document
	parseErr   error
	importErr  error
	imported   []string
	sources    []string
	limiter    *core.ImportLimiter
	audit      []core.AuditEntry
	lastFilter core.AuditFilter
}

func newFakeService() *fakeService {
	return &fakeService{
		docs:    map[string]*core.Document{"doc-1": testDocument("doc-1", "wing.csv")},
		limiter: core.NewImportLimiter(2, time.Second),
	}
}

func testDocument(id, name string) *core.Document {
	def, _ := model.NewDataDefinition(2, 1)
	def.Inputs[0].Name = "alpha"
	def.Inputs[0].SetBounds(0, 1)
	set := model.NewSampledDataSet(2, 1)
	_ = set.Append(model.SampleRecord{Inputs: []float64{0.5, 0.25}, Outputs: []float64{0.1}})
	return &core.Document{
		ID:         id,
		Name:       name,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Definition: def,
		Data:       set,
	}
}

func (f *fakeService) Parse(ctx context.Context, r io.Reader) (*core.Document, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return testDocument("", ""), nil
}

func (f *fakeService) Import(ctx context.Context, name string, r io.Reader) (*core.DocumentInfo, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if f.importErr != nil {
		return nil, f.importErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("doc-%d", len(f.docs)+1)
	doc := testDocument(id, name)
	f.docs[id] = doc
	f.imported = append(f.imported, name)
	f.sources = append(f.sources, core.RequestMetaFromContext(ctx).Source())
	info := doc.Info()
	return &info, nil
}

func (f *fakeService) Get(ctx context.Context, id string) (*core.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, core.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeService) List(ctx context.Context) ([]core.DocumentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.DocumentInfo
	for _, d := range f.docs {
		out = append(out, d.Info())
	}
	return out, nil
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return core.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeService) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	doc, err := f.Get(ctx, id)
	if err != nil {
		return err
	}
	return codec.EncodeCSV(w, ',', doc.Definition, doc.Data, codec.DefaultOptions())
}

func (f *fakeService) ExportArrow(ctx context.Context, id string, w io.Writer) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	_, err := w.Write([]byte("ARROW1"))
	return err
}

func (f *fakeService) UpdateElement(ctx context.Context, id string, isInput bool, index int, attr, text string) (*core.Document, error) {
	a, err := model.ParseAttribute(attr)
	if err != nil {
		return nil, err
	}
	doc, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := doc.Definition.SetAttribute(isInput, index, a, text); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *fakeService) AuditLog(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	return f.audit, nil
}

func (f *fakeService) Limiter() *core.ImportLimiter { return f.limiter }

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
	}
}

func newTestServer(t *testing.T, svc DatasetService, cfg *config.Config) http.Handler {
	t.Helper()
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s.Router()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, name, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

// ----------------------------------------------------------------------------
// Pages
// ----------------------------------------------------------------------------

func TestIndexPage(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"wing.csv", `href="/documents/doc-1"`, `enctype="multipart/form-data"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestDocumentPage(t *testing.T) {
	svc := newFakeService()
	svc.docs["doc-1"].Name = "<script>"
	h := newTestServer(t, svc, testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("document name was not escaped")
	}
	for _, want := range []string{"alpha", "x2", "y1", "0.25", "/api/documents/doc-1/csv"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestDocumentPageNotFound(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/documents/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DOC001") {
		t.Errorf("HTML error missing code: %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp struct {
		Status  string                   `json:"status"`
		Imports core.ImportLimiterStatus `json:"imports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Imports.MaxConcurrent != 2 || resp.Imports.Available != 2 {
		t.Errorf("health = %+v", resp)
	}
}

// ----------------------------------------------------------------------------
// Import and parse
// ----------------------------------------------------------------------------

func TestImportMultipart(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc, testConfig())

	body, ct := multipartUpload(t, "", "dir/model.csv", "Data\n;1;2")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("User-Agent", "curl")
	req.RemoteAddr = "10.0.0.9:5555"
	rec := do(h, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var info core.DocumentInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Name != "model.csv" {
		t.Errorf("name = %q, want model.csv", info.Name)
	}
	if rec.Header().Get("Location") != "/api/documents/"+info.ID {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}
	if svc.sources[0] != "10.0.0.9:5555 (curl)" {
		t.Errorf("source = %q", svc.sources[0])
	}
}

func TestImportRawBody(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/documents?name=raw.csv", strings.NewReader("Data\n;1"))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(h, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.imported[0] != "raw.csv" {
		t.Errorf("name = %q", svc.imported[0])
	}
}

func TestImportFromBrowserRedirects(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	body, ct := multipartUpload(t, "Wing model", "m.csv", "Data\n;1")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := do(h, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "/documents/doc-") {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		importErr  error
		noFile     bool
		bodySize   int
		wantStatus int
		wantCode   string
	}{
		{"missing file", nil, true, 0, http.StatusBadRequest, "FILE004"},
		{"structural", &codec.StructuralError{Row: 3, Column: 1, Msg: "bad"}, false, 0, http.StatusBadRequest, "STR001"},
		{"busy", core.ErrTooManyImports, false, 0, http.StatusServiceUnavailable, "IMP001"},
		{"timeout", core.ErrImportTimeout, false, 0, http.StatusRequestTimeout, "IMP003"},
		{"too large", nil, false, 2<<20 + 9<<20, http.StatusRequestEntityTooLarge, "FILE001"},
		{"database down", errors.New("dial: connection refused"), false, 0, http.StatusInternalServerError, "DB004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.importErr = tt.importErr
			h := newTestServer(t, svc, testConfig())

			filename := "m.csv"
			if tt.noFile {
				filename = ""
			}
			content := "Data\n;1"
			if tt.bodySize > 0 {
				content = strings.Repeat("1", tt.bodySize)
			}
			body, ct := multipartUpload(t, "n", filename, content)
			req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
			req.Header.Set("Content-Type", ct)
			rec := do(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestImportBusySetsRetryAfter(t *testing.T) {
	svc := newFakeService()
	svc.importErr = core.ErrTooManyImports
	h := newTestServer(t, svc, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("x"))
	rec := do(h, req)

	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

func TestParse(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("Data\n;1"))
	rec := do(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view core.DocumentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Inputs != 2 || view.Outputs != 1 || len(view.Records) != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestParseErrorDetail(t *testing.T) {
	svc := newFakeService()
	svc.parseErr = &codec.ResolutionError{Row: 4, Msg: "no names"}
	h := newTestServer(t, svc, testConfig())

	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("x")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Code != "RES001" || !strings.Contains(resp.Detail, "row 5") {
		t.Errorf("error = %+v", resp)
	}
}

// ----------------------------------------------------------------------------
// Documents
// ----------------------------------------------------------------------------

func TestListGetDelete(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var list []core.DocumentInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "doc-1" || list[0].Samples != 1 {
		t.Fatalf("list = %+v", list)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil))
	var view core.DocumentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Elements) != 3 || view.Elements[0].Values["Name"] != "alpha" {
		t.Errorf("elements = %+v", view.Elements)
	}

	rec = do(h, httptest.NewRequest(http.MethodDelete, "/api/documents/doc-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/documents/doc-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q", rec.Body.String())
	}
}

func TestExports(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "alpha") {
		t.Errorf("csv body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="wing.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/arrow", nil))
	if rec.Body.String() != "ARROW1" {
		t.Errorf("arrow body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="wing.arrow"` {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/documents/missing/csv", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing export status = %d", rec.Code)
	}
}

func TestUpdateElement(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"ok", "/api/documents/doc-1/elements/input/1/", `{"attribute":"Name","value":"beta"}`, http.StatusOK, ""},
		{"output alias", "/api/documents/doc-1/elements/out/0", `{"attribute":"Title","value":"Lift"}`, http.StatusOK, ""},
		{"bad role", "/api/documents/doc-1/elements/side/0", `{"attribute":"Name","value":"x"}`, http.StatusBadRequest, "REQ001"},
		{"bad index", "/api/documents/doc-1/elements/input/one", `{"attribute":"Name","value":"x"}`, http.StatusBadRequest, "REQ001"},
		{"bad body", "/api/documents/doc-1/elements/input/0", `{`, http.StatusBadRequest, "REQ001"},
		{"unknown field", "/api/documents/doc-1/elements/input/0", `{"attr":"Name"}`, http.StatusBadRequest, "REQ001"},
		{"missing attribute", "/api/documents/doc-1/elements/input/0", `{"value":"x"}`, http.StatusBadRequest, "REQ001"},
		{"unknown attribute", "/api/documents/doc-1/elements/input/0", `{"attribute":"Color","value":"x"}`, http.StatusBadRequest, "MDL001"},
		{"input only", "/api/documents/doc-1/elements/output/0", `{"attribute":"DefaultValue","value":"1"}`, http.StatusBadRequest, "MDL002"},
		{"no such element", "/api/documents/doc-1/elements/input/7", `{"attribute":"Name","value":"x"}`, http.StatusNotFound, "MDL003"},
		{"invalid value", "/api/documents/doc-1/elements/input/0", `{"attribute":"Min","value":"abc"}`, http.StatusBadRequest, "MDL004"},
		{"no such document", "/api/documents/zzz/elements/input/0", `{"attribute":"Name","value":"x"}`, http.StatusNotFound, "DOC001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, newFakeService(), testConfig())

			path := strings.TrimSuffix(tt.path, "/")
			req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := do(h, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := decodeError(t, rec).Code; got != tt.wantCode {
					t.Errorf("code = %q, want %q", got, tt.wantCode)
				}
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Cross-cutting
// ----------------------------------------------------------------------------

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	h := newTestServer(t, newFakeService(), cfg)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without key status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("X-API-Key", "k1")
	if rec := do(h, req); rec.Code != http.StatusOK {
		t.Errorf("with key status = %d", rec.Code)
	}

	if rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	h := newTestServer(t, newFakeService(), cfg)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", last.Header().Get("Retry-After"))
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: map[string]*visitor{},
		rate:     1,
		window:   time.Minute,
		now:      func() time.Time { return now },
		done:     make(chan struct{}),
	}

	if !rl.allow("a") {
		t.Fatal("first request denied")
	}
	if rl.allow("a") {
		t.Fatal("second request allowed")
	}
	if !rl.allow("b") {
		t.Fatal("other client denied")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Fatal("request after window denied")
	}

	now = now.Add(3 * time.Minute)
	rl.evict()
	if len(rl.visitors) != 0 {
		t.Errorf("%d visitors left after evict", len(rl.visitors))
	}
	rl.stop()
	rl.stop()
}

func TestStatusForCode(t *testing.T) {
	tests := map[string]int{
		"STR001":  http.StatusBadRequest,
		"RES001":  http.StatusBadRequest,
		"DQ001":   http.StatusBadRequest,
		"KEY001":  http.StatusBadRequest,
		"FILE002": http.StatusBadRequest,
		"FILE001": http.StatusRequestEntityTooLarge,
		"DOC001":  http.StatusNotFound,
		"MDL003":  http.StatusNotFound,
		"IMP001":  http.StatusServiceUnavailable,
		"IMP002":  499,
		"IMP003":  http.StatusRequestTimeout,
		"RATE001": http.StatusTooManyRequests,
		"DB004":   http.StatusInternalServerError,
		"ERR000":  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusForCode(code); got != want {
			t.Errorf("statusForCode(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestDownloadName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"wing.csv", "wing.arrow"},
		{"../etc/passwd", "passwd.arrow"},
		{"my model (v2).csv", "my_model__v2_.arrow"},
		{"", "document.arrow"},
	}
	for _, tt := range tests {
		if got := downloadName(tt.in, ".arrow"); got != tt.want {
			t.Errorf("downloadName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		htmx   bool
		want   bool
	}{
		{"api default", "/api/documents", "", false, true},
		{"api from browser", "/api/documents", "text/html", false, false},
		{"htmx", "/api/documents", "", true, false},
		{"page", "/documents/x", "", false, false},
		{"page asking json", "/documents/x", "application/json", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if tt.htmx {
				r.Header.Set("HX-Request", "true")
			}
			if got := wantsJSON(r); got != tt.want {
				t.Errorf("wantsJSON = %v, want %v", got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Audit
// ----------------------------------------------------------------------------

func TestAudit(t *testing.T) {
	svc := newFakeService()
	svc.audit = []core.AuditEntry{{ID: "a1", Action: core.ActionImport, DocumentID: "doc-1"}}
	h := newTestServer(t, svc, testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet,
		"/api/audit?document=doc-1&action=import&since=2024-01-02T03:04:05Z&limit=5&offset=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var entries []core.AuditEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "a1" {
		t.Errorf("entries = %+v", entries)
	}

	f := svc.lastFilter
	wantSince := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if f.DocumentID != "doc-1" || f.Action != core.ActionImport || !f.Since.Equal(wantSince) || f.Limit != 5 || f.Offset != 10 {
		t.Errorf("filter = %+v", f)
	}
}

func TestDocumentAudit(t *testing.T) {
	svc := newFakeService()
	h := newTestServer(t, svc, testConfig())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/documents/doc-1/audit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if svc.lastFilter.DocumentID != "doc-1" {
		t.Errorf("document filter = %q", svc.lastFilter.DocumentID)
	}
}

func TestAuditBadParams(t *testing.T) {
	h := newTestServer(t, newFakeService(), testConfig())

	for _, q := range []string{"action=upload", "since=yesterday", "limit=-1", "offset=x"} {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/audit?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}
