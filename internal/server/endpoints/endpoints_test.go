package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/config"
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/epub"
	"github.com/jackzampolin/quire/internal/mobi"
	"github.com/jackzampolin/quire/internal/svcctx"
	"github.com/jackzampolin/quire/internal/types"
)

// newTestHandler serves every endpoint with services injected the way the
// server does it.
func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	converter, err := convert.New(convert.Options{PDFBackend: cfg.PDF.Backend, Reflow: cfg.Reflow, Logger: logger})
	if err != nil {
		t.Fatalf("convert.New failed: %v", err)
	}
	services := &svcctx.Services{Converter: converter, Config: cfg, Logger: logger}

	reg := api.NewRegistry()
	for _, ep := range All() {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestHandler(t, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, url, filename string, data []byte, fields map[string]string) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, filename, data, fields)
	resp, err := http.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e.Error
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/health", "/ready"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			if err != nil {
				t.Fatalf("GET %s: %v", path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			var health HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if health.Status != "ok" {
				t.Errorf("status = %q, want ok", health.Status)
			}
		})
	}
}

func TestReady_NotInitialized(t *testing.T) {
	rec := httptest.NewRecorder()
	(&ReadyEndpoint{}).handler(rec, httptest.NewRequest("GET", "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestFormats(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/formats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var formats FormatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&formats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(formats.Inputs) != 3 || len(formats.Outputs) != 2 {
		t.Errorf("unexpected formats %+v", formats)
	}
	if formats.PDFBackend != "text-layer" {
		t.Errorf("expected configured backend, got %q", formats.PDFBackend)
	}
	if formats.Outputs[1].Extension != ".azw3" || formats.Outputs[1].MediaType != mobi.MediaType {
		t.Errorf("unexpected azw3 entry %+v", formats.Outputs[1])
	}
}

func TestConvert(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("epub", func(t *testing.T) {
		resp := post(t, srv.URL+"/api/convert", "My Book.html", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, decodeError(t, resp))
		}
		if ct := resp.Header.Get("Content-Type"); ct != epub.MediaType {
			t.Errorf("Content-Type = %q", ct)
		}
		_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
		if err != nil || params["filename"] != "My Book.epub" {
			t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
		}
		if resp.Header.Get(HeaderKind) != "html" {
			t.Errorf("kind header = %q", resp.Header.Get(HeaderKind))
		}

		data, _ := io.ReadAll(resp.Body)
		m, err := epub.Inspect(data)
		if err != nil {
			t.Fatalf("Inspect: %v", err)
		}
		if m.Title != "My Book" {
			t.Errorf("title = %q", m.Title)
		}
	})

	t.Run("azw3 with title", func(t *testing.T) {
		resp := post(t, srv.URL+"/api/convert", "blank.html", nil, map[string]string{
			"format": "mobi",
			"title":  "Given",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, decodeError(t, resp))
		}
		data, _ := io.ReadAll(resp.Body)
		if want := mobi.MinSize + len(mobi.WrapDocument("Given", "")); len(data) != want {
			t.Errorf("size = %d, want %d", len(data), want)
		}
		if resp.Header.Get(HeaderTitle) != "Given" {
			t.Errorf("title header = %q", resp.Header.Get(HeaderTitle))
		}
	})

	tests := []struct {
		name     string
		filename string
		data     []byte
		fields   map[string]string
		want     int
	}{
		{"no file", "", nil, nil, http.StatusBadRequest},
		{"unsupported input", "cover.png", []byte{0x89, 'P', 'N', 'G'}, nil, http.StatusUnsupportedMediaType},
		{"unsupported output", "a.html", nil, map[string]string{"format": "pdf"}, http.StatusUnsupportedMediaType},
		{"corrupt docx", "a.docx", []byte("not a zip"), nil, http.StatusUnprocessableEntity},
		{"corrupt pdf", "a.pdf", []byte("%PDF-garbage"), nil, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/convert", tt.filename, tt.data, tt.fields)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if msg := decodeError(t, resp); msg == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestConvert_UploadLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxUploadMB = 1
	handler := newTestHandler(t, cfg)

	body, contentType := multipartBody(t, "big.html", bytes.Repeat([]byte("a"), 2<<20), nil)
	req := httptest.NewRequest("POST", "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Preview.Sanitize = true
	srv := newTestServer(t, cfg)
	src := []byte(`<h1>Intro</h1><p onclick="x()">Hello <b>there</b></p>`)

	t.Run("config defaults", func(t *testing.T) {
		resp := post(t, srv.URL+"/api/preview", "notes.html", src, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var p convert.Preview
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Format != convert.PreviewHTML || strings.Contains(p.Content, "onclick") {
			t.Errorf("expected sanitized html, got %s %q", p.Format, p.Content)
		}
		if p.Title != "notes" {
			t.Errorf("title = %q", p.Title)
		}
	})

	t.Run("form overrides", func(t *testing.T) {
		resp := post(t, srv.URL+"/api/preview", "notes.html", src, map[string]string{"markdown": "true", "sanitize": "false"})
		var p convert.Preview
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Format != convert.PreviewMarkdown || !strings.Contains(p.Content, "# Intro") {
			t.Errorf("expected markdown, got %s %q", p.Format, p.Content)
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		resp := post(t, srv.URL+"/api/preview", "notes.html", src, map[string]string{"markdown": "maybe"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestSwagger(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/swagger.json")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var doc struct {
		Swagger string         `json:"swagger"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("swagger.json is not valid JSON: %v", err)
	}
	for _, path := range []string{"/api/convert", "/api/preview", "/api/formats", "/health"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("missing path %s", path)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{types.ErrDecodeFailure, http.StatusUnprocessableEntity},
		{types.ErrExtractorUnavailable, http.StatusServiceUnavailable},
		{types.ErrPackagingUnavailable, http.StatusServiceUnavailable},
		{types.ErrPackagingFailure, http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	srv := newTestServer(t, nil)
	getURL := func() string { return srv.URL }
	dir := t.TempDir()

	src := filepath.Join(dir, "chapter.html")
	if err := os.WriteFile(src, []byte("<title>Chapter One</title><p>x</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("convert", func(t *testing.T) {
		out := filepath.Join(dir, "out.azw3")
		cmd := (&ConvertEndpoint{}).Command(getURL)
		cmd.SetArgs([]string{src, "--format", "azw3", "--out", out})
		cmd.SetOut(io.Discard)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("convert command: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		f, err := mobi.Decode(data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if f.Name != "Chapter One" {
			t.Errorf("PDB name = %q", f.Name)
		}
	})

	t.Run("convert missing file", func(t *testing.T) {
		cmd := (&ConvertEndpoint{}).Command(getURL)
		cmd.SetArgs([]string{filepath.Join(dir, "missing.pdf")})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing input")
		}
	})

	t.Run("swagger to file", func(t *testing.T) {
		out := filepath.Join(dir, "swagger.json")
		cmd := (&SwaggerEndpoint{}).Command(getURL)
		cmd.SetArgs([]string{"--file", out})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("swagger command: %v", err)
		}
		data, _ := os.ReadFile(out)
		if !json.Valid(data) {
			t.Error("expected valid JSON spec")
		}
	})
}
