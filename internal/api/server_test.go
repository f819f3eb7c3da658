package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tbellem/finrep"
	"github.com/tbellem/finrep/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "finrep.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(finrep.NewAnalyzer(finrep.DefaultConfig()), st, log)
}

func uploadReport(t *testing.T, srv *Server, filename, content string) int64 {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("analyze returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		DocumentID int64 `json:"document_id"`
		Chunks     int   `json:"chunks"`
		Year       int   `json:"year"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Chunks == 0 {
		t.Fatal("analyze produced no chunks")
	}
	return resp.DocumentID
}

const sampleReport = `ANNUAL REPORT 2024

Total assets increased to 123.456,78 during the year.
Shareholder equity remained stable across the period.

Dividends per share were raised, see Figure 3.
`

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health body = %s", rec.Body.String())
	}
}

func TestAnalyzeAndQuery(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadReport(t, srv, "annual.txt", sampleReport)

	body, _ := json.Marshal(map[string]any{
		"document_id": docID,
		"query":       "shareholder equity",
		"top_k":       3,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("query returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Matches []struct {
			Chunk struct {
				Text string `json:"text"`
			} `json:"chunk"`
		} `json:"matches"`
		Citations []string `json:"citations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) == 0 {
		t.Fatal("query found no matches")
	}
	if !strings.Contains(resp.Matches[0].Chunk.Text, "equity") {
		t.Errorf("top match = %q", resp.Matches[0].Chunk.Text)
	}
	if len(resp.Citations) == 0 {
		t.Error("expected citations")
	}
}

func TestAnalyzeRejectsUnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "report.docx")
	fw.Write([]byte("irrelevant"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("analyze returned %d, want 400", rec.Code)
	}
}

func TestQueryMissingDocument(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"document_id": 42, "query": "revenue"})
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("query returned %d, want 404", rec.Code)
	}
}

func TestListAndDeleteDocuments(t *testing.T) {
	srv := newTestServer(t)
	docID := uploadReport(t, srv, "annual.txt", sampleReport)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "annual.txt") {
		t.Errorf("list body = %s", rec.Body.String())
	}

	target := "/api/documents/" + strconv.FormatInt(docID, 10)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete returned %d, want 404", rec.Code)
	}
}
