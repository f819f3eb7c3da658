package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tbellem/finrep"
	"github.com/tbellem/finrep/retrieval"
	"github.com/tbellem/finrep/store"
)

// maxUploadBytes bounds the size of a single uploaded document.
const maxUploadBytes = 64 << 20

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if len(data) > maxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", maxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	tmp, err := os.CreateTemp("", "finrep-*"+filepath.Ext(filename))
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	tmp.Close()

	report, err := s.analyzer.AnalyzeFile(r.Context(), tmp.Name())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, finrep.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		jsonError(w, err.Error(), status)
		return
	}

	hash := sha256.Sum256(data)
	sections := make([]store.SectionRow, len(report.Sections))
	for i, sec := range report.Sections {
		sections[i] = store.SectionRow{Title: sec.Title, Text: sec.Text}
	}
	docID, err := s.store.SaveAnalysis(r.Context(), store.Document{
		Path:        filename,
		Filename:    filename,
		ContentHash: hex.EncodeToString(hash[:]),
		PageCount:   len(report.Pages),
		Year:        report.Metadata.Year,
	}, report.Pages, report.Chunks, sections)
	if err != nil {
		jsonError(w, "failed to persist analysis: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": docID,
		"filename":    filename,
		"pages":       len(report.Pages),
		"chunks":      len(report.Chunks),
		"sections":    len(report.Sections),
		"year":        report.Metadata.Year,
	})
}

type queryRequest struct {
	DocumentID int64  `json:"document_id"`
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	Answer     bool   `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if _, err := s.store.GetDocument(r.Context(), req.DocumentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chunks, err := s.store.LoadChunks(r.Context(), req.DocumentID)
	if err != nil {
		jsonError(w, "failed to load chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	engine := s.analyzer.QueryEngineChunks(chunks)

	if req.Answer {
		answer, err := engine.Answer(r.Context(), req.Query, req.TopK)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		s.logQuery(r, req, len(answer.Matches), answer.Citations)
		writeJSON(w, http.StatusOK, answer)
		return
	}

	matches := engine.Retrieve(req.Query, req.TopK)
	citations := retrieval.Citations(matches)
	s.logQuery(r, req, len(matches), citations)
	writeJSON(w, http.StatusOK, map[string]any{
		"matches":   matches,
		"citations": citations,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "docID"), 10, 64)
	if err != nil {
		jsonError(w, "invalid document id", http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) logQuery(r *http.Request, req queryRequest, matches int, citations []string) {
	if err := s.store.LogQuery(r.Context(), store.QueryLog{
		DocumentID: req.DocumentID,
		Query:      req.Query,
		TopK:       req.TopK,
		Matches:    matches,
		Citations:  citations,
	}); err != nil {
		s.log.Warn("query log write failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename strips any path components from an uploaded filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}
