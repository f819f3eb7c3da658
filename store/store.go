// Package store persists analyzed documents, their chunks, detected
// tables, and query history in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tbellem/finrep/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Document is a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentHash string `json:"content_hash"`
	PageCount   int    `json:"page_count"`
	Year        int    `json:"year,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// SectionRow is a stored financial summary section.
type SectionRow struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// QueryLog records one retrieval query.
type QueryLog struct {
	DocumentID int64    `json:"document_id"`
	Query      string   `json:"query"`
	TopK       int      `json:"top_k"`
	Matches    int      `json:"matches"`
	Citations  []string `json:"citations,omitempty"`
}

// Store wraps the SQLite database for all finrep persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close shuts down the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveAnalysis upserts the document row and replaces its chunks,
// sections, and detected tables in one transaction. Returns the
// document ID.
func (s *Store) SaveAnalysis(ctx context.Context, doc Document, pages []*model.Page, chunks []model.Chunk, sections []SectionRow) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var docID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO documents (path, filename, content_hash, page_count, year)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			page_count = excluded.page_count,
			year = excluded.year,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		doc.Path, doc.Filename, doc.ContentHash, doc.PageCount, doc.Year,
	).Scan(&docID)
	if err != nil {
		return 0, fmt.Errorf("upserting document: %w", err)
	}

	for _, table := range []string{"chunks", "report_sections", "detected_tables"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE document_id = ?", docID); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, page_index, chunk_index, content, metadata)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer chunkStmt.Close()
	for _, ch := range chunks {
		meta, err := json.Marshal(ch.Meta)
		if err != nil {
			return 0, fmt.Errorf("encoding chunk metadata: %w", err)
		}
		if _, err := chunkStmt.ExecContext(ctx, docID, ch.PageIndex, ch.ChunkIndex, ch.Text, string(meta)); err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", ch.ChunkIndex, err)
		}
	}

	for _, sec := range sections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_sections (document_id, title, content) VALUES (?, ?, ?)`,
			docID, sec.Title, sec.Text); err != nil {
			return 0, fmt.Errorf("inserting section: %w", err)
		}
	}

	for _, page := range pages {
		for _, t := range page.Tables {
			rows, err := json.Marshal(t.Rows)
			if err != nil {
				return 0, fmt.Errorf("encoding table rows: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO detected_tables (document_id, page_index, x0, y0, x1, y1, rows)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				docID, page.Index, t.X0, t.Y0, t.X1, t.Y1, string(rows)); err != nil {
				return 0, fmt.Errorf("inserting table: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return docID, nil
}

// GetDocumentByPath returns the document row for a path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (Document, error) {
	return s.scanDocument(s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, content_hash, page_count, COALESCE(year, 0), created_at, updated_at
		FROM documents WHERE path = ?`, path))
}

// GetDocument returns the document row for an ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (Document, error) {
	return s.scanDocument(s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, content_hash, page_count, COALESCE(year, 0), created_at, updated_at
		FROM documents WHERE id = ?`, id))
}

func (s *Store) scanDocument(row *sql.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Path, &d.Filename, &d.ContentHash, &d.PageCount, &d.Year, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, filename, content_hash, page_count, COALESCE(year, 0), created_at, updated_at
		FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Path, &d.Filename, &d.ContentHash, &d.PageCount, &d.Year, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// LoadChunks returns a document's chunks in emission order, ready for
// index rebuilding.
func (s *Store) LoadChunks(ctx context.Context, documentID int64) ([]model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT page_index, chunk_index, content, metadata
		FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var ch model.Chunk
		var meta string
		if err := rows.Scan(&ch.PageIndex, &ch.ChunkIndex, &ch.Text, &meta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &ch.Meta); err != nil {
			return nil, fmt.Errorf("decoding chunk metadata: %w", err)
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// LoadSections returns a document's financial summary sections.
func (s *Store) LoadSections(ctx context.Context, documentID int64) ([]SectionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, content FROM report_sections WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []SectionRow
	for rows.Next() {
		var sec SectionRow
		if err := rows.Scan(&sec.Title, &sec.Text); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

// DeleteDocument removes a document and all associated data.
func (s *Store) DeleteDocument(ctx context.Context, documentID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LogQuery records a retrieval query. Logging failures are not fatal to
// the caller, so the error is best-effort informational.
func (s *Store) LogQuery(ctx context.Context, q QueryLog) error {
	citations, err := json.Marshal(q.Citations)
	if err != nil {
		citations = []byte("[]")
	}
	var docID any
	if q.DocumentID > 0 {
		docID = q.DocumentID
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_log (document_id, query, top_k, matches, citations)
		VALUES (?, ?, ?, ?, ?)`,
		docID, q.Query, q.TopK, q.Matches, string(citations))
	return err
}
