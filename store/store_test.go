package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tbellem/finrep/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "finrep.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleChunks() []model.Chunk {
	return []model.Chunk{
		{
			PageIndex: 0, ChunkIndex: 0,
			Text: "Total assets grew",
			Meta: model.ChunkMeta{ParagraphIndex: 0, PageNumber: 1, Section: "Highlights"},
		},
		{
			PageIndex: 1, ChunkIndex: 1,
			Text: "Dividends were raised, see Figure 3",
			Meta: model.ChunkMeta{ParagraphIndex: 2, PageNumber: 2, Section: "Returns", Figures: []string{"Figure 3"}},
		},
	}
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	pages := []*model.Page{
		{Index: 0, Width: 595, Height: 842, Tables: []model.Table{{
			Rect: model.Rect{X0: 0, Y0: 700, X1: 595, Y1: 715},
			Rows: [][]string{{"Total assets 123.456,78"}},
			Type: model.ElementTable,
		}}},
		{Index: 1, Width: 595, Height: 842},
	}
	doc := Document{
		Path:        "/reports/annual-2024.pdf",
		Filename:    "annual-2024.pdf",
		ContentHash: "abc123",
		PageCount:   2,
		Year:        2024,
	}
	sections := []SectionRow{{Title: "Financial Summary", Text: "Total assets grew"}}

	docID, err := st.SaveAnalysis(ctx, doc, pages, sampleChunks(), sections)
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if docID == 0 {
		t.Fatal("docID should be non-zero")
	}

	got, err := st.GetDocumentByPath(ctx, doc.Path)
	if err != nil {
		t.Fatalf("GetDocumentByPath: %v", err)
	}
	if got.Year != 2024 || got.PageCount != 2 || got.Filename != "annual-2024.pdf" {
		t.Errorf("document = %+v", got)
	}

	chunks, err := st.LoadChunks(ctx, docID)
	if err != nil {
		t.Fatalf("LoadChunks: %v", err)
	}
	if !reflect.DeepEqual(chunks, sampleChunks()) {
		t.Errorf("chunks round trip:\ngot  %+v\nwant %+v", chunks, sampleChunks())
	}

	secs, err := st.LoadSections(ctx, docID)
	if err != nil {
		t.Fatalf("LoadSections: %v", err)
	}
	if !reflect.DeepEqual(secs, sections) {
		t.Errorf("sections round trip: got %+v", secs)
	}
}

func TestSaveAnalysisReplacesOnConflict(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	doc := Document{Path: "/r.pdf", Filename: "r.pdf", ContentHash: "v1", PageCount: 1}
	id1, err := st.SaveAnalysis(ctx, doc, nil, sampleChunks(), nil)
	if err != nil {
		t.Fatal(err)
	}

	doc.ContentHash = "v2"
	onlyFirst := sampleChunks()[:1]
	id2, err := st.SaveAnalysis(ctx, doc, nil, onlyFirst, nil)
	if err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if id1 != id2 {
		t.Errorf("re-analysis created a new document: %d vs %d", id1, id2)
	}

	got, err := st.GetDocument(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContentHash != "v2" {
		t.Errorf("ContentHash = %q, want v2", got.ContentHash)
	}

	chunks, err := st.LoadChunks(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Errorf("stale chunks survived re-save: %d", len(chunks))
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetDocumentByPath(context.Background(), "/absent.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := st.GetDocument(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocuments(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/a.pdf", "/b.pdf"} {
		if _, err := st.SaveAnalysis(ctx, Document{Path: path, Filename: path[1:], ContentHash: "h"}, nil, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := st.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.SaveAnalysis(ctx, Document{Path: "/d.pdf", Filename: "d.pdf", ContentHash: "h"}, nil, sampleChunks(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteDocument(ctx, id); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	chunks, err := st.LoadChunks(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunks survived document deletion: %d", len(chunks))
	}
	if err := st.DeleteDocument(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLogQuery(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	id, err := st.SaveAnalysis(ctx, Document{Path: "/q.pdf", Filename: "q.pdf", ContentHash: "h"}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = st.LogQuery(ctx, QueryLog{
		DocumentID: id,
		Query:      "how did revenue develop",
		TopK:       3,
		Matches:    2,
		Citations:  []string{`Page 1, Section "Highlights"`},
	})
	if err != nil {
		t.Fatalf("LogQuery: %v", err)
	}
	// Queries without a document reference are still recorded.
	if err := st.LogQuery(ctx, QueryLog{Query: "orphan", TopK: 3}); err != nil {
		t.Fatalf("LogQuery without document: %v", err)
	}
}
