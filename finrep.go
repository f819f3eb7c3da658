// Package finrep reconstructs reading-ordered paragraphs from
// geometrically-located text fragments, detects table-like rows,
// segments pages into overlapping retrieval chunks with section and
// figure metadata, and serves keyword queries over a lexical index.
package finrep

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tbellem/finrep/chunker"
	"github.com/tbellem/finrep/layout"
	"github.com/tbellem/finrep/llm"
	"github.com/tbellem/finrep/model"
	"github.com/tbellem/finrep/parser"
	"github.com/tbellem/finrep/retrieval"
)

// Metadata holds document-level extracted metadata.
type Metadata struct {
	// Year is the first 4-digit number found anywhere in page text;
	// 0 when none was found.
	Year int `json:"year,omitempty"`
}

// Section is a keyword-matched financial summary passage.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// LLMResult is the tagged outcome of one per-paragraph LLM call:
// either Response carries the raw payload or Err the failure reason.
// One failed paragraph never aborts the rest of the document.
type LLMResult struct {
	PageIndex      int             `json:"page_index"`
	ParagraphIndex int             `json:"chunk_index"`
	Prompt         string          `json:"prompt"`
	Response       json.RawMessage `json:"response,omitempty"`
	Err            string          `json:"error,omitempty"`
}

// Failed reports whether the call ended in an error.
func (r LLMResult) Failed() bool { return r.Err != "" }

// Report is the document-level analysis result.
type Report struct {
	Metadata     Metadata      `json:"metadata"`
	Sections     []Section     `json:"sections"`
	Chunks       []model.Chunk `json:"text_chunks"`
	LLMResponses []LLMResult   `json:"llm_responses,omitempty"`
	Pages        []*model.Page `json:"-"`
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithGrouper substitutes the paragraph grouping strategy. The default
// is the y-gap heuristic; a column-aware strategy can be swapped in
// without touching callers.
func WithGrouper(g layout.Grouper) AnalyzerOption {
	return func(a *Analyzer) { a.grouper = g }
}

// WithLLMClient enables the per-paragraph LLM pass and question
// answering.
func WithLLMClient(c llm.Client) AnalyzerOption {
	return func(a *Analyzer) { a.client = c }
}

// Analyzer drives the page pipeline: table detection, paragraph
// reconstruction, section classification, and chunking. It holds no
// per-document state; every Analyze call works on its own local data.
type Analyzer struct {
	cfg     Config
	grouper layout.Grouper
	chunker *chunker.Chunker
	client  llm.Client
	parsers *parser.Registry
}

// NewAnalyzer creates an Analyzer from configuration.
func NewAnalyzer(cfg Config, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		cfg:     cfg,
		grouper: layout.NewYGapGrouper(cfg.LineBreakDistance),
		chunker: chunker.New(chunker.Config{
			SizeWords:       cfg.ChunkSizeWords,
			OverlapWords:    cfg.OverlapWords,
			MaxHeadingWords: cfg.MaxHeadingWords,
		}),
		parsers: parser.NewRegistry(),
	}
	a.parsers.Register(&parser.PDFParser{SpaceMaxDistance: cfg.SpaceMaxDistance})
	for _, o := range opts {
		o(a)
	}
	return a
}

var (
	yearPattern       = regexp.MustCompile(`\b\d{4}\b`)
	financialKeywords = regexp.MustCompile(`(?i)assets|liabilities|equity|profit|income|capital`)
)

// maxSectionChars caps the text stored for a financial summary section.
const maxSectionChars = 500

// Analyze runs the full pipeline over already-parsed pages, strictly in
// page, then paragraph, then window order. Pages are annotated in place
// with their tables and chunks; the report aggregates the document-level
// results.
func (a *Analyzer) Analyze(ctx context.Context, pages []*model.Page) *Report {
	start := time.Now()
	report := &Report{Pages: pages}

	next := 0
	for _, page := range pages {
		page.Tables = layout.DetectTables(page, layout.TableConfig{
			MinCols: a.cfg.MinTableCols,
			MinRows: a.cfg.MinTableRows,
		})

		paragraphs := a.grouper.Group(page.Elements)

		chunks, advanced := a.chunker.ChunkPage(paragraphs, page.Index, next)
		next = advanced
		page.Chunks = chunks
		report.Chunks = append(report.Chunks, chunks...)

		for _, para := range paragraphs {
			if financialKeywords.MatchString(para) {
				report.Sections = append(report.Sections, Section{
					Title: "Financial Summary",
					Text:  truncate(para, maxSectionChars),
				})
			}
		}

		if a.client != nil {
			report.LLMResponses = append(report.LLMResponses,
				a.analyzeParagraphs(ctx, page.Index, paragraphs)...)
		}
	}

	report.Metadata.Year = extractYear(pages)

	slog.Info("analyze: document complete",
		"pages", len(pages), "chunks", len(report.Chunks),
		"sections", len(report.Sections),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return report
}

// AnalyzeFile parses an input file with the registered page-layout
// parser for its extension, then analyzes the resulting pages.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	p, err := a.parsers.Get(ext)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	slog.Info("analyze: parsing input", "file", filepath.Base(path), "format", ext)
	pages, err := p.Parse(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return a.Analyze(ctx, pages), nil
}

// Ask answers a free-text question about an analyzed report: retrieve
// the best chunks, delegate completion to the LLM client, and return
// the answer with citations. topK <= 0 uses the configured default.
func (a *Analyzer) Ask(ctx context.Context, report *Report, question string, topK int) (*retrieval.Answer, error) {
	if a.client == nil {
		return nil, ErrNoClient
	}
	answer, err := a.QueryEngine(report).Answer(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
	}
	return answer, nil
}

// QueryEngine builds a retrieval engine over a report's chunks. The
// engine answers questions when the analyzer has an LLM client; plain
// Retrieve works either way.
func (a *Analyzer) QueryEngine(report *Report) *retrieval.Engine {
	return a.QueryEngineChunks(report.Chunks)
}

// QueryEngineChunks builds a retrieval engine over an arbitrary chunk
// list, such as chunks reloaded from the store.
func (a *Analyzer) QueryEngineChunks(chunks []model.Chunk) *retrieval.Engine {
	index := retrieval.NewIndex(chunks)
	return retrieval.New(index, a.client, retrieval.Config{
		TopK:  a.cfg.TopK,
		Model: a.cfg.LLM.Model,
	})
}

// analyzeParagraphs sends each paragraph to the LLM client, recording a
// tagged outcome per paragraph.
func (a *Analyzer) analyzeParagraphs(ctx context.Context, pageIndex int, paragraphs []string) []LLMResult {
	results := make([]LLMResult, 0, len(paragraphs))
	for pi, para := range paragraphs {
		result := LLMResult{
			PageIndex:      pageIndex,
			ParagraphIndex: pi,
			Prompt:         para,
		}
		response, err := a.client.Complete(ctx, para, llm.Options{Model: a.cfg.LLM.Model})
		if err != nil {
			slog.Warn("analyze: paragraph LLM call failed",
				"page", pageIndex, "paragraph", pi, "error", err)
			result.Err = err.Error()
		} else {
			result.Response = response
		}
		results = append(results, result)
	}
	return results
}

// extractYear returns the first 4-digit number in the concatenated page
// text, or 0.
func extractYear(pages []*model.Page) int {
	var sb strings.Builder
	for i, page := range pages {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(page.AllText())
	}
	match := yearPattern.FindString(sb.String())
	if match == "" {
		return 0
	}
	year := 0
	for _, r := range match {
		year = year*10 + int(r-'0')
	}
	return year
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
