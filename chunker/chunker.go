// Package chunker splits reconstructed paragraphs into overlapping
// retrieval-sized word windows, attaching section and figure metadata.
package chunker

import (
	"strings"

	"github.com/tbellem/finrep/model"
)

// Config controls the chunking behaviour.
type Config struct {
	SizeWords       int // Words per chunk window.
	OverlapWords    int // Word overlap between consecutive windows.
	MaxHeadingWords int // Longest paragraph still considered a heading.
}

// Chunker converts a page's paragraphs into document chunks.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration. SizeWords and
// MaxHeadingWords fall back to defaults when zero. OverlapWords is taken
// as configured: zero means non-overlapping windows, negative values are
// clamped to zero, and values at or above SizeWords are clamped to
// SizeWords-1 so the window always advances.
func New(cfg Config) *Chunker {
	if cfg.SizeWords <= 0 {
		cfg.SizeWords = 120
	}
	if cfg.OverlapWords < 0 {
		cfg.OverlapWords = 0
	}
	if cfg.OverlapWords >= cfg.SizeWords {
		cfg.OverlapWords = cfg.SizeWords - 1
	}
	if cfg.MaxHeadingWords <= 0 {
		cfg.MaxHeadingWords = 12
	}
	return &Chunker{cfg: cfg}
}

// ChunkPage converts one page's paragraphs into chunks. next is the
// document-global chunk counter; the advanced counter is returned so
// callers can thread it through the page loop. Section-heading state is
// local to the call and therefore resets on every page.
func (c *Chunker) ChunkPage(paragraphs []string, pageIndex int, next int) ([]model.Chunk, int) {
	pageNumber := pageIndex + 1
	section := ""

	var chunks []model.Chunk
	for pi, para := range paragraphs {
		text := Normalize(para)
		if text == "" {
			continue
		}
		if c.IsHeading(text) {
			section = text
		}
		title := section
		if title == "" {
			title = deriveSectionTitle(text, pageNumber)
		}
		figures := ExtractFigureRefs(text)

		for _, window := range c.splitWindows(text) {
			chunks = append(chunks, model.Chunk{
				PageIndex:  pageIndex,
				ChunkIndex: next,
				Text:       window,
				Meta: model.ChunkMeta{
					ParagraphIndex: pi,
					PageNumber:     pageNumber,
					Section:        title,
					Figures:        figures,
				},
			})
			next++
		}
	}
	return chunks, next
}

// splitWindows slides a fixed-size word window over the text with step
// SizeWords-OverlapWords (minimum 1). The closing window may be shorter
// when it reaches the text end exactly; emission stops there, so no
// window ever starts at or past the end. Empty text yields nil.
func (c *Chunker) splitWindows(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	size := c.cfg.SizeWords
	step := size - c.cfg.OverlapWords
	if step < 1 {
		step = 1
	}

	var windows []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return windows
}

// Normalize collapses runs of whitespace to single spaces and trims the
// result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
