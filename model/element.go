package model

import "strings"

// ElementType tags the kind of content an element carries.
const (
	ElementText  = "text"
	ElementTable = "table"
)

// Element is one text fragment produced by the page-layout collaborator:
// a bounding box plus the extracted text. Elements are owned by exactly
// one Page and are immutable once produced.
type Element struct {
	Rect
	Text string `json:"text,omitempty"`
	Bold bool   `json:"has_bold,omitempty"`
	Type string `json:"element_type"`
}

// NewTextElement builds a text element from box coordinates and text.
func NewTextElement(x0, y0, x1, y1 float64, text string) Element {
	return Element{
		Rect: Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Text: text,
		Type: ElementText,
	}
}

// IsEmpty reports whether the element has no text or only whitespace.
func (e Element) IsEmpty() bool {
	return strings.TrimSpace(e.Text) == ""
}

// Table is a detected table row band: a bounding box plus ordered rows of
// cell strings. The detector is coarse; each Table holds a single
// one-cell row keyed by the matched numeric line, not a reconstructed
// grid.
type Table struct {
	Rect
	Rows [][]string `json:"rows"`
	Type string     `json:"element_type"`
}

// Page is one page of the source document: dimensions, the ordered
// element list from the layout collaborator, and the tables and chunks
// derived from it. Elements are never reordered in place; reading order
// is derived by the layout package.
type Page struct {
	Index    int       `json:"index"` // 0-based
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Elements []Element `json:"elements"`
	Tables   []Table   `json:"tables,omitempty"`
	Chunks   []Chunk   `json:"text_chunks,omitempty"`
}

// AllText joins the text of every non-empty element with single spaces,
// in element order.
func (p *Page) AllText() string {
	parts := make([]string, 0, len(p.Elements))
	for _, el := range p.Elements {
		if el.Text != "" {
			parts = append(parts, el.Text)
		}
	}
	return strings.Join(parts, " ")
}
