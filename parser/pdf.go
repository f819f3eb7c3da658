package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/tbellem/finrep/model"
)

// lineTolerance is the maximum vertical distance, in page units, between
// two text fragments still considered part of the same line.
const lineTolerance = 2.0

// Default US Letter dimensions, used when a page has no readable MediaBox.
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// PDFParser extracts positioned text lines from PDF files with a native
// text layer. Pages whose text layer is empty come back with no
// elements; callers wanting OCR on such pages rasterize externally and
// feed the images through OCRParser.
type PDFParser struct {
	// SpaceMaxDistance is the horizontal gap, in page units, beyond
	// which a space is inserted between adjacent fragments of a line.
	// Zero or negative falls back to a font-relative gap.
	SpaceMaxDistance float64
}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

func (p *PDFParser) Parse(ctx context.Context, path string) ([]*model.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	pages := make([]*model.Page, 0, totalPages)

	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		width, height := mediaBoxSize(page)
		elements := p.extractElements(page)

		pages = append(pages, &model.Page{
			Index:    len(pages),
			Width:    width,
			Height:   height,
			Elements: elements,
		})
	}

	return pages, nil
}

// extractElements groups a page's positioned text fragments into line
// elements: fragments within lineTolerance vertically belong to one
// line, ordered left to right.
func (p *PDFParser) extractElements(page pdf.Page) []model.Element {
	content := page.Content()
	texts := make([]pdf.Text, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var elements []model.Element
	lineStart := 0
	for i := 1; i <= len(texts); i++ {
		if i < len(texts) && texts[lineStart].Y-texts[i].Y <= lineTolerance {
			continue
		}
		elements = append(elements, p.buildLine(texts[lineStart:i]))
		lineStart = i
	}
	return elements
}

// buildLine merges one line's fragments into a single element with the
// union bounding box.
func (p *PDFParser) buildLine(texts []pdf.Text) model.Element {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var sb strings.Builder
	x0, y0 := texts[0].X, texts[0].Y
	x1, y1 := texts[0].X+texts[0].W, texts[0].Y+texts[0].FontSize

	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > p.spaceGap(t.FontSize) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W

		if t.X < x0 {
			x0 = t.X
		}
		if t.Y < y0 {
			y0 = t.Y
		}
		if end := t.X + t.W; end > x1 {
			x1 = end
		}
		if top := t.Y + t.FontSize; top > y1 {
			y1 = top
		}
	}

	return model.NewTextElement(x0, y0, x1, y1, strings.TrimSpace(sb.String()))
}

// spaceGap returns the configured inter-fragment gap that triggers a
// space, or a font-relative default.
func (p *PDFParser) spaceGap(fontSize float64) float64 {
	if p.SpaceMaxDistance > 0 {
		return p.SpaceMaxDistance
	}
	return fontSize * 0.2
}

// mediaBoxSize reads the page MediaBox, falling back to US Letter.
func mediaBoxSize(page pdf.Page) (width, height float64) {
	width, height = defaultPageWidth, defaultPageHeight

	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Kind() != pdf.Array || box.Len() != 4 {
		return width, height
	}

	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v := box.Index(i)
		switch v.Kind() {
		case pdf.Integer:
			coords[i] = float64(v.Int64())
		case pdf.Real:
			coords[i] = v.Float64()
		default:
			return width, height
		}
	}

	if w := coords[2] - coords[0]; w > 0 {
		width = w
	}
	if h := coords[3] - coords[1]; h > 0 {
		height = h
	}
	return width, height
}
