package parser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tbellem/finrep/model"
)

// Plain-text line metrics for the synthetic page geometry. lineStep is
// below the default paragraph break distance, so consecutive lines stay
// in one paragraph while blank lines open a gap wide enough to split.
const (
	textPageWidth = 1000
	lineStep      = 12
)

// TextParser turns a plain-text file into one synthetic page with one
// element per non-blank line, stacked top to bottom.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt", "text"} }

func (p *TextParser) Parse(ctx context.Context, path string) ([]*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	height := float64((len(lines) + 1) * lineStep)

	var elements []model.Element
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		y0 := height - float64((i+1)*lineStep)
		elements = append(elements, model.NewTextElement(0, y0, textPageWidth, y0+lineStep, strings.TrimSpace(line)))
	}

	page := &model.Page{
		Index:    0,
		Width:    textPageWidth,
		Height:   height,
		Elements: elements,
	}
	return []*model.Page{page}, nil
}
