// Package parser is the page-layout collaborator: it turns input files
// into pages of bounding-boxed text elements for the layout core.
package parser

import (
	"context"

	"github.com/tbellem/finrep/model"
)

// Parser extracts the geometric page model from one input file.
type Parser interface {
	// SupportedFormats returns the lowercase file extensions this
	// parser handles, without the leading dot.
	SupportedFormats() []string

	// Parse reads the file and returns its pages in document order.
	Parse(ctx context.Context, path string) ([]*model.Page, error)
}
