// Package layout reconstructs reading order from unordered bounding-boxed
// page elements and runs coarse table-row detection over them.
package layout

import (
	"sort"
	"strings"

	"github.com/tbellem/finrep/model"
)

// DefaultLineBreakDistance is the vertical gap, in page units, beyond
// which two consecutive lines are treated as separate paragraphs.
const DefaultLineBreakDistance = 14

// Grouper turns a page's element list into an ordered sequence of
// paragraph strings. Implementations must be deterministic and must not
// depend on input element order.
type Grouper interface {
	Group(elements []model.Element) []string
}

// YGapGrouper is the default grouping strategy: sort elements top of page
// first and split paragraphs wherever the vertical gap between
// consecutive lines exceeds LineBreakDistance.
//
// Grouping uses only y0 gaps, with no column awareness, so multi-column
// pages may interleave text from different columns into one paragraph.
// Substitute a column-aware Grouper if that matters for your documents.
type YGapGrouper struct {
	LineBreakDistance float64
}

// NewYGapGrouper returns a YGapGrouper, defaulting the threshold when
// dist is zero or negative.
func NewYGapGrouper(dist float64) YGapGrouper {
	if dist <= 0 {
		dist = DefaultLineBreakDistance
	}
	return YGapGrouper{LineBreakDistance: dist}
}

// Group implements Grouper. Empty and whitespace-only elements are
// filtered before grouping. A page with no text yields nil; a single
// element yields exactly one paragraph, verbatim.
func (g YGapGrouper) Group(elements []model.Element) []string {
	lines := make([]model.Element, 0, len(elements))
	for _, el := range elements {
		if !el.IsEmpty() {
			lines = append(lines, el)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	// Total order: descending y0, then x0, then text. The tie-breakers
	// make the output independent of input element order.
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Y0 != lines[j].Y0 {
			return lines[i].Y0 > lines[j].Y0
		}
		if lines[i].X0 != lines[j].X0 {
			return lines[i].X0 < lines[j].X0
		}
		return lines[i].Text < lines[j].Text
	})

	var paragraphs []string
	var current []string
	lastY := lines[0].Y0
	for i, el := range lines {
		if i > 0 && gap(lastY, el.Y0) > g.LineBreakDistance {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, el.Text)
		lastY = el.Y0
	}
	paragraphs = append(paragraphs, strings.Join(current, " "))
	return paragraphs
}

func gap(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
