package retrieval

import (
	"fmt"
	"strings"

	"github.com/tbellem/finrep/model"
)

// Citation renders the human-readable reference for a chunk:
// `Page {n}, Section "{title}"`, with a Figure/Figures suffix when the
// source paragraph carried figure callouts.
func Citation(ch model.Chunk) string {
	base := fmt.Sprintf("Page %d, Section %q", ch.Meta.PageNumber, ch.Meta.Section)
	switch len(ch.Meta.Figures) {
	case 0:
		return base
	case 1:
		return base + ", " + ch.Meta.Figures[0]
	default:
		labels := make([]string, len(ch.Meta.Figures))
		for i, fig := range ch.Meta.Figures {
			labels[i] = strings.TrimPrefix(fig, "Figure ")
		}
		return base + ", Figures " + strings.Join(labels, ", ")
	}
}

// contextHeader is the per-match header used for prompt assembly. Unlike
// Citation it always names the figure list, "None" included.
func contextHeader(ch model.Chunk) string {
	figures := "None"
	if len(ch.Meta.Figures) > 0 {
		labels := make([]string, len(ch.Meta.Figures))
		for i, fig := range ch.Meta.Figures {
			labels[i] = strings.TrimPrefix(fig, "Figure ")
		}
		figures = strings.Join(labels, ", ")
	}
	return fmt.Sprintf("[Page %d, Section %q, Figures: %s]",
		ch.Meta.PageNumber, ch.Meta.Section, figures)
}

// Citations returns the deduplicated citation strings for a match list,
// preserving rank order.
func Citations(matches []model.Match) []string {
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		c := Citation(m.Chunk)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
