package chunker

// Figure callouts like "Figure 3A", "fig. 12-b". The label is digits
// optionally followed by letters and hyphens.
import "regexp"

var figureRef = regexp.MustCompile(`(?i)\b(?:figure|fig\.)\s*(\d+(?:[a-zA-Z-]*[a-zA-Z0-9])?)`)

// ExtractFigureRefs scans a paragraph for figure callouts and returns
// deduplicated "Figure {label}" strings in first-seen order. No match
// yields nil.
func ExtractFigureRefs(paragraph string) []string {
	matches := figureRef.FindAllStringSubmatch(paragraph, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var refs []string
	for _, m := range matches {
		label := m[1]
		if seen[label] {
			continue
		}
		seen[label] = true
		refs = append(refs, "Figure "+label)
	}
	return refs
}
