package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// minUppercaseRatio is the fraction of alphabetic characters that must be
// uppercase for a short paragraph to count as a heading.
const minUppercaseRatio = 0.6

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// IsHeading reports whether a normalized paragraph looks like a section
// heading. A paragraph qualifies when it is a single purely numeric
// token, or when it is short (at most MaxHeadingWords tokens), does not
// end in a period, and either ends in a colon, is mostly uppercase, or
// title-cases every token. Longer paragraphs are never headings.
func (c *Chunker) IsHeading(paragraph string) bool {
	tokens := strings.Fields(paragraph)
	if len(tokens) == 0 {
		return false
	}
	if len(tokens) == 1 && isNumeric(tokens[0]) {
		return true
	}
	if len(tokens) > c.cfg.MaxHeadingWords {
		return false
	}
	if strings.HasSuffix(paragraph, ".") {
		return false
	}
	if strings.HasSuffix(paragraph, ":") {
		return true
	}
	if uppercaseRatio(paragraph) >= minUppercaseRatio {
		return true
	}
	return allTokensTitleCased(tokens)
}

// deriveSectionTitle produces a fallback section title for a paragraph
// with no tracked heading: the first 8 words of its first sentence, or
// "Page {n}" when even that is empty.
func deriveSectionTitle(paragraph string, pageNumber int) string {
	first := paragraph
	if loc := sentenceEnd.FindStringIndex(paragraph); loc != nil {
		first = paragraph[:loc[0]+1]
	}
	words := strings.Fields(first)
	if len(words) > 8 {
		words = words[:8]
	}
	if len(words) == 0 {
		return fmt.Sprintf("Page %d", pageNumber)
	}
	return strings.Join(words, " ")
}

func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return token != ""
}

// uppercaseRatio returns the uppercase fraction of the alphabetic
// characters in text; 0 when there are none.
func uppercaseRatio(text string) float64 {
	var alpha, upper int
	for _, r := range text {
		if unicode.IsLetter(r) {
			alpha++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if alpha == 0 {
		return 0
	}
	return float64(upper) / float64(alpha)
}

func allTokensTitleCased(tokens []string) bool {
	for _, tok := range tokens {
		r := []rune(tok)[0]
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
