package parser

import "fmt"

// Registry maps file formats to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a registry with the built-in parsers registered:
// PDF, plain text, and OCR for common image formats.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register(&PDFParser{})
	r.Register(&TextParser{})
	r.Register(&OCRParser{})
	return r
}

// Register adds a parser for all of its supported formats.
func (r *Registry) Register(p Parser) {
	for _, format := range p.SupportedFormats() {
		r.parsers[format] = p
	}
}

// Get returns the parser for a format.
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("no parser registered for format %q", format)
	}
	return p, nil
}
