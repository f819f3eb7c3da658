package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tbellem/finrep/llm"
	"github.com/tbellem/finrep/model"
)

// Config holds retrieval engine configuration.
type Config struct {
	// TopK is the default number of matches per query.
	TopK int
	// Model and Extra are forwarded to the LLM client on Answer.
	Model string
	Extra map[string]any
}

// Answer is the result of an answered question: the assembled prompt,
// the client's raw response, the ranked matches backing it, and their
// deduplicated citation strings.
type Answer struct {
	Prompt    string          `json:"prompt"`
	Response  json.RawMessage `json:"response"`
	Matches   []model.Match   `json:"matches"`
	Citations []string        `json:"citations"`
}

// Engine answers keyword queries over a built Index and delegates
// natural-language answering to an LLM client.
type Engine struct {
	index  *Index
	client llm.Client
	cfg    Config
}

// New creates a retrieval engine. client may be nil when only Retrieve
// is needed.
func New(index *Index, client llm.Client, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Engine{index: index, client: client, cfg: cfg}
}

// Retrieve returns the topK best lexical matches for the question.
// topK <= 0 uses the configured default.
func (e *Engine) Retrieve(question string, topK int) []model.Match {
	if topK <= 0 {
		topK = e.cfg.TopK
	}
	start := time.Now()
	matches := e.index.Retrieve(question, topK)
	slog.Debug("retrieval: query complete",
		"query_len", len(question), "matches", len(matches),
		"indexed_chunks", e.index.Len(),
		"elapsed", time.Since(start).Round(time.Microsecond))
	return matches
}

// Answer retrieves context for the question, builds an instruction
// prompt, and delegates completion to the LLM client. When retrieval
// finds nothing the prompt says so explicitly and instructs the model to
// admit it.
func (e *Engine) Answer(ctx context.Context, question string, topK int) (*Answer, error) {
	if e.client == nil {
		return nil, fmt.Errorf("retrieval: no LLM client configured")
	}

	matches := e.Retrieve(question, topK)
	prompt := buildPrompt(question, matches)

	response, err := e.client.Complete(ctx, prompt, llm.Options{
		Model: e.cfg.Model,
		Extra: e.cfg.Extra,
	})
	if err != nil {
		return nil, fmt.Errorf("completing answer: %w", err)
	}

	return &Answer{
		Prompt:    prompt,
		Response:  response,
		Matches:   matches,
		Citations: Citations(matches),
	}, nil
}

// buildPrompt assembles the instruction prompt: each match's context
// header and chunk text, blank-line separated, followed by the question
// and the citation-format instruction.
func buildPrompt(question string, matches []model.Match) string {
	if len(matches) == 0 {
		return "You are an assistant that answers questions about financial reports. " +
			"No relevant context was retrieved for this question; say so in your answer " +
			"instead of guessing.\n\n" +
			"Question: " + question + "\nAnswer:"
	}

	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = contextHeader(m.Chunk) + "\n" + m.Chunk.Text
	}

	return "You are an assistant that answers questions about financial reports. " +
		"Use the provided context to answer the question, citing sources in the form " +
		"Page {page}, Section \"{section}\", and naming figures when present.\n\n" +
		"Context:\n" + strings.Join(blocks, "\n\n") + "\n\n" +
		"Question: " + question + "\nAnswer:"
}
