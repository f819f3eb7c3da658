package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbellem/finrep/retrieval"
	"github.com/tbellem/finrep/store"
)

var (
	queryTopK   int
	queryAnswer bool
)

var queryCmd = &cobra.Command{
	Use:   "query <document-id> <question>",
	Short: "Query an analyzed document",
	Long: `Retrieve the best-matching chunks of a stored document for a
question. With --answer, the retrieved context is sent to the configured
LLM endpoint and the model's answer is printed with citations.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		docID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		question := strings.Join(args[1:], " ")

		st, err := store.New(cfg.ResolveDBPath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		doc, err := st.GetDocument(cmd.Context(), docID)
		if err != nil {
			return fmt.Errorf("loading document %d: %w", docID, err)
		}
		chunks, err := st.LoadChunks(cmd.Context(), docID)
		if err != nil {
			return fmt.Errorf("loading chunks: %w", err)
		}

		engine := newAnalyzer(cfg).QueryEngineChunks(chunks)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(doc.Filename))

		if queryAnswer {
			answer, err := engine.Answer(cmd.Context(), question, queryTopK)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, boxStyle.Render(renderResponse(answer.Response)))
			for _, c := range answer.Citations {
				fmt.Fprintln(out, citationStyle.Render("• "+c))
			}
			logQuery(cmd, st, docID, question, len(answer.Matches), answer.Citations)
			return nil
		}

		matches := engine.Retrieve(question, queryTopK)
		if len(matches) == 0 {
			fmt.Fprintln(out, dimStyle.Render("No matching chunks."))
			logQuery(cmd, st, docID, question, 0, nil)
			return nil
		}
		for _, m := range matches {
			fmt.Fprintf(out, "%s %s\n%s\n\n",
				citationStyle.Render(retrieval.Citation(m.Chunk)),
				dimStyle.Render(fmt.Sprintf("(score %.2f)", m.Score)),
				m.Chunk.Text)
		}
		logQuery(cmd, st, docID, question, len(matches), retrieval.Citations(matches))
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryAnswer, "answer", false, "send retrieved context to the LLM and print its answer")
	rootCmd.AddCommand(queryCmd)
}

func logQuery(cmd *cobra.Command, st *store.Store, docID int64, question string, matches int, citations []string) {
	if err := st.LogQuery(cmd.Context(), store.QueryLog{
		DocumentID: docID,
		Query:      question,
		TopK:       queryTopK,
		Matches:    matches,
		Citations:  citations,
	}); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("warning: query log write failed: "+err.Error()))
	}
}

// renderResponse pretty-prints a completion response, falling back to
// the raw payload when it is not the expected JSON shape.
func renderResponse(raw json.RawMessage) string {
	var v struct {
		Choices []struct {
			Text    string `json:"text"`
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &v); err == nil && len(v.Choices) > 0 {
		if t := strings.TrimSpace(v.Choices[0].Text); t != "" {
			return t
		}
		if t := strings.TrimSpace(v.Choices[0].Message.Content); t != "" {
			return t
		}
	}
	return strings.TrimSpace(string(raw))
}
