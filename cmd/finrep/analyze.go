package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tbellem/finrep"
	"github.com/tbellem/finrep/export"
	"github.com/tbellem/finrep/store"
)

var (
	analyzeExport string
	analyzeNoSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a financial report",
	Long: `Parse a report (PDF, text, or scanned image), reconstruct its
paragraphs, detect table rows, chunk the text for retrieval, and store
the result in the local database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := args[0]

		analyzer := newAnalyzer(cfg)
		report, err := analyzer.AnalyzeFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", filepath.Base(path), err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(filepath.Base(path)))
		year := "unknown"
		if report.Metadata.Year > 0 {
			year = fmt.Sprintf("%d", report.Metadata.Year)
		}
		fmt.Fprintln(out, boxStyle.Render(fmt.Sprintf(
			"Pages: %d\nChunks: %d\nSections: %d\nReport year: %s",
			len(report.Pages), len(report.Chunks), len(report.Sections), year)))

		if !analyzeNoSave {
			docID, err := saveReport(cmd, cfg, path, report)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Saved as document %d", docID)))
		}

		if analyzeExport != "" {
			sections := make([]export.Section, len(report.Sections))
			for i, sec := range report.Sections {
				sections[i] = export.Section{Title: sec.Title, Text: sec.Text}
			}
			err := export.WriteWorkbook(export.WorkbookInput{
				Filename: filepath.Base(path),
				Year:     report.Metadata.Year,
				Pages:    report.Pages,
				Sections: sections,
			}, analyzeExport)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, successStyle.Render("Workbook written to "+analyzeExport))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeExport, "export", "", "write detected tables to an XLSX workbook at this path")
	analyzeCmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "skip persisting the analysis to the database")
	rootCmd.AddCommand(analyzeCmd)
}

func newAnalyzer(cfg finrep.Config) *finrep.Analyzer {
	var opts []finrep.AnalyzerOption
	if c := newLLMClient(cfg); c != nil {
		opts = append(opts, finrep.WithLLMClient(c))
	}
	return finrep.NewAnalyzer(cfg, opts...)
}

func saveReport(cmd *cobra.Command, cfg finrep.Config, path string, report *finrep.Report) (int64, error) {
	st, err := store.New(cfg.ResolveDBPath())
	if err != nil {
		return 0, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	hash := sha256.Sum256(data)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sections := make([]store.SectionRow, len(report.Sections))
	for i, sec := range report.Sections {
		sections[i] = store.SectionRow{Title: sec.Title, Text: sec.Text}
	}
	return st.SaveAnalysis(cmd.Context(), store.Document{
		Path:        abs,
		Filename:    filepath.Base(path),
		ContentHash: hex.EncodeToString(hash[:]),
		PageCount:   len(report.Pages),
		Year:        report.Metadata.Year,
	}, report.Pages, report.Chunks, sections)
}
