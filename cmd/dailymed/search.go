package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/dailymed/internal/index"
	"github.com/pdiddy/dailymed/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "List SPL records whose title contains a keyword",
	Long: `Search fetches the DailyMed SPL index and prints the records whose title
contains the keyword, ignoring case. Nothing is downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 20, "maximum number of records to print (0 for all)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg := downloadConfig()
	records, err := index.Fetch(cmd.Context(), newClient(), cfg)
	if err != nil {
		return err
	}

	matched := index.Filter(records, args[0])
	total := len(matched)
	if maxResults > 0 && len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(matched)
	}
	renderRecords(out, matched, cfg.SaveDir)
	fmt.Fprintf(out, "%d of %d matching records shown\n", len(matched), total)
	return nil
}

// renderRecords prints records as a table. The Saved column marks records
// whose document already exists in saveDir.
func renderRecords(w io.Writer, records []types.Record, saveDir string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "Set ID", "Title", "Saved"})
	for i, rec := range records {
		saved := ""
		if _, err := os.Stat(filepath.Join(saveDir, rec.FileName())); err == nil {
			saved = "yes"
		}
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), rec.ID, rec.Title, saved})
	}
	tw.Render()
}
