package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dailymed/internal/acquire"
	"github.com/pdiddy/dailymed/internal/index"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [drug names...]",
	Short: "Download SPL XML documents for a list of drug names",
	Long: `Fetch retrieves the DailyMed SPL index once, then for each drug name
downloads up to --limit label documents whose title contains the name.
Drug names come from the arguments, --drugs and --drugs-file; with none of
these a built-in list of common drugs is used. Documents already present in
the save directory are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringSlice("drugs", nil, "drug names to download (comma-separated)")
	fetchCmd.Flags().String("drugs-file", "", "YAML file listing drug names")
	fetchCmd.Flags().Int("limit", acquire.DefaultLimitPerDrug, "maximum documents to download per drug (0 for no limit)")
	fetchCmd.Flags().String("save-dir", defaultSaveDir, "directory to save downloaded XML files")
	fetchCmd.Flags().Duration("delay", defaultDelay, "delay after each download request")
	fetchCmd.Flags().Duration("timeout", acquire.DefaultTimeout, "timeout for each document request")
	fetchCmd.Flags().Bool("progress", true, "show a progress bar when stderr is a terminal")

	viper.BindPFlag("limit", fetchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("save_dir", fetchCmd.Flags().Lookup("save-dir"))
	viper.BindPFlag("delay", fetchCmd.Flags().Lookup("delay"))
	viper.BindPFlag("timeout", fetchCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	drugs, _ := cmd.Flags().GetStringSlice("drugs")
	drugsFile, _ := cmd.Flags().GetString("drugs-file")
	names, err := drugNames(args, drugs, drugsFile)
	if err != nil {
		return err
	}

	cfg := downloadConfig()
	limit := viper.GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", limit)
	}

	lock, err := acquire.LockSaveDir(cfg.SaveDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	runLog := logger.With("run", uuid.NewString())
	client := newClient()

	runLog.Info("fetching index", "url", cfg.IndexURL)
	records, err := index.Fetch(ctx, client, cfg)
	if err != nil {
		return err
	}
	runLog.Info("found records", "count", len(records))

	opts := []acquire.Option{acquire.WithLogger(runLog)}
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress && isTerminal(stderr) {
		opts = append(opts, acquire.WithProgress(newProgressBar))
	}
	d, err := acquire.NewDownloader(client, cfg, opts...)
	if err != nil {
		return err
	}

	d.ByDrugNames(ctx, records, names, limit)
	return ctx.Err()
}

// drugNames merges positional names, --drugs and --drugs-file. When all
// are empty the built-in list is returned.
func drugNames(args, flagNames []string, file string) ([]string, error) {
	names := append(append([]string(nil), args...), flagNames...)
	if file != "" {
		fromFile, err := acquire.LoadDrugNames(file)
		if err != nil {
			return nil, err
		}
		names = append(names, fromFile...)
	}
	names = acquire.NormalizeDrugNames(names)
	if len(names) == 0 {
		return acquire.DefaultDrugNames(), nil
	}
	return names, nil
}
