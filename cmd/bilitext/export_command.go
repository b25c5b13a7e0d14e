package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"bilitext/internal/credentials"
	"bilitext/internal/export"
	"bilitext/internal/fileutil"
)

const (
	combinedFileName = "all_subtitles.txt"
	statsFileName    = "stats.txt"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		browserFlag   string
		outputFlag    string
		limitFlag     int
		noDescription bool
		noMetaInfo    bool
	)

	cmd := &cobra.Command{
		Use:   "export <uid>",
		Short: "Export transcripts for every video of a user into one combined file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || uid <= 0 {
				return fmt.Errorf("uid must be a positive integer, got %q", args[0])
			}

			if browserFlag == "" && credentials.AuthRequired(credentials.OpBatchExport) {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: exporting without --browser; member-only videos will fail")
			}
			cookies, jar, err := ctx.resolveCredentials(browserFlag, false)
			if err != nil {
				return err
			}
			client, err := ctx.platformClient(cookies)
			if err != nil {
				return err
			}
			coord, err := ctx.buildPipeline(client)
			if err != nil {
				return err
			}
			orch := export.New(client, coord, ctx.loggerValue())

			combined, stats, err := orch.ExportAll(cmd.Context(), uid, export.Options{
				Limit:              limitFlag,
				IncludeDescription: !noDescription,
				IncludeMetaInfo:    !noMetaInfo,
				CookieJar:          jar,
				Progress:           newProgressReporter(cmd),
			})
			if err != nil {
				if hint := authRemediation(err); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), hint)
				}
				return err
			}

			outDir := outputFlag
			if outDir == "" {
				outDir = "."
			}
			combinedPath := filepath.Join(outDir, combinedFileName)
			statsPath := filepath.Join(outDir, statsFileName)
			if err := fileutil.WriteFileAtomic(combinedPath, []byte(combined+"\n"), 0o644); err != nil {
				return fmt.Errorf("write combined output: %w", err)
			}
			if err := fileutil.WriteFileAtomic(statsPath, []byte(export.RenderStats(stats)), 0o644); err != nil {
				return fmt.Errorf("write stats: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nexported %d/%d videos (%d failed) to %s\n",
				stats.Succeeded(), stats.Processed, len(stats.Failed), combinedPath)
			fmt.Fprintf(cmd.OutOrStdout(), "statistics written to %s\n", statsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&browserFlag, "browser", "", "Browser to read platform cookies from (firefox, chromium, chrome)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory for the combined output and stats files")
	cmd.Flags().IntVar(&limitFlag, "limit", -1, "Only process the first N videos (0 processes none)")
	cmd.Flags().BoolVar(&noDescription, "no-description", false, "Omit video descriptions from headers")
	cmd.Flags().BoolVar(&noMetaInfo, "no-meta-info", false, "Omit view counts and upload data from headers")
	return cmd
}

// newProgressReporter renders a progress bar on a TTY and plain per-video
// lines otherwise, so logs stay readable when piped.
func newProgressReporter(cmd *cobra.Command) export.Progress {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		var bar *progressbar.ProgressBar
		return func(done, total int, label string) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("exporting"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}
	}
	return func(done, total int, label string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", done, total, label)
	}
}
