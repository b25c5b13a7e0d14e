package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilitext/internal/credentials"
	"bilitext/internal/export"
	"bilitext/internal/fileutil"
	"bilitext/internal/textutil"
)

func newTextCommand(ctx *commandContext) *cobra.Command {
	var (
		browserFlag   string
		outputFlag    string
		noDescription bool
		noMetaInfo    bool
	)

	cmd := &cobra.Command{
		Use:   "text <bvid|url>",
		Short: "Fetch one video's transcript (native subtitles, downloaded subtitles, or speech-to-text)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if browserFlag == "" && credentials.AuthRequired(credentials.OpFetchSubtitles) {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: running without --browser; member-only content may be unavailable")
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

			video, err := client.GetVideoInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := coord.Transcript(cmd.Context(), video, jar)
			if err != nil {
				if hint := authRemediation(err); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), hint)
				}
				return err
			}

			header := export.Header(video, !noDescription, !noMetaInfo)
			text := header + "\n\n" + textutil.RemoveTimestamps(result.Text)

			if result.CorrectionFailed {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: transcript correction failed, output is the raw speech-to-text")
			}
			if result.CorrectionNotes != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "corrections applied:\n%s\n", result.CorrectionNotes)
			}

			if outputFlag != "" {
				if err := fileutil.WriteFileAtomic(outputFlag, []byte(text+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "transcript written to %s (source: %s)\n", outputFlag, result.Origin)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&browserFlag, "browser", "", "Browser to read platform cookies from (firefox, chromium, chrome)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the transcript to a file instead of stdout")
	cmd.Flags().BoolVar(&noDescription, "no-description", false, "Omit the video description from the header")
	cmd.Flags().BoolVar(&noMetaInfo, "no-meta-info", false, "Omit view counts and upload data from the header")
	return cmd
}
