package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bilitext/internal/bili"
	"bilitext/internal/textutil"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var browserFlag string

	cmd := &cobra.Command{
		Use:   "video <bvid|url|uid>",
		Short: "Show video metadata, or list a user's videos when given a numeric uid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookies, _, err := ctx.resolveCredentials(browserFlag, false)
			if err != nil {
				return err
			}
			client, err := ctx.platformClient(cookies)
			if err != nil {
				return err
			}

			if uid, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				return runUserVideos(cmd, client, uid, jsonOutput)
			}
			return runVideoInfo(cmd, client, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringVar(&browserFlag, "browser", "", "Browser to read platform cookies from (firefox, chromium, chrome)")
	return cmd
}

func runVideoInfo(cmd *cobra.Command, client *bili.Client, identifier string, jsonOutput bool) error {
	info, err := client.GetVideoInfo(cmd.Context(), identifier)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, info)
	}

	rows := [][2]string{
		{"Title", info.Title},
		{"BVID", info.BVID},
		{"Uploader", info.OwnerName},
		{"Upload time", info.UploadTime},
		{"Duration", textutil.FormatDuration(info.Duration)},
		{"Views", textutil.FormatCount(info.ViewCount)},
		{"Likes", textutil.FormatCount(info.LikeCount)},
		{"Coins", textutil.FormatCount(info.CoinCount)},
		{"Favorites", textutil.FormatCount(info.FavoriteCount)},
		{"Shares", textutil.FormatCount(info.ShareCount)},
		{"Comments", textutil.FormatCount(info.CommentCount)},
	}
	if info.ChargingExclusive {
		level := info.ChargingLevel
		if level == "" {
			level = "yes"
		}
		rows = append(rows, [2]string{"Pay-walled", level})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderKeyValueTable(rows))
	if info.Description != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", info.Description)
	}
	return nil
}

func runUserVideos(cmd *cobra.Command, client *bili.Client, uid int64, jsonOutput bool) error {
	videos, err := client.GetUserVideos(cmd.Context(), uid)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, videos)
	}

	rows := make([][]string, 0, len(videos))
	for _, video := range videos {
		rows = append(rows, []string{
			video.BVID,
			video.Title,
			textutil.FormatDuration(video.Duration),
			textutil.FormatCount(video.ViewCount),
			video.UploadTime,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"BVID", "Title", "Duration", "Views", "Uploaded"},
		rows, 3, 4))
	fmt.Fprintf(cmd.OutOrStdout(), "%d videos\n", len(videos))
	return nil
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
