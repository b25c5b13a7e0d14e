package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bilitext/internal/credentials"
	"bilitext/internal/credentials/browser"
	"bilitext/internal/textutil"
)

func newCookiesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage cached platform credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCookiesExtractCommand(ctx))
	cmd.AddCommand(newCookiesShowCommand(ctx))
	cmd.AddCommand(newCookiesClearCommand(ctx))
	return cmd
}

func newCookiesExtractCommand(ctx *commandContext) *cobra.Command {
	var browserFlag string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract cookies from a browser profile and cache them",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.credentialStore()
			if err != nil {
				return err
			}
			extractor, err := browser.ForName(browserFlag)
			if err != nil {
				return err
			}
			cookies, err := store.Cookies(browserFlag, extractor, true)
			if err != nil {
				return err
			}
			if len(cookies) == 0 {
				return fmt.Errorf("no usable session cookies found in %s; log in to bilibili.com there first", browserFlag)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cached %d cookies from %s\n", len(cookies), browserFlag)
			return nil
		},
	}

	cmd.Flags().StringVar(&browserFlag, "browser", "firefox", "Browser to read platform cookies from (firefox, chromium, chrome)")
	return cmd
}

func newCookiesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cached credential records and their age",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.credentialStore()
			if err != nil {
				return err
			}
			browsers := store.Browsers()
			if len(browsers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no cached credentials")
				return nil
			}

			rows := make([][]string, 0, len(browsers))
			for _, name := range browsers {
				record, ok := store.Record(name)
				if !ok {
					continue
				}
				status := "valid"
				if time.Since(record.Timestamp) > credentials.TTL {
					status = "expired"
				}
				rows = append(rows, []string{
					name,
					fmt.Sprintf("%d", len(record.Cookies)),
					textutil.FormatTimeAgo(record.Timestamp),
					status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Browser", "Cookies", "Extracted", "Status"},
				rows, 2))
			return nil
		},
	}
}

func newCookiesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.credentialStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "credential cache cleared")
			return nil
		},
	}
}
