package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"book-search/internal/client"
)

func newSearchCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search indexed books",
		Long:  "Search indexed books. The words are joined with spaces and sent as one query.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := newView(format, cmd)
			if err != nil {
				return err
			}

			c, logger, err := opts.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := client.NewForms(c, view).SubmitSearch(cmd.Context(), strings.Join(args, " ")); err != nil {
				return &shownError{err: err}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or html")
	return cmd
}

func newView(format string, cmd *cobra.Command) (client.View, error) {
	switch format {
	case "table":
		return &tableView{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, nil
	case "json":
		return &jsonView{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, nil
	case "html":
		return &htmlView{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: want table, json or html", format)
	}
}
