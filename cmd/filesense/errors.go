package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RCushmaniii/filesense/internal/cli"
)

func errorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Inspect and resolve recorded errors",
	}

	cmd.AddCommand(listErrorsCmd())
	cmd.AddCommand(resolveErrorCmd())

	return cmd
}

func listErrorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <session-id>",
		Short: "List error records for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.GetSessionErrors(ctx, args[0])
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No errors recorded for this session."))
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"ID", "Op", "Code", "Severity", "Message", "Resolved"})
			for _, rec := range records {
				opID := "-"
				if rec.OpID != nil {
					opID = strconv.Itoa(*rec.OpID)
				}
				resolved := ""
				if rec.Resolved {
					resolved = "yes"
				}
				tw.AppendRow(table.Row{rec.ID, opID, rec.Code, string(rec.Severity), rec.Message, resolved})
			}
			tw.Render()
			return nil
		},
	}
}

func resolveErrorCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "resolve <error-id>",
		Short: "Mark an error record resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid error-id %q: must be a positive integer", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ResolveError(ctx, id, note); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Error %d marked resolved", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "how the error was resolved")
	return cmd
}
