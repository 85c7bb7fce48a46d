package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RCushmaniii/filesense/internal/cli"
	"github.com/RCushmaniii/filesense/internal/export"
	"github.com/RCushmaniii/filesense/internal/model"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage organization sessions",
		Long:  `Start, finish, inspect, and export the sessions recorded in the activity journal.`,
	}

	cmd.AddCommand(startSessionCmd())
	cmd.AddCommand(finishSessionCmd())
	cmd.AddCommand(listSessionsCmd())
	cmd.AddCommand(showSessionCmd())
	cmd.AddCommand(exportSessionCmd())

	return cmd
}

func startSessionCmd() *cobra.Command {
	var mode, userType string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new session",
		Long:  `Open a new organization session. Only one session may be in progress at a time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.CountIncompleteSessions(ctx)
			if err != nil {
				return fmt.Errorf("failed to check for incomplete sessions: %w", err)
			}
			if count > 0 {
				fmt.Println(cli.FormatWarning("An incomplete session exists; run 'filesense recover' first."))
			}

			session, err := newExecutor(store).StartSession(ctx, mode, userType)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Session started"))
			fmt.Println(session.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "organization mode tag")
	cmd.Flags().StringVar(&userType, "user-type", "", "user type tag")
	return cmd
}

func finishSessionCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "finish <session-id>",
		Short: "Close a session with a terminal status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := newExecutor(store).CompleteSession(ctx, args[0], model.SessionStatus(status)); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Session marked %s", status)))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(model.SessionCompleted), "terminal status (completed, partial, failed)")
	return cmd
}

func listSessionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListRecentSessions(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No sessions recorded yet."))
				return nil
			}

			now := time.Now().UTC()
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Session", "Started", "Status", "Ops", "OK", "Failed"})
			for _, s := range sessions {
				tw.AppendRow(table.Row{
					s.ID,
					export.FormatAge(s.StartedAt, now),
					string(s.Status),
					s.TotalOps,
					s.SuccessfulOps,
					s.FailedOps,
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions to show")
	return cmd
}

func showSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the full log of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			log, err := store.GetSessionLog(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Print(export.Render(log))
			return nil
		},
	}
}

func exportSessionCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session as plain text",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			text, err := export.NewExporter(store).Export(ctx, args[0])
			if err != nil {
				return err
			}

			if outputPath == "" {
				fmt.Print(text)
				return nil
			}

			if err := os.WriteFile(outputPath, []byte(text), 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Exported to " + outputPath))
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write export to a file instead of stdout")
	return cmd
}
