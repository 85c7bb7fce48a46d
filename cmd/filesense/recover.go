package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RCushmaniii/filesense/internal/cli"
	"github.com/RCushmaniii/filesense/internal/export"
	"github.com/RCushmaniii/filesense/internal/recovery"
)

func recoverCmd() *cobra.Command {
	var resume, rollback, discard bool

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Detect and resolve a session left incomplete by a crash",
		Long: `Check for a session left in progress by a previous run. Resume hands it
back for more operations, rollback undoes its completed operations in
reverse order, and discard marks it failed while keeping completed
mutations in place. Run before starting any new session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager := recovery.NewManager(store, newUndoer(store))

			session, err := manager.CheckIncomplete(ctx)
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Println(cli.FormatSuccess("No incomplete sessions."))
				return nil
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf(
				"Session %s is incomplete: %d operations logged, %d successful, %d failed",
				session.ID, session.TotalOps, session.SuccessfulOps, session.FailedOps)))

			choice := ""
			switch {
			case resume:
				choice = "r"
			case rollback:
				choice = "b"
			case discard:
				choice = "d"
			default:
				fmt.Print("[r]esume, roll[b]ack, [d]iscard, or [q]uit? ")
				reader := cli.NewReader(os.Stdin)
				choice, err = reader.ReadLine(ctx)
				if err != nil {
					return err
				}
			}

			switch choice {
			case "r":
				log, err := manager.Resume(ctx, session.ID)
				if err != nil {
					return err
				}
				fmt.Print(export.Render(log))
				fmt.Println(cli.FormatSuccess("Session resumed; continue with 'filesense op exec'."))
			case "b":
				result, err := manager.Rollback(ctx, session.ID)
				if err != nil {
					return err
				}
				printSessionUndoResult(result)
			case "d":
				if err := manager.Discard(ctx, session.ID); err != nil {
					return err
				}
				fmt.Println(cli.FormatWarning("Session discarded; completed mutations were left in place."))
			default:
				fmt.Println(cli.SubtleStyle.Render("No action taken."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "resume the incomplete session")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "undo the incomplete session's completed operations")
	cmd.Flags().BoolVar(&discard, "discard", false, "mark the incomplete session failed without undoing")
	cmd.MarkFlagsMutuallyExclusive("resume", "rollback", "discard")

	return cmd
}
