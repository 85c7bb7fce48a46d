package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/RCushmaniii/filesense/internal/cli"
	"github.com/RCushmaniii/filesense/internal/model"
)

func undoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse recorded operations",
		Long: `Reverse a single completed operation or an entire session by replaying
type-specific inverse actions. Later operations are always undone first.`,
	}

	cmd.AddCommand(undoOpCmd())
	cmd.AddCommand(undoSessionCmd())

	return cmd
}

func undoOpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "op <session-id> <op-id>",
		Short: "Undo a single operation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opID, err := parseOpID(args[1])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := newUndoer(store).UndoOperation(ctx, args[0], opID)
			if err != nil {
				return err
			}

			switch {
			case result.AlreadyDone:
				fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Operation %d already undone", opID)))
			case result.Success:
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Operation %d undone, restored %s", opID, result.RevertedPath)))
			default:
				fmt.Println(cli.FormatError(fmt.Sprintf("Undo of operation %d failed: %s", opID, result.Message)))
			}
			return nil
		},
	}
}

func undoSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session <session-id>",
		Short: "Undo every completed operation of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			undoer := newUndoer(store)

			var bar *progressbar.ProgressBar
			undoer.OnProgress = func(processed, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionShowCount(),
						progressbar.OptionSetWidth(40),
						progressbar.OptionSetDescription("Undoing operations..."),
					)
				}
				_ = bar.Set(processed)
			}

			result, err := undoer.UndoSession(ctx, args[0])
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if err != nil {
				return err
			}

			printSessionUndoResult(result)
			return nil
		},
	}
}

func printSessionUndoResult(result model.SessionUndoResult) {
	switch {
	case result.Reverted == 0 && result.Failed == 0:
		fmt.Println(cli.SubtleStyle.Render("Nothing to undo."))
	case result.Success():
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Reverted %d operations", result.Reverted)))
	default:
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Reverted %d operations, %d failed", result.Reverted, result.Failed)))
	}

	for _, msg := range result.Errors {
		fmt.Println(cli.ErrorStyle.Render("  " + msg))
	}
}
