package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RCushmaniii/filesense/internal/cli"
	"github.com/RCushmaniii/filesense/internal/common"
	"github.com/RCushmaniii/filesense/internal/model"
)

func opCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "op",
		Short: "Journal and execute file operations",
		Long: `Execute filesystem mutations with journaling, or drive the journal
directly when another process performs the mutation.`,
	}

	cmd.AddCommand(execOpCmd())
	cmd.AddCommand(logOpCmd())
	cmd.AddCommand(completeOpCmd())
	cmd.AddCommand(failOpCmd())
	cmd.AddCommand(skipOpCmd())

	return cmd
}

type opFlags struct {
	opType          string
	source          string
	destination     string
	suggestedFolder string
	documentType    string
	sizeBytes       int64
	confidence      float64
}

func (f *opFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.opType, "type", "", "operation type (move, copy, create_folder, rename, delete)")
	cmd.Flags().StringVar(&f.source, "source", "", "source path")
	cmd.Flags().StringVar(&f.destination, "dest", "", "destination path")
	cmd.Flags().Int64Var(&f.sizeBytes, "size", 0, "file size in bytes")
	cmd.Flags().Float64Var(&f.confidence, "confidence", 0, "classifier confidence (0-1)")
	cmd.Flags().StringVar(&f.suggestedFolder, "folder", "", "classifier suggested folder")
	cmd.Flags().StringVar(&f.documentType, "doc-type", "", "classifier document type")
	_ = cmd.MarkFlagRequired("type")
}

func (f *opFlags) request() model.OperationRequest {
	filename := filepath.Base(f.source)
	if f.source == "" {
		filename = filepath.Base(f.destination)
	}
	return model.OperationRequest{
		Type:            model.OperationType(f.opType),
		SourcePath:      f.source,
		DestinationPath: f.destination,
		Filename:        filename,
		Extension:       strings.TrimPrefix(filepath.Ext(filename), "."),
		SizeBytes:       f.sizeBytes,
		Confidence:      f.confidence,
		SuggestedFolder: f.suggestedFolder,
		DocumentType:    f.documentType,
	}
}

func execOpCmd() *cobra.Command {
	var flags opFlags

	cmd := &cobra.Command{
		Use:   "exec <session-id>",
		Short: "Execute a filesystem mutation with journaling",
		Long: `Journal the operation as pending, perform it, then record the outcome.
A failed mutation is recorded and reported without aborting the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opID, err := newExecutor(store).Execute(ctx, args[0], flags.request())
			if errors.Is(err, common.ErrFilesystem) {
				fmt.Println(cli.FormatError(fmt.Sprintf("Operation %d failed: %v", opID, err)))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Operation %d completed", opID)))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func logOpCmd() *cobra.Command {
	var flags opFlags

	cmd := &cobra.Command{
		Use:   "log <session-id>",
		Short: "Journal an operation as pending without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			opID, err := newExecutor(store).LogOperation(ctx, args[0], flags.request())
			if err != nil {
				return err
			}

			fmt.Println(opID)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func completeOpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id> <op-id>",
		Short: "Mark a journaled operation completed",
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

			if err := newExecutor(store).CompleteOperation(ctx, args[0], opID); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Operation %d completed", opID)))
			return nil
		},
	}
}

func failOpCmd() *cobra.Command {
	var code, message string

	cmd := &cobra.Command{
		Use:   "fail <session-id> <op-id>",
		Short: "Mark a journaled operation failed",
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

			if err := newExecutor(store).FailOperation(ctx, args[0], opID, code, message); err != nil {
				return err
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf("Operation %d marked failed", opID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "filesystem_error", "error code")
	cmd.Flags().StringVar(&message, "message", "", "error message")
	return cmd
}

func skipOpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <session-id> <op-id>",
		Short: "Mark a journaled pending operation skipped",
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

			if err := newExecutor(store).SkipOperation(ctx, args[0], opID); err != nil {
				return err
			}

			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Operation %d skipped", opID)))
			return nil
		},
	}
}

func parseOpID(arg string) (int, error) {
	opID, err := strconv.Atoi(arg)
	if err != nil || opID <= 0 {
		return 0, fmt.Errorf("invalid op-id %q: must be a positive integer", arg)
	}
	return opID, nil
}
