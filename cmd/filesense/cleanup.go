package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RCushmaniii/filesense/internal/cli"
	"github.com/RCushmaniii/filesense/internal/export"
)

func cleanupCmd() *cobra.Command {
	var days int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Archive and delete sessions past the retention window",
		Long: `Export every session older than the retention window to the archive
directory as plain text, then delete it from the journal. A session whose
export cannot be written is skipped, never deleted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if days == 0 {
				days = viper.GetInt("retention.days")
			}
			if days == 0 {
				days = 90
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			retention := export.NewRetention(store, archiveDir())

			if dryRun {
				expired, err := retention.ListExpired(ctx, days)
				if err != nil {
					return err
				}
				if len(expired) == 0 {
					fmt.Println(cli.SubtleStyle.Render("No sessions past the retention window."))
					return nil
				}
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%d sessions would be archived and deleted:", len(expired))))
				for _, s := range expired {
					fmt.Printf("  %s (completed %s)\n", s.ID, s.CompletedAt.UTC().Format("2006-01-02"))
				}
				return nil
			}

			deleted, err := retention.CleanupOldSessions(ctx, days)
			if err != nil {
				return err
			}

			if deleted == 0 {
				fmt.Println(cli.SubtleStyle.Render("No sessions past the retention window."))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Archived and deleted %d sessions older than %d days", deleted, days)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention window in days (default from config, else 90)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list sessions the sweep would remove without touching them")
	return cmd
}
