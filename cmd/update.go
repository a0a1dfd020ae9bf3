package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/updater"
)

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var (
		repository string
		prerelease bool
		check      bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Self-update to the latest release",
		Long: `Checks the release repository for a newer build. Without --check the ` +
			`new binary replaces the current one in place, keeping a backup for rollback.`,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			svc, err := updater.NewService(&updater.Options{
				Repository: repository,
				Prerelease: prerelease,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "update: %v\n", err)
				os.Exit(1)
			}
			if !svc.IsEnabled() {
				fmt.Fprintf(os.Stderr, "update: %s\n", svc.DisabledReason())
				os.Exit(1)
			}

			ctx := context.Background()
			info, err := svc.CheckForUpdate(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "update: %v\n", err)
				os.Exit(1)
			}
			if !info.UpdateAvailable {
				fmt.Printf("vidplayer is up to date (%s)\n", info.CurrentVersion)
				return
			}

			fmt.Printf("update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if info.ReleaseURL != "" {
				fmt.Printf("  %s\n", info.ReleaseURL)
			}
			if check {
				return
			}

			if err := svc.ApplyUpdate(ctx); err != nil {
				var updErr *updater.Error
				if errors.As(err, &updErr) {
					fmt.Fprintf(os.Stderr, "update: %s\n", updErr.Message)
				} else {
					fmt.Fprintf(os.Stderr, "update: %v\n", err)
				}
				os.Exit(1)
			}
			fmt.Printf("updated to %s\n", info.LatestVersion)
		},
	}

	cmd.Flags().StringVar(&repository, "repository", "zachdedoo13/vidplayer", "GitHub repository slug to update from")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prerelease builds")
	cmd.Flags().BoolVar(&check, "check", false, "Only check for an update, do not apply it")

	return cmd
}
