package cmd

import (
	"errors"
	"fmt"

	"github.com/smazurov/multistream/internal/logging"
	"github.com/smazurov/multistream/internal/updater"
	"github.com/spf13/cobra"
)

const releaseRepository = "smazurov/multistream"

func newUpdateCmd(global *globalOptions) *cobra.Command {
	var (
		apply      bool
		rollback   bool
		prerelease bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and optionally install it",
		Long: `Check GitHub releases for a newer multistream. With --apply the running
executable is backed up and replaced; --rollback restores the backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if apply && rollback {
				return errors.New("--apply and --rollback are mutually exclusive")
			}
			setupLogging(cmd, global)

			u, err := updater.New(updater.Options{
				Repository: releaseRepository,
				Prerelease: prerelease,
			}, logging.GetLogger("updater"))
			if err != nil {
				return err
			}
			if !u.Enabled() {
				return fmt.Errorf("self-update unavailable: %s", u.DisabledReason())
			}

			out := cmd.OutOrStdout()
			switch {
			case rollback:
				if err := u.Rollback(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Restored %s; restart multistream to use it\n", u.Status().BackupVersion)
				return nil

			case apply:
				if err := u.Apply(cmd.Context()); err != nil {
					if updater.HasCode(err, updater.ErrCodeNoUpdate) {
						fmt.Fprintln(out, "Already running the latest version")
						return nil
					}
					return err
				}
				fmt.Fprintf(out, "Updated to %s; restart multistream to use it\n", u.Status().TargetVersion)
				return nil
			}

			info, err := u.Check(cmd.Context())
			if err != nil {
				return err
			}
			if !info.UpdateAvailable {
				fmt.Fprintf(out, "multistream %s is up to date\n", info.CurrentVersion)
				return nil
			}
			fmt.Fprintf(out, "multistream %s is available (running %s)\n", info.LatestVersion, info.CurrentVersion)
			if info.ReleaseURL != "" {
				fmt.Fprintln(out, info.ReleaseURL)
			}
			fmt.Fprintln(out, "Run 'multistream update --apply' to install it")
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&apply, "apply", false, "Download and install the latest release")
	f.BoolVar(&rollback, "rollback", false, "Restore the binary replaced by the last --apply")
	f.BoolVar(&prerelease, "prerelease", false, "Include prereleases")
	return cmd
}
