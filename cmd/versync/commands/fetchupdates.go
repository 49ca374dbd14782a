package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"versync/internal/domain"
	"versync/internal/pattern"
	"versync/internal/services/delta"
	"versync/internal/services/inventory"
	"versync/internal/services/run"
	"versync/internal/services/transfer"
	"versync/internal/store"
)

// fetch-updates: one job per configured artifact family, newest-only
// strategy, shared FTP connection across families.
func fetchUpdatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-updates",
		Short: "Download the newest update tarballs from the FTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := appCtx.Notifier(recipient, dryRun)
			if err != nil {
				return err
			}
			if len(appCtx.Config.Families) == 0 {
				return &domain.ConfigError{Section: "families", Err: errors.New("no artifact family sections configured")}
			}

			scans := inventory.New(appCtx.Log)

			// Dialed on first scan so a connection failure flows through
			// the coordinator and still produces a failure notification.
			var conn domain.RemoteStore
			defer func() {
				if conn != nil {
					_ = conn.Close()
				}
			}()

			var jobs []run.Job
			for _, fam := range appCtx.Config.Families {
				fam := fam
				var pat *pattern.Pattern

				jobs = append(jobs, run.Job{
					Name: fam.Name,
					Phases: run.Phases{
						Scan: func(ctx context.Context) (domain.Inventory, domain.Inventory, error) {
							var err error
							if pat, err = pattern.Compile(fam.FilenamePattern); err != nil {
								return domain.Inventory{}, domain.Inventory{}, &domain.ConfigError{Section: fam.Name, Key: "filename_pattern", Err: err}
							}
							if conn == nil {
								if conn, err = appCtx.DialFTP(ctx); err != nil {
									return domain.Inventory{}, domain.Inventory{}, err
								}
							}
							remoteInv, err := scans.Remote(ctx, conn, fam.RemoteDirectory, pat)
							if err != nil {
								return domain.Inventory{}, domain.Inventory{}, err
							}
							localInv, err := scans.Local(fam.LocalDirectory, pat, false)
							if err != nil {
								return domain.Inventory{}, domain.Inventory{}, err
							}
							return remoteInv, localInv, nil
						},
						Resolve: delta.NewestOnly,
						Transfer: func(ctx context.Context, plan domain.DeltaPlan, report *domain.Report) error {
							exec := transfer.New(conn,
								store.NewStaging(fam.LocalDirectory),
								store.NewAliasStore(fam.LocalDirectory),
								store.NewMarkerStore(fam.LocalDirectory),
								appCtx.Log.WithField("job", fam.Name))
							res, err := exec.Execute(ctx, plan, transfer.Options{
								RemoteDir: fam.RemoteDirectory,
								AliasFor:  pat.Alias,
							})
							appendResult(report, fam.Name, res.Committed, res.Skipped)
							return err
						},
					},
				})
			}

			coord := run.New("File Update", notifier, appCtx.Log)
			coord.SetDryRun(dryRun)
			return coord.Run(cmd.Context(), jobs...)
		},
	}
}
