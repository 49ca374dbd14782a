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

// sync-feed: download every changefile newer than the last contiguous
// local point and run the configured importer on each one.
func syncFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-feed",
		Short: "Import new changefiles from the HTTP change-feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := appCtx.Notifier(recipient, dryRun)
			if err != nil {
				return err
			}
			feedCfg := appCtx.Config.Feed
			if feedCfg == nil {
				return &domain.ConfigError{Section: "Feed", Err: errors.New("section required")}
			}

			scans := inventory.New(appCtx.Log)

			var pat *pattern.Pattern
			var feed domain.RemoteStore

			importHook := func(ctx context.Context, finalPath string) error { return nil }
			if feedCfg.ImportCommand != "" {
				invoker := appCtx.Invoker()
				importHook = func(ctx context.Context, finalPath string) error {
					return invoker.Run(ctx, feedCfg.ImportCommand, finalPath)
				}
			}

			job := run.Job{
				Name: "changefiles",
				Phases: run.Phases{
					Scan: func(ctx context.Context) (domain.Inventory, domain.Inventory, error) {
						var err error
						if pat, err = pattern.Compile(feedCfg.FilenamePattern); err != nil {
							return domain.Inventory{}, domain.Inventory{}, &domain.ConfigError{Section: "Feed", Key: "filename_pattern", Err: err}
						}
						if feed, err = appCtx.FeedStore(); err != nil {
							return domain.Inventory{}, domain.Inventory{}, err
						}
						remoteInv, err := scans.Remote(ctx, feed, "", pat)
						if err != nil {
							return domain.Inventory{}, domain.Inventory{}, err
						}
						localInv, err := scans.Local(feedCfg.LocalDirectory, pat, false)
						if err != nil {
							return domain.Inventory{}, domain.Inventory{}, err
						}
						return remoteInv, localInv, nil
					},
					Resolve: func(remote, local domain.Inventory) domain.DeltaPlan {
						return delta.SinceContiguous(remote, local, feedCfg.BackfillGaps)
					},
					Transfer: func(ctx context.Context, plan domain.DeltaPlan, report *domain.Report) error {
						exec := transfer.New(feed,
							store.NewStaging(feedCfg.LocalDirectory),
							store.NewAliasStore(feedCfg.LocalDirectory),
							store.NewMarkerStore(feedCfg.LocalDirectory),
							appCtx.Log.WithField("job", "changefiles"))
						res, err := exec.Execute(ctx, plan, transfer.Options{
							AliasFor: pat.Alias,
							Import:   importHook,
						})
						appendResult(report, "changefiles", res.Committed, res.Skipped)
						return err
					},
				},
			}

			coord := run.New("Changefile Import", notifier, appCtx.Log)
			coord.SetDryRun(dryRun)
			return coord.Run(cmd.Context(), job)
		},
	}
}
