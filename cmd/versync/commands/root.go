package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"versync/internal/app"
	"versync/internal/domain"
)

var (
	configPath string
	recipient  string
	verbose    bool
	dryRun     bool

	appCtx *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:           "versync",
		Short:         "Unattended version-delta synchronization jobs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			appCtx = app.New(cfg, log)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "/usr/local/etc/versync.conf", "job configuration file")
	root.PersistentFlags().StringVar(&recipient, "recipient", "", "override the configured notification recipient")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "resolve and report, transfer nothing")

	root.AddCommand(fetchUpdatesCmd(), syncFeedCmd(), pushBundlesCmd())
	return root.Execute()
}

// appendResult turns an execution result into report lines.
func appendResult(report *domain.Report, job string, committed, skipped []domain.ArtifactRef) {
	for _, ref := range committed {
		report.Add(fmt.Sprintf("%s: successfully downloaded %q.", job, ref.Name))
	}
	for _, ref := range skipped {
		report.Add(fmt.Sprintf("%s: skipped %q, already imported.", job, ref.Name))
	}
}
