package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"versync/internal/domain"
	"versync/internal/pattern"
	"versync/internal/services/delta"
	"versync/internal/services/inventory"
	"versync/internal/services/run"
	"versync/internal/store"
)

// push-bundles: upload every archive bundle found under the upload root,
// then move the archives to the backup directory. With transfer_command
// configured the bulk upload is delegated to that helper; otherwise each
// bundle is streamed over SFTP directly.
func pushBundlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-bundles",
		Short: "Upload local archive bundles to the SFTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := appCtx.Notifier(recipient, dryRun)
			if err != nil {
				return err
			}
			up := appCtx.Config.Upload
			if up == nil {
				return &domain.ConfigError{Section: "Upload", Err: errors.New("section required")}
			}
			if appCtx.Config.SFTP == nil {
				return &domain.ConfigError{Section: "SFTP", Err: errors.New("section required")}
			}

			scans := inventory.New(appCtx.Log)
			markers := store.NewMarkerStore(up.LocalDirectory)

			job := run.Job{
				Name: "bundles",
				Phases: run.Phases{
					Scan: func(ctx context.Context) (domain.Inventory, domain.Inventory, error) {
						pat, err := pattern.Compile(up.FilenamePattern)
						if err != nil {
							return domain.Inventory{}, domain.Inventory{}, &domain.ConfigError{Section: "Upload", Key: "filename_pattern", Err: err}
						}
						localInv, err := scans.Local(up.LocalDirectory, pat, true)
						if err != nil {
							return domain.Inventory{}, domain.Inventory{}, err
						}
						// The upload destination is not listed; the import
						// markers are what prevents double upload, and they
						// survive the backup move of the source archive.
						return domain.NewInventory(nil), localInv, nil
					},
					Resolve: func(remote, local domain.Inventory) domain.DeltaPlan {
						// Push direction: the local tree is the source, so
						// it takes the resolver's "remote" position.
						return delta.SinceContiguous(local, remote, true)
					},
					Transfer: func(ctx context.Context, plan domain.DeltaPlan, report *domain.Report) error {
						return pushBundles(ctx, plan, markers, report)
					},
				},
			}

			coord := run.New("Transfer Bundles", notifier, appCtx.Log)
			coord.SetDryRun(dryRun)
			return coord.Run(cmd.Context(), job)
		},
	}
}

// pushBundles uploads the unmarked bundles in plan, moves each transferred
// archive to the backup directory and records its marker.
func pushBundles(ctx context.Context, plan domain.DeltaPlan, markers domain.MarkerStore, report *domain.Report) error {
	up := appCtx.Config.Upload

	var pending []domain.ArtifactRef
	for _, ref := range plan {
		imported, err := markers.HasMarker(markerName(ref))
		if err != nil {
			return err
		}
		if imported {
			report.Add(fmt.Sprintf("bundles: skipped %q, already transferred.", ref.Name))
			continue
		}
		pending = append(pending, ref)
	}
	if len(pending) == 0 {
		return nil
	}

	if up.TransferCommand != "" {
		if err := pushViaHelper(ctx, pending, report); err != nil {
			return err
		}
	} else {
		if err := pushViaSFTP(ctx, pending, report); err != nil {
			return err
		}
	}

	// Archives leave the upload tree once transferred; the marker is what
	// keeps the record.
	for _, ref := range pending {
		src := filepath.Join(up.LocalDirectory, ref.Name)
		if err := store.MoveFile(src, up.BackupDirectory); err != nil {
			return &domain.PublishError{Artifact: ref.Name, Err: fmt.Errorf("moving to backup: %w", err)}
		}
		backup := filepath.Join(up.BackupDirectory, filepath.Base(ref.Name))
		if err := markers.SetMarker(markerName(ref), backup); err != nil {
			return &domain.PublishError{Artifact: ref.Name, Err: err}
		}
	}
	return nil
}

// pushViaHelper hands the whole directory set to the configured transfer
// helper in one invocation, the way the bundled batch script expects it.
func pushViaHelper(ctx context.Context, pending []domain.ArtifactRef, report *domain.Report) error {
	up := appCtx.Config.Upload
	sftpCfg := appCtx.Config.SFTP

	dirSet := map[string]bool{}
	for _, ref := range pending {
		dirSet[ref.Location] = true
	}
	dirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	argv := append([]string{
		sftpCfg.Host, sftpCfg.Username, sftpCfg.Keyfile,
		up.LocalDirectory, up.RemoteDirectory,
	}, dirs...)
	if err := appCtx.Invoker().Run(ctx, up.TransferCommand, argv...); err != nil {
		return &domain.TransferError{Artifact: up.LocalDirectory, Err: err}
	}

	for _, d := range dirs {
		report.Add(fmt.Sprintf("bundles: transferred directory %q.", d))
	}
	for _, ref := range pending {
		report.Add(fmt.Sprintf("bundles: found %q.", ref.Name))
	}
	return nil
}

// pushViaSFTP streams each bundle over SFTP, oldest first, aborting the
// rest of the plan on the first failure.
func pushViaSFTP(ctx context.Context, pending []domain.ArtifactRef, report *domain.Report) error {
	up := appCtx.Config.Upload

	conn, err := appCtx.DialSFTP()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, ref := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := os.Open(filepath.Join(up.LocalDirectory, ref.Name))
		if err != nil {
			return &domain.TransferError{Artifact: ref.Name, Err: err}
		}
		remoteDir := path.Join(up.RemoteDirectory, filepath.ToSlash(ref.Location))
		err = conn.Store(ctx, remoteDir, filepath.Base(ref.Name), f)
		_ = f.Close()
		if err != nil {
			return &domain.TransferError{Artifact: ref.Name, Err: err}
		}
		report.Add(fmt.Sprintf("bundles: uploaded %q.", ref.Name))
	}
	return nil
}

// markerName flattens a bundle's tree-relative name into a single marker
// filename; markers live in one flat directory.
func markerName(ref domain.ArtifactRef) string {
	return strings.ReplaceAll(filepath.ToSlash(ref.Name), "/", "_")
}
