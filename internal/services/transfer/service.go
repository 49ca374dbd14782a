package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
	"versync/internal/store"
)

// sizer is implemented by remote stores that advertise artifact sizes
// (the change-feed does); staged byte counts are checked against it.
type sizer interface {
	Size(name string) (int64, bool)
}

// Service is the transfer executor for one run.
type Service struct {
	remote  domain.RemoteStore
	staging *store.Staging
	aliases domain.AliasStore
	markers domain.MarkerStore
	log     logrus.FieldLogger
}

func New(remote domain.RemoteStore, staging *store.Staging, aliases domain.AliasStore, markers domain.MarkerStore, log logrus.FieldLogger) *Service {
	return &Service{remote: remote, staging: staging, aliases: aliases, markers: markers, log: log}
}

// Options shape one execution.
type Options struct {
	// RemoteDir is the store-relative directory artifacts are fetched from.
	RemoteDir string

	// AliasFor derives the stable alias name for an artifact. Nil disables
	// alias publication.
	AliasFor func(name string) (string, error)

	// Import runs after an artifact is published and before its marker is
	// written. Nil disables the hook. A failing import aborts the rest of
	// the plan and leaves the artifact unmarked, so a rerun retries it.
	Import func(ctx context.Context, finalPath string) error
}

// Result describes what one execution committed.
type Result struct {
	Committed []domain.ArtifactRef
	Skipped   []domain.ArtifactRef // already imported
}

// Execute processes plan in order. Cancellation is honoured between
// artifacts only; a started artifact always runs to its marker or its
// error. The returned Result is valid even when err is non-nil and covers
// the progress made before the failure.
func (s *Service) Execute(ctx context.Context, plan domain.DeltaPlan, opts Options) (Result, error) {
	var res Result
	for _, ref := range plan {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		imported, err := s.markers.HasMarker(ref.Name)
		if err != nil {
			return res, fmt.Errorf("checking import marker for %q: %w", ref.Name, err)
		}
		if imported {
			s.log.WithField("artifact", ref.Name).Info("skipping, already imported")
			res.Skipped = append(res.Skipped, ref)
			continue
		}

		finalPath, err := s.place(ctx, ref, opts)
		if err != nil {
			return res, err
		}
		if err := s.publish(ctx, ref, finalPath, opts); err != nil {
			return res, err
		}
		res.Committed = append(res.Committed, ref)
	}
	return res, nil
}

// place makes the artifact exist at its final path, fetching and staging it
// unless an earlier interrupted run already put it there. Adopting such an
// orphan is safe: it was fully promoted (promotion is atomic) but died
// before publish or marker, both of which are redone by the caller.
func (s *Service) place(ctx context.Context, ref domain.ArtifactRef, opts Options) (string, error) {
	finalPath := filepath.Join(s.staging.Dest(), ref.Name)
	if _, err := os.Stat(finalPath); err == nil {
		s.log.WithField("artifact", ref.Name).Info("adopting previously placed artifact")
		return finalPath, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", &domain.TransferError{Artifact: ref.Name, Err: err}
	}

	rc, err := s.remote.Retrieve(ctx, opts.RemoteDir, ref.Name)
	if err != nil {
		return "", &domain.TransferError{Artifact: ref.Name, Err: err}
	}
	n, err := s.staging.Stage(ref.Name, rc)
	closeErr := rc.Close()
	if err != nil {
		return "", &domain.TransferError{Artifact: ref.Name, Err: err}
	}
	if closeErr != nil {
		s.staging.Discard(ref.Name)
		return "", &domain.TransferError{Artifact: ref.Name, Err: closeErr}
	}
	if sz, ok := s.remote.(sizer); ok {
		if want, known := sz.Size(ref.Name); known && n != want {
			s.staging.Discard(ref.Name)
			return "", &domain.TransferError{Artifact: ref.Name, Err: fmt.Errorf("staged %d bytes, feed advertised %d", n, want)}
		}
	}
	finalPath, err = s.staging.Promote(ref.Name)
	if err != nil {
		return "", &domain.TransferError{Artifact: ref.Name, Err: err}
	}
	s.log.WithFields(logrus.Fields{"artifact": ref.Name, "bytes": n}).Info("transferred")
	return finalPath, nil
}

// publish swaps the alias, runs the import hook, and records the marker.
func (s *Service) publish(ctx context.Context, ref domain.ArtifactRef, finalPath string, opts Options) error {
	if opts.AliasFor != nil {
		alias, err := opts.AliasFor(ref.Name)
		if err != nil {
			return &domain.PublishError{Artifact: ref.Name, Err: err}
		}
		if err := s.aliases.SetCurrent(alias, finalPath); err != nil {
			return &domain.PublishError{Artifact: ref.Name, Err: err}
		}
		s.log.WithFields(logrus.Fields{"alias": alias, "target": finalPath}).Info("repointed alias")
	}

	if opts.Import != nil {
		if err := opts.Import(ctx, finalPath); err != nil {
			return &domain.TransferError{Artifact: ref.Name, Err: fmt.Errorf("import: %w", err)}
		}
	}

	if err := s.markers.SetMarker(ref.Name, finalPath); err != nil {
		return &domain.PublishError{Artifact: ref.Name, Err: fmt.Errorf("recording import marker: %w", err)}
	}
	return nil
}
