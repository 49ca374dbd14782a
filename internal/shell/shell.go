// Package shell runs the external helper commands some jobs delegate to.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
)

// Runner invokes commands with combined output capture. Non-zero exit is an
// error carrying the tail of the output for the run report.
type Runner struct {
	Log logrus.FieldLogger
}

var _ domain.Invoker = (*Runner)(nil)

// outputTail bounds how much helper output ends up inside error messages.
const outputTail = 2048

func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	r.Log.WithFields(logrus.Fields{"command": name, "args": args}).Info("invoking helper")

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		out := buf.Bytes()
		if len(out) > outputTail {
			out = out[len(out)-outputTail:]
		}
		return fmt.Errorf("%s: %w\n%s", name, err, bytes.TrimSpace(out))
	}
	return nil
}
