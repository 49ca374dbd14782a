package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"versync/internal/domain"
)

// State is the coordinator's position in the run lifecycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateResolving
	StateTransferring
	StatePublishing
	StateReporting
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:         "idle",
	StateScanning:     "scanning",
	StateResolving:    "resolving",
	StateTransferring: "transferring",
	StatePublishing:   "publishing",
	StateReporting:    "reporting",
	StateDone:         "done",
	StateFailed:       "failed",
}

func (s State) String() string { return stateNames[s] }

// Phases are the callbacks one job plugs into the run lifecycle.
type Phases struct {
	// Scan snapshots the remote and local inventories.
	Scan func(ctx context.Context) (remote, local domain.Inventory, err error)

	// Resolve computes the delta plan from the two snapshots.
	Resolve func(remote, local domain.Inventory) domain.DeltaPlan

	// Transfer executes the plan, appending progress lines to report.
	Transfer func(ctx context.Context, plan domain.DeltaPlan, report *domain.Report) error
}

// Job is one named unit of work within a run.
type Job struct {
	Name   string
	Phases Phases
}

// Coordinator owns the run state machine, the report, and the single
// end-of-run notification.
type Coordinator struct {
	subject  string
	notifier domain.Notifier
	log      logrus.FieldLogger
	dryRun   bool
	state    State
}

func New(subject string, notifier domain.Notifier, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{subject: subject, notifier: notifier, log: log, state: StateIdle}
}

// SetDryRun makes Run stop after resolving: plans are reported, nothing is
// transferred.
func (c *Coordinator) SetDryRun(v bool) { c.dryRun = v }

// State returns the coordinator's current state.
func (c *Coordinator) State() State { return c.state }

func (c *Coordinator) to(s State) {
	c.log.WithFields(logrus.Fields{"from": c.state, "to": s}).Debug("state transition")
	c.state = s
}

// Run processes jobs in order and notifies exactly once. The returned error
// is the fatal condition that moved the run to Failed, nil on Done.
func (c *Coordinator) Run(ctx context.Context, jobs ...Job) error {
	report := &domain.Report{}

	runErr := c.execute(ctx, jobs, report)

	c.to(StateReporting)
	priority := domain.PriorityLow
	if runErr != nil {
		report.Add("Run FAILED: " + causeChain(runErr))
		priority = domain.PriorityHigh
	}
	if report.Empty() {
		report.Add("Nothing to do.")
	}

	if err := c.notifier.Notify(c.subject, report.String(), priority); err != nil {
		c.to(StateFailed)
		if runErr != nil {
			return fmt.Errorf("notifying about failed run: %w (run error: %v)", err, runErr)
		}
		return fmt.Errorf("notifying: %w", err)
	}

	if runErr != nil {
		c.to(StateFailed)
		return runErr
	}
	c.to(StateDone)
	return nil
}

func (c *Coordinator) execute(ctx context.Context, jobs []Job, report *domain.Report) error {
	for _, job := range jobs {
		log := c.log.WithField("job", job.Name)

		c.to(StateScanning)
		remote, local, err := job.Phases.Scan(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", job.Name, err)
		}

		c.to(StateResolving)
		plan := job.Phases.Resolve(remote, local)
		log.WithField("plan", len(plan)).Info("resolved delta")
		if len(plan) == 0 {
			// Straight to reporting for this job.
			report.Add(fmt.Sprintf("%s: already current, nothing to do.", job.Name))
			continue
		}
		if c.dryRun {
			for _, ref := range plan {
				report.Add(fmt.Sprintf("%s: would transfer %q.", job.Name, ref.Name))
			}
			continue
		}

		c.to(StateTransferring)
		if err := job.Phases.Transfer(ctx, plan, report); err != nil {
			return fmt.Errorf("%s: %w", job.Name, err)
		}
		c.to(StatePublishing)
	}
	return nil
}

// causeChain renders err and its wrapped causes, outermost first.
func causeChain(err error) string {
	var parts []string
	seen := map[string]bool{}
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if !seen[msg] {
			parts = append(parts, msg)
			seen[msg] = true
		}
	}
	return strings.Join(parts, "\n  caused by: ")
}
