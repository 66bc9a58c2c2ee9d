package commands

import (
	"context"
	"fmt"
	"io"
	"kioskassist/lib/telemetry"
	"kioskassist/lib/timezone"
	"kioskassist/services/snapshots"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

type watcher struct {
	env     *env
	flags   *globalFlags
	store   snapshots.Store
	alerter snapshots.Alerter
	out     io.Writer
}

// check fetches attendance once, records a snapshot and alerts on
// subjects under the threshold.
func (w watcher) check(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "watch:check")
	defer span.End()

	records, err := w.env.fetcher.Attendance(ctx, w.flags.explicitCredentials())
	if err != nil {
		return err
	}
	enrollmentId := w.env.guardian.Status().EnrollmentID

	snapshot := snapshots.FromAttendance(enrollmentId, records)
	err = w.store.Push(ctx, snapshots.PushRequest{
		Time:     timezone.Now(),
		Students: []snapshots.StudentSnapshot{snapshot},
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	series, err := w.store.Pull(ctx, enrollmentId)
	if err != nil {
		return fmt.Errorf("read snapshots: %w", err)
	}
	w.render(series)

	threshold := w.env.config.Watch.Threshold
	low := snapshots.BelowThreshold(snapshot, threshold)
	for _, s := range low {
		slog.WarnContext(ctx, "attendance below threshold", "subject", s.Subject, "percentage", s.Percentage, "threshold", threshold)
	}
	if len(low) == 0 || !w.alerter.Enabled() || len(w.env.config.Watch.AlertTo) == 0 {
		return nil
	}
	err = w.alerter.SendLowAttendance(ctx, w.env.config.Watch.AlertTo, enrollmentId, threshold, low)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	slog.InfoContext(ctx, "sent low attendance alert", "to", w.env.config.Watch.AlertTo, "subjects", len(low))
	return nil
}

func (w watcher) render(series []snapshots.SubjectSeries) {
	if w.flags.json {
		err := printJson(w.out, series)
		if err != nil {
			slog.Warn("failed to print snapshots", "err", err)
		}
		return
	}

	t := newTable(w.out)
	t.SetTitle(fmt.Sprintf("Attendance at %s", timezone.Now().Format("02 Jan 15:04")))
	t.AppendHeader(table.Row{"Subject", "Attendance", "Change"})
	for _, s := range series {
		if len(s.Snapshots) == 0 {
			continue
		}
		latest := s.Snapshots[len(s.Snapshots)-1]
		change := "-"
		if delta, ok := s.Change(); ok {
			change = fmt.Sprintf("%+.2f", delta)
		}
		t.AppendRow(table.Row{s.Subject, percent(latest.Percentage), change})
	}
	t.Render()
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [--once]",
		Short: "Periodically snapshots attendance and emails an alert when a subject falls under the threshold.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			store, err := snapshots.Open(e.config.SnapshotsDb)
			if err != nil {
				return err
			}
			defer store.Close()

			w := watcher{
				env:     e,
				flags:   flags,
				store:   store,
				alerter: snapshots.NewAlerter(e.config.Watch.Smtp),
				out:     cmd.OutOrStdout(),
			}

			if once {
				return w.check(ctx)
			}

			telemetry.InstrumentPerfStats(ctx)

			scheduler := cron.New(cron.WithLocation(timezone.Location))
			_, err = scheduler.AddFunc(e.config.Watch.Schedule, func() {
				err := w.check(ctx)
				if err != nil {
					slog.ErrorContext(ctx, "attendance check failed", "err", describeError(err))
				}
			})
			if err != nil {
				return fmt.Errorf("schedule %q: %w", e.config.Watch.Schedule, err)
			}

			// a failed first check is fatal, it usually means the credentials are wrong
			err = w.check(ctx)
			if err != nil {
				return err
			}

			slog.InfoContext(ctx, "watching attendance", "schedule", e.config.Watch.Schedule)
			scheduler.Start()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit instead of running on the schedule.")
	return cmd
}
