package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finledger/internal/amqp"
	"finledger/internal/services"
	"finledger/internal/sheets"
)

const (
	JobRecurring    = "recurring-tick"
	JobWeeklyReport = "weekly-budget-report"
)

// Clock is an hour and minute of the day.
type Clock struct {
	Hour   int
	Minute int
}

// RecurringJob ticks the recurring processor once a day at clock in loc.
func RecurringJob(p *services.RecurringProcessor, at Clock, loc *time.Location) Job {
	return Job{
		Name: JobRecurring,
		Next: func(after time.Time) time.Time {
			return NextDaily(after, at.Hour, at.Minute, loc)
		},
		Run: func(ctx context.Context, now time.Time) error {
			res, err := p.ProcessDueRules(ctx, now)
			if err != nil {
				return err
			}
			if res.Failed > 0 {
				slog.WarnContext(ctx, "Some recurring rules failed", "failed", res.Failed)
			}
			return nil
		},
	}
}

// WeeklyReportJob publishes budget reports and, when exporter is set,
// exports every user's balance snapshot, once a week.
func WeeklyReportJob(tracker *services.BudgetTracker, ledger *services.LedgerService, exporter sheets.SnapshotExporter, day time.Weekday, at Clock, loc *time.Location) Job {
	return Job{
		Name: JobWeeklyReport,
		Next: func(after time.Time) time.Time {
			return NextWeekly(after, day, at.Hour, at.Minute, loc)
		},
		Run: func(ctx context.Context, now time.Time) error {
			_, reportErr := tracker.RunWeeklyReports(ctx, now)
			var exportErr error
			if exporter != nil {
				_, exportErr = ExportSnapshots(ctx, ledger, exporter)
			}
			return errors.Join(reportErr, exportErr)
		},
	}
}

// ExportSnapshots writes the current balance snapshot of every known user.
// A failing user is logged and skipped.
func ExportSnapshots(ctx context.Context, ledger *services.LedgerService, exporter sheets.SnapshotExporter) (int, error) {
	users, err := ledger.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	exported := 0
	for _, userID := range users {
		snap, err := ledger.GetBalanceSnapshot(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to build balance snapshot", "user_id", userID, "error", err)
			continue
		}
		if _, err := exporter.Export(ctx, snap); err != nil {
			slog.ErrorContext(ctx, "Failed to export balance snapshot", "user_id", userID, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// EventLogger handles consumed ledger events by logging them. It acks every
// well-formed event.
type EventLogger struct{}

func (EventLogger) Handle(ctx context.Context, event *amqp.LedgerEvent) error {
	if event == nil {
		return errors.New("nil event")
	}
	slog.InfoContext(ctx, "Ledger event",
		"event_id", event.ID.String(),
		"event_type", event.Type,
		"user_id", event.UserID,
		"occurred_at", event.OccurredAt.Format(time.RFC3339),
		"payload_bytes", len(event.Payload))
	return nil
}

// HandleFunc adapts Handle to the consumer callback signature.
func (l EventLogger) HandleFunc(ctx context.Context) func(*amqp.LedgerEvent) error {
	return func(event *amqp.LedgerEvent) error {
		return l.Handle(ctx, event)
	}
}
