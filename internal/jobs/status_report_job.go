package jobs

import (
	"context"
	"log/slog"

	"orderflow/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
)

// DefaultStatusReportSchedule runs the report every five minutes.
const DefaultStatusReportSchedule = "0 */5 * * * *"

// StatusSummaryHandler is implemented by queries.GetStatusSummaryQueryHandler.
type StatusSummaryHandler interface {
	Handle(ctx context.Context, query queries.GetStatusSummaryQuery) (queries.GetStatusSummaryQueryResponse, error)
}

// StatusReportJob logs how many orders sit in each status.
type StatusReportJob struct {
	handler  StatusSummaryHandler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewStatusReportJob creates the job. An empty schedule uses DefaultStatusReportSchedule.
func NewStatusReportJob(handler StatusSummaryHandler, schedule string, logger *slog.Logger) *StatusReportJob {
	if schedule == "" {
		schedule = DefaultStatusReportSchedule
	}
	return &StatusReportJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "status_report_job"),
	}
}

// Start schedules the report.
func (j *StatusReportJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Status report job started", "schedule", j.schedule)
	return nil
}

// RunOnce produces one report.
func (j *StatusReportJob) RunOnce(ctx context.Context) {
	resp, err := j.handler.Handle(ctx, queries.NewGetStatusSummaryQuery())
	if err != nil {
		j.logger.ErrorContext(ctx, "Status report job failed", "error", err)
		return
	}

	attrs := make([]any, 0, len(resp.Counts)+2)
	attrs = append(attrs, "total", resp.Total, "open", resp.Open)
	for _, c := range resp.Counts {
		if c.Count > 0 {
			attrs = append(attrs, c.Status.String(), c.Count)
		}
	}
	j.logger.InfoContext(ctx, "Order status summary", attrs...)
}

// Stop stops the scheduler and waits for a running report to finish.
func (j *StatusReportJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Status report job stopped")
}
