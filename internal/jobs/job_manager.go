package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	statusReportJob *StatusReportJob
	policyReloadJob *PolicyReloadJob
}

// NewJobManager creates a job manager. policy may be nil when the built-in
// capability policy is in use and there is nothing to reload.
func NewJobManager(
	summaryHandler StatusSummaryHandler,
	reportSchedule string,
	policy PolicySyncer,
	logger *slog.Logger,
) *JobManager {
	jm := &JobManager{
		statusReportJob: NewStatusReportJob(summaryHandler, reportSchedule, logger),
	}
	if policy != nil {
		jm.policyReloadJob = NewPolicyReloadJob(policy, logger)
	}
	return jm
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.statusReportJob.Start(); err != nil {
		return fmt.Errorf("failed to start status report job: %w", err)
	}

	if jm.policyReloadJob != nil {
		if err := jm.policyReloadJob.Start(); err != nil {
			// Stop already started jobs if this one fails
			jm.statusReportJob.Stop()
			return fmt.Errorf("failed to start policy reload job: %w", err)
		}
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.policyReloadJob != nil {
		jm.policyReloadJob.Stop()
	}
	jm.statusReportJob.Stop()
}
