package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultPolicyReloadSchedule re-reads the capability policy every thirty seconds.
const DefaultPolicyReloadSchedule = "*/30 * * * * *"

// PolicySyncer is implemented by policy.StaticPolicy.
type PolicySyncer interface {
	Sync() error
}

// PolicyReloadJob picks up edits to the capability policy file without a restart.
// A policy that fails to parse is logged and the previous one stays in force.
type PolicyReloadJob struct {
	policy PolicySyncer
	cron   *cron.Cron
	logger *slog.Logger
}

func NewPolicyReloadJob(policy PolicySyncer, logger *slog.Logger) *PolicyReloadJob {
	return &PolicyReloadJob{
		policy: policy,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "policy_reload_job"),
	}
}

func (j *PolicyReloadJob) Start() error {
	_, err := j.cron.AddFunc(DefaultPolicyReloadSchedule, func() {
		j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Policy reload job started")
	return nil
}

func (j *PolicyReloadJob) RunOnce(ctx context.Context) {
	if err := j.policy.Sync(); err != nil {
		j.logger.ErrorContext(ctx, "Policy reload failed", "error", err)
	}
}

func (j *PolicyReloadJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Policy reload job stopped")
}
