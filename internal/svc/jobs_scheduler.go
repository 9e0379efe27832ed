package svc

import (
	"github.com/ze-tech/passbold/internal/cleanup"
	"github.com/ze-tech/passbold/internal/env"
	"github.com/ze-tech/passbold/internal/jobs"
)

func (r *Registry) createJobsScheduler() (*jobs.Scheduler, error) {
	scheduler, err := jobs.NewScheduler(r.GetLogger(), r.GetDbPool(), r.GetMailer(), r.GetTracers().Always())
	if err != nil {
		return nil, err
	}

	if cron := env.CleanupPendingSetupCron(); cron != nil {
		err = scheduler.RegisterCronJob(
			*cron,
			jobs.NewJob(
				"PendingMfaSetupCleanup",
				cleanup.RunPendingMfaSetupCleanup,
				env.CleanupPendingSetupTimeout(),
			),
		)
		if err != nil {
			return nil, err
		}
	}

	return scheduler, nil
}
