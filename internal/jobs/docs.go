// Package jobs provides scheduled background tasks for the order workflow service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds field enabled).
//
// # Available Jobs
//
// 1. StatusReportJob - logs the number of orders per status (default every five minutes)
// 2. PolicyReloadJob - re-reads the capability policy file (every thirty seconds)
//
// # Usage
//
//	jobManager := jobs.NewJobManager(summaryHandler, cfg.StatusReportSchedule, policy, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Job failures are logged and never stop the scheduler. A failed start stops
// any job that was already running.
package jobs
