package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tyler-paryz/oompa-social/internal/infrastructure/scheduler"
	"github.com/tyler-paryz/oompa-social/internal/infrastructure/scheduler/jobs"
)

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Report analytics totals on an interval",
		Long: `Runs the analytics worker until SIGINT or SIGTERM. With Redis enabled the
totals are read from the shared counters, so several demo processes can be
observed from one worker; otherwise the local bus metrics are reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return runWorker(ctx, a, interval)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "report interval")
	return cmd
}

func runWorker(ctx context.Context, a *app, interval time.Duration) error {
	log := a.log.With("component", "worker")

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: a.log})
	report := jobs.NewReportAnalyticsJob(a.analytics.counts, a.log)
	if err := sched.Register(report, scheduler.Every(interval)); err != nil {
		return fmt.Errorf("register %s: %w", report.Name(), err)
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("worker is running", "interval", interval.String())

	<-ctx.Done()
	log.Info("received shutdown signal, stopping scheduler")

	if err := sched.Stop(); err != nil {
		return err
	}
	for _, job := range sched.ListJobs() {
		log.Info("job summary", "job", job.Name, "runs", job.RunCount, "failures", job.FailCount)
	}
	return nil
}
