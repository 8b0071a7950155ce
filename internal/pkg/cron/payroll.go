package cron

import (
	"context"
	"time"
)

// CutoffRunner processes the weekly payroll cutoff when it is due.
type CutoffRunner interface {
	RunDueCutoff(ctx context.Context) error
}

// PayrollJobs contains payroll-related cron jobs
type PayrollJobs struct {
	runner        CutoffRunner
	checkInterval time.Duration
}

func NewPayrollJobs(runner CutoffRunner, checkInterval time.Duration) *PayrollJobs {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	return &PayrollJobs{
		runner:        runner,
		checkInterval: checkInterval,
	}
}

// RegisterJobs registers the cutoff check. The check runs at startup too, so a
// cutoff missed while the process was down is processed on the next boot.
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("payroll_weekly_cutoff", j.checkInterval, j.runner.RunDueCutoff)
}
