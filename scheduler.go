package main

import (
	"context"
	"time"

	"bitbucket.org/nusalink/ispbilling_backend/config"
	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/routeros"
	"bitbucket.org/nusalink/ispbilling_backend/workflow"
	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"
)

const (
	overdueLockKey    = "lock:overdue-run"
	generationLockKey = "lock:invoice-generation"
	jobLockTTL        = 10 * time.Minute
)

// withJobLock serializes a scheduled job across replicas. Without Redis the
// job runs unguarded; the engines are idempotent so a duplicate run is noise,
// not corruption.
func withJobLock(ctx context.Context, key string, job func(ctx context.Context)) {
	logger := config.GetLogger()
	redisLock := config.GetRedisLock()
	if redisLock == nil {
		job(ctx)
		return
	}

	lock, err := redisLock.Obtain(ctx, key, jobLockTTL, nil)
	if err == redislock.ErrNotObtained {
		config.LogInfo(logger, "scheduler.go", "withJobLock", "another replica holds "+key+"; skipping", nil)
		return
	}
	if err != nil {
		config.LogError(logger, "scheduler.go", "withJobLock", "Obtain", key, err)
		job(ctx)
		return
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			config.LogError(logger, "scheduler.go", "withJobLock", "Release", key, releaseErr)
		}
	}()

	job(ctx)
}

func runOverdueJob(ctx context.Context, connector routeros.Connector) {
	withJobLock(ctx, overdueLockKey, func(ctx context.Context) {
		if _, err := workflow.DisableOverdueCustomers(ctx, time.Now(), connector); err != nil {
			config.LogError(config.GetLogger(), "scheduler.go", "runOverdueJob", "DisableOverdueCustomers", nil, err)
		}
	})
}

// runGenerationJob fires daily and generates only when today is the
// configured invoice day. The day-of-month lives in settings, so it cannot
// be baked into the cron expression.
func runGenerationJob(ctx context.Context, loc *time.Location) {
	logger := config.GetLogger()
	setting, err := models.GetSetting(ctx)
	if err != nil {
		config.LogError(logger, "scheduler.go", "runGenerationJob", "GetSetting", nil, err)
		return
	}

	now := time.Now().In(loc)
	if now.Day() != setting.InvoiceDay() {
		return
	}

	withJobLock(ctx, generationLockKey, func(ctx context.Context) {
		if _, err := workflow.GenerateMonthlyInvoices(ctx, now.Month(), now.Year()); err != nil {
			config.LogError(logger, "scheduler.go", "runGenerationJob", "GenerateMonthlyInvoices", nil, err)
		}
	})
}

// startScheduler wires the two recurring engines: invoice generation at
// 01:00 and the overdue sweep at 02:00, both on the billing timezone.
func startScheduler(ctx context.Context, connector routeros.Connector) (*cron.Cron, error) {
	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc("0 1 * * *", func() { runGenerationJob(ctx, loc) }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("0 2 * * *", func() { runOverdueJob(ctx, connector) }); err != nil {
		return nil, err
	}
	c.Start()

	config.LogInfo(config.GetLogger(), "scheduler.go", "startScheduler",
		"scheduler started (generation 01:00, overdue sweep 02:00, tz "+models.DefaultTimezone+")", nil)
	return c, nil
}
