package worker

import (
	"context"
	"time"

	"github.com/robfig/cron"

	"github.com/performlikemj/C2M/internal/logger"
	"github.com/performlikemj/C2M/internal/membership"
)

const jobTimeout = 10 * time.Minute

// Worker runs the periodic ledger maintenance jobs: a nightly refresh of
// subscription end dates from the provider and a daily month-end billing
// anchor sweep. Webhooks keep the ledger current in between; the sweeps
// catch deliveries that never arrived.
type Worker struct {
	cron        *cron.Cron
	memberships membership.Service
}

func New(memberships membership.Service) *Worker {
	return &Worker{
		cron:        cron.New(),
		memberships: memberships,
	}
}

func (w *Worker) Start() error {
	// 03:00 nightly, before the gym opens.
	if err := w.cron.AddFunc("0 0 3 * * *", w.runStatusSweep); err != nil {
		return err
	}
	// 04:00 on the 1st, right after a new billing month begins.
	if err := w.cron.AddFunc("0 0 4 1 * *", w.runPeriodSweep); err != nil {
		return err
	}

	w.cron.Start()
	logger.Info("Background worker started")
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
	logger.Info("Background worker stopped")
}

func (w *Worker) runStatusSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := w.memberships.SweepSubscriptionStatuses(ctx); err != nil {
		logger.Error("Subscription status sweep failed", "error", err)
	}
}

func (w *Worker) runPeriodSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := w.memberships.SweepBillingPeriods(ctx); err != nil {
		logger.Error("Billing period sweep failed", "error", err)
	}
}
