package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"facturaia/internal/logger"
	"facturaia/internal/port"
)

// OverdueWorker periodically flips unpaid invoices past their due date to
// overdue.
type OverdueWorker struct {
	invoiceRepo port.InvoiceRepository
	interval    time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// NewOverdueWorker creates a new OverdueWorker. A non-positive interval
// defaults to one hour.
func NewOverdueWorker(invoiceRepo port.InvoiceRepository, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueWorker{
		invoiceRepo: invoiceRepo,
		interval:    interval,
		now:         time.Now,
		log:         logger.WithComponent("overdue"),
	}
}

// Start sweeps once immediately and then on every tick until ctx is
// canceled.
func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("overdueWorker: started")
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("overdueWorker: shutdown complete")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of invoices marked overdue.
func (w *OverdueWorker) Sweep(ctx context.Context) int64 {
	n, err := w.invoiceRepo.MarkOverdue(ctx, w.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("overdueWorker: MarkOverdue failed")
		}
		return 0
	}
	if n > 0 {
		w.log.Info().Int64("count", n).Msg("overdueWorker: invoices marked overdue")
	}
	return n
}
