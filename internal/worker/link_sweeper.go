package worker

import (
	"context"
	"log/slog"
	"time"
)

// LinkRepairer repairs broken image links of the most visible characters
type LinkRepairer interface {
	RepairLeaderboardLinks(ctx context.Context) (int, error)
}

// LinkSweeper periodically repairs leaderboard and champion image links
// so readers rarely wait on a regeneration
type LinkSweeper struct {
	repairer LinkRepairer
	interval time.Duration
	logger   *slog.Logger

	stopCtx  context.Context
	stop     context.CancelFunc
	doneChan chan struct{}
}

// NewLinkSweeper creates a new link sweeping worker
func NewLinkSweeper(repairer LinkRepairer, interval time.Duration, logger *slog.Logger) *LinkSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	stopCtx, stop := context.WithCancel(context.Background())
	return &LinkSweeper{
		repairer: repairer,
		interval: interval,
		logger:   logger.With("worker", "link_sweeper"),
		stopCtx:  stopCtx,
		stop:     stop,
		doneChan: make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is done. Either
// one also cancels an in-flight sweep.
func (w *LinkSweeper) Start(ctx context.Context) {
	defer close(w.doneChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	unlink := context.AfterFunc(w.stopCtx, cancel)
	defer unlink()

	w.logger.Info("link sweeper started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			w.logger.Info("link sweeper stopped")
			return
		}
	}
}

// Stop cancels the loop and any in-flight sweep, then waits for Start to return
func (w *LinkSweeper) Stop() {
	w.stop()
	<-w.doneChan
}

// Sweep runs one repair pass
func (w *LinkSweeper) Sweep(ctx context.Context) {
	repaired, err := w.repairer.RepairLeaderboardLinks(ctx)
	if err != nil {
		w.logger.Warn("link sweep failed", "error", err, "repaired", repaired)
		return
	}
	if repaired > 0 {
		w.logger.Info("link sweep repaired images", "repaired", repaired)
	}
}
