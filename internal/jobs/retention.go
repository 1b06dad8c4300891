package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/repository"
)

// RetentionJob prunes old scan events on a ticker. The audit log is
// analytics-only and never read back on a request path, so pruning is safe
// at any time.
type RetentionJob struct {
	scanEventRepo repository.ScanEventRepository
	retention     time.Duration
	interval      time.Duration
	done          chan struct{}
}

func NewRetentionJob(
	scanEventRepo repository.ScanEventRepository,
	retention time.Duration,
	interval time.Duration,
) *RetentionJob {
	return &RetentionJob{
		scanEventRepo: scanEventRepo,
		retention:     retention,
		interval:      interval,
		done:          make(chan struct{}),
	}
}

func (j *RetentionJob) Start() {
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Dur("retention", j.retention).
		Msg("retention job started")
}

func (j *RetentionJob) Stop() {
	close(j.done)
	log.Info().Msg("retention job stopped")
}

func (j *RetentionJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *RetentionJob) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	count, err := j.scanEventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune scan events")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("pruned scan events")
	}
}
