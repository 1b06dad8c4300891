// Package scan implements the fire-and-forget scan audit recorder.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/model"
	"github.com/stckr/qr-server-go/internal/repository"
)

const insertTimeout = 5 * time.Second

// Recorder appends scan events off the request path. Record never blocks
// and never surfaces an error: a full queue drops the event, a failed
// insert is logged and swallowed. Resolution and claim responses must not
// depend on audit writes in any way.
type Recorder struct {
	repo  repository.ScanEventRepository
	queue chan model.RecordScanParams

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewRecorder(repo repository.ScanEventRepository, queueSize int) *Recorder {
	r := &Recorder{
		repo:  repo,
		queue: make(chan model.RecordScanParams, queueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues a scan event, dropping it if the queue is full or the
// recorder is closed.
func (r *Recorder) Record(params model.RecordScanParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.queue <- params:
	default:
		log.Warn().
			Str("codeKey", params.CodeKeyNormalized).
			Msg("scan queue full, event dropped")
	}
}

// Close stops intake and drains queued events before returning.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)

	for params := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		if err := r.repo.Insert(ctx, params); err != nil {
			log.Error().
				Err(err).
				Str("codeKey", params.CodeKeyNormalized).
				Msg("failed to record scan event")
		}
		cancel()
	}
}
