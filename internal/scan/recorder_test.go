package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stckr/qr-server-go/internal/model"
)

type captureRepo struct {
	mu       sync.Mutex
	inserted []model.RecordScanParams
	err      error
}

func (r *captureRepo) Insert(ctx context.Context, params model.RecordScanParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, params)
	return nil
}

func (r *captureRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *captureRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

func TestRecorder_WritesEvents(t *testing.T) {
	repo := &captureRepo{}
	recorder := NewRecorder(repo, 16)

	recorder.Record(model.RecordScanParams{CodeKeyRaw: "x7qk2p", CodeKeyNormalized: "X7QK2P"})
	recorder.Record(model.RecordScanParams{CodeKeyRaw: "b12f4", CodeKeyNormalized: "B12F4"})

	// Close drains the queue before returning.
	recorder.Close()

	require.Equal(t, 2, repo.count())
	assert.Equal(t, "X7QK2P", repo.inserted[0].CodeKeyNormalized)
	assert.Equal(t, "B12F4", repo.inserted[1].CodeKeyNormalized)
}

func TestRecorder_SwallowsInsertFailures(t *testing.T) {
	repo := &captureRepo{err: errors.New("insert failed")}
	recorder := NewRecorder(repo, 16)

	// Record must not surface or propagate the failure.
	recorder.Record(model.RecordScanParams{CodeKeyNormalized: "X7QK2P"})
	recorder.Close()

	assert.Equal(t, 0, repo.count())
}

func TestRecorder_RecordAfterCloseIsNoop(t *testing.T) {
	repo := &captureRepo{}
	recorder := NewRecorder(repo, 16)
	recorder.Close()

	assert.NotPanics(t, func() {
		recorder.Record(model.RecordScanParams{CodeKeyNormalized: "X7QK2P"})
	})
	assert.Equal(t, 0, repo.count())
}

func TestRecorder_CloseTwice(t *testing.T) {
	recorder := NewRecorder(&captureRepo{}, 16)
	recorder.Close()
	assert.NotPanics(t, recorder.Close)
}
