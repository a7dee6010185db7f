// Package activity appends audit entries for ledger mutations. Recording is
// fire-and-forget: entries are queued and written by a background worker, and
// a full queue or a failing sink never blocks or fails the caller.
package activity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/models"
)

// Actions recorded by the ledger.
const (
	ActionTransactionCreate  = "transaction.create"
	ActionTransactionApprove = "transaction.approve"
	ActionTransactionReject  = "transaction.reject"
	ActionTransactionEdit    = "transaction.edit"
	ActionTransferCreate     = "transfer.create"
	ActionAccountCreate      = "account.create"
	ActionAccountLock        = "account.lock"
	ActionProjectCreate      = "project.create"
	ActionProjectStatus      = "project.status"
	ActionMemberAdd          = "project.member.add"
	ActionMemberRemove       = "project.member.remove"
	ActionMemberRole         = "project.member.role"
	ActionMemberPermission   = "project.member.permission"
	ActionFundCreate         = "fund.create"
	ActionCategoryCreate     = "category.create"
	ActionUserCreate         = "user.create"
	ActionFixedCostCreate    = "fixedcost.create"
	ActionFixedCostStatus    = "fixedcost.status"
	ActionFixedCostGenerate  = "fixedcost.generate"
)

// Sink persists or publishes entries.
type Sink interface {
	Write(ctx context.Context, entry models.ActivityLog) error
	Close() error
}

const sinkTimeout = 5 * time.Second

// Recorder queues entries for a Sink.
type Recorder struct {
	sink    Sink
	queue   chan models.ActivityLog
	logger  *logrus.Logger
	now     func() time.Time
	dropped atomic.Int64

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder with a queue of size entries.
func NewRecorder(sink Sink, size int, logger *logrus.Logger) *Recorder {
	if size < 1 {
		size = 1
	}
	return &Recorder{
		sink:   sink,
		queue:  make(chan models.ActivityLog, size),
		logger: logger,
		now:    time.Now,
	}
}

func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := r.sink.Write(ctx, entry); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action":   entry.Action,
				"entityId": entry.EntityID.String(),
			}).Warn("Recorder.sink.write")
		}
		cancel()
	}
}

// Record queues an entry. It never blocks: when the queue is full or the
// recorder is stopped the entry is dropped and counted.
func (r *Recorder) Record(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]string) {
	if r == nil {
		return
	}
	id, err := uuid.NewV4()
	if err != nil {
		r.drop(action, err.Error())
		return
	}
	entry := models.ActivityLog{
		ID:         id,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  r.now().UTC(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		r.drop(action, "stopped")
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.drop(action, "queue full")
	}
}

func (r *Recorder) drop(action, reason string) {
	r.dropped.Add(1)
	r.logger.WithFields(logrus.Fields{
		"action": action,
		"reason": reason,
	}).Warn("Recorder.Record.dropped")
}

// Dropped returns how many entries were discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Stop refuses new entries, drains the queue and closes the sink. It returns
// ctx.Err() if draining outlives ctx.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.sink.Close()
}
