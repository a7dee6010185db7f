package activity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/memory"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []models.ActivityLog
	block   chan struct{}
	err     error
	closed  bool
}

func (s *recordingSink) Write(_ context.Context, entry models.ActivityLog) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() []models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityLog(nil), s.entries...)
}

func newLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestRecorder_DeliversInOrderAndDrainsOnStop(t *testing.T) {
	sink := &recordingSink{}
	r := NewRecorder(sink, 16, newLogger())
	r.Start()

	actor := uuid.Must(uuid.NewV4())
	entity := uuid.Must(uuid.NewV4())
	for _, action := range []string{ActionTransactionCreate, ActionTransactionApprove} {
		r.Record(actor, action, "transaction", entity, map[string]string{"amount": "10"})
	}
	require.NoError(t, r.Stop(context.Background()))

	entries := sink.snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, ActionTransactionCreate, entries[0].Action)
	assert.Equal(t, ActionTransactionApprove, entries[1].Action)
	assert.Equal(t, actor, entries[0].ActorID)
	assert.Equal(t, "10", entries[0].Details["amount"])
	assert.True(t, sink.closed)

	r.Record(actor, ActionTransactionReject, "transaction", entity, nil)
	assert.Equal(t, int64(1), r.Dropped(), "records after stop are dropped")
	assert.NoError(t, r.Stop(context.Background()))
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	r := NewRecorder(sink, 1, newLogger())
	r.Start()

	id := uuid.Must(uuid.NewV4())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.Record(id, ActionAccountCreate, "account", id, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a stalled sink")
	}
	assert.GreaterOrEqual(t, r.Dropped(), int64(8))

	close(sink.block)
	require.NoError(t, r.Stop(context.Background()))
}

func TestRecorder_SinkErrorsAreLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := &recordingSink{err: errors.New("broker down")}
	r := NewRecorder(sink, 4, logger)
	r.Start()

	id := uuid.Must(uuid.NewV4())
	r.Record(id, ActionTransferCreate, "transfer", id, nil)
	require.NoError(t, r.Stop(context.Background()))

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "Recorder.sink.write", hook.LastEntry().Message)
}

func TestStoreSink_Appends(t *testing.T) {
	store := memory.NewStorage()
	sink := &StoreSink{Storage: store}
	entity := uuid.Must(uuid.NewV4())

	entry := models.ActivityLog{
		ID:         uuid.Must(uuid.NewV4()),
		ActorID:    uuid.Must(uuid.NewV4()),
		Action:     ActionAccountLock,
		EntityType: "account",
		EntityID:   entity,
		Details:    map[string]string{"locked": "true"},
		Timestamp:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sink.Write(context.Background(), entry))

	rows, err := store.Read.Activity.List(context.Background(), &storage.ActivityFilter{EntityID: &entity})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "true", rows[0].Details["locked"])
}

type mockMessageWriter struct {
	mock.Mock
}

func (m *mockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockMessageWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaSink_KeysByEntity(t *testing.T) {
	writer := new(mockMessageWriter)
	sink := &KafkaSink{writer: writer}
	entry := models.ActivityLog{
		ID:       uuid.Must(uuid.NewV4()),
		Action:   ActionFixedCostGenerate,
		EntityID: uuid.Must(uuid.NewV4()),
	}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != entry.EntityID.String() {
			return false
		}
		var body message
		return json.Unmarshal(msgs[0].Value, &body) == nil && body.Action == ActionFixedCostGenerate
	})).Return(nil)
	writer.On("Close").Return(nil)

	require.NoError(t, sink.Write(context.Background(), entry))
	require.NoError(t, sink.Close())
	writer.AssertExpectations(t)
}
