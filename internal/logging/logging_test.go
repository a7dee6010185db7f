package logging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, SetupLogging("debug").Level)
	assert.Equal(t, logrus.InfoLevel, SetupLogging("loud").Level)
}

func TestLogData_NilIsNoop(t *testing.T) {
	var l *LogData
	l.AddData("k", "v")
	l.AddTiming("t")()
	assert.Nil(t, GetLogData(context.Background()))
}

func TestLoggingWrapper_FreshDataPerRequest(t *testing.T) {
	logger, hook := test.NewNullLogger()
	calls := 0
	handler := LoggingWrapper("Probe", logger, func(w http.ResponseWriter, r *http.Request, ld *LogData) error {
		calls++
		assert.Same(t, ld, GetLogData(r.Context()))
		if calls == 1 {
			ld.AddData("first", true)
			return nil
		}
		return errors.New("boom")
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, "Handler.Probe.Complete", entries[1].Message)
	assert.Equal(t, true, entries[1].Data["first"])
	assert.Equal(t, "Handler.Probe.Error", entries[3].Message)
	_, leaked := entries[3].Data["first"]
	assert.False(t, leaked)
}
