package core_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/edithx/rewarder/internal/worker/core"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRedis(t *testing.T) rueidis.Client {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestReporterPublishesStatus(t *testing.T) {
	t.Parallel()

	client := newRedis(t)
	logger := zaptest.NewLogger(t)

	reporter := core.NewStatusReporter(client, "evaluation", logger).WithInterval(10 * time.Millisecond)
	reporter.UpdateStatus("Scoring batch 1/3", 33)
	reporter.SetHealthy(false)
	reporter.Start(t.Context())
	defer reporter.Stop()

	monitor := core.NewMonitor(client, logger)

	require.Eventually(t, func() bool {
		statuses, err := monitor.GetAllStatuses(t.Context())
		return err == nil && len(statuses) == 1
	}, time.Second, 10*time.Millisecond)

	statuses, err := monitor.GetAllStatuses(t.Context())
	require.NoError(t, err)
	require.Len(t, statuses, 1)

	status := statuses[0]
	assert.Equal(t, reporter.GetWorkerID(), status.WorkerID)
	assert.Equal(t, "evaluation", status.WorkerType)
	assert.Equal(t, "Scoring batch 1/3", status.CurrentTask)
	assert.Equal(t, 33, status.Progress)
	assert.False(t, status.IsHealthy)
	assert.False(t, status.LastSeen.IsZero())
}

func TestRunRecords(t *testing.T) {
	t.Parallel()

	client := newRedis(t)
	monitor := core.NewMonitor(client, zaptest.NewLogger(t))

	record, err := monitor.GetLastRun(t.Context(), "distribute")
	require.NoError(t, err)
	assert.Nil(t, record)

	started := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, monitor.RecordRun(t.Context(), core.RunRecord{
		Job:        "distribute",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Summary:    "12 participants",
	}))

	record, err = monitor.GetLastRun(t.Context(), "distribute")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "12 participants", record.Summary)
	assert.True(t, record.StartedAt.Equal(started))
}

func TestNilReporterIsNoop(t *testing.T) {
	t.Parallel()

	reporter := core.NewStatusReporter(nil, "evaluation", zaptest.NewLogger(t))
	assert.Nil(t, reporter)

	assert.NotPanics(t, func() {
		reporter.Start(t.Context())
		reporter.UpdateStatus("task", 50)
		reporter.SetHealthy(true)
		reporter.RecordRun(t.Context(), core.RunRecord{Job: "evaluate"})
		reporter.Stop()
	})
	assert.Empty(t, reporter.GetWorkerID())
}
