package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/swarmgate/core"
)

func testAgent(id string) core.Agent {
	return core.Agent{
		ID:   id,
		Name: id,
		Capabilities: []core.Capability{
			{Name: "general", Confidence: 0.5},
		},
	}
}

func TestRegister(t *testing.T) {
	t.Run("defaults to idle and preserves order", func(t *testing.T) {
		reg := New()

		require.NoError(t, reg.Register(testAgent("cathy")))
		require.NoError(t, reg.Register(testAgent("coder")))
		require.NoError(t, reg.Register(testAgent("dataminer")))

		agents := reg.List()
		require.Len(t, agents, 3)
		assert.Equal(t, "cathy", agents[0].ID)
		assert.Equal(t, "coder", agents[1].ID)
		assert.Equal(t, "dataminer", agents[2].ID)
		assert.Equal(t, core.StatusIdle, agents[0].Status)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		reg := New()

		require.NoError(t, reg.Register(testAgent("cathy")))

		err := reg.Register(testAgent("cathy"))
		assert.ErrorIs(t, err, core.ErrDuplicateAgent)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("empty id rejected", func(t *testing.T) {
		reg := New()
		assert.Error(t, reg.Register(core.Agent{}))
	})
}

func TestGet(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("coder")))

	t.Run("unknown agent", func(t *testing.T) {
		_, err := reg.Get("ghost")
		assert.ErrorIs(t, err, core.ErrUnknownAgent)
	})

	t.Run("snapshots are isolated", func(t *testing.T) {
		a, err := reg.Get("coder")
		require.NoError(t, err)

		a.Capabilities[0].Confidence = 0.0

		b, err := reg.Get("coder")
		require.NoError(t, err)
		assert.Equal(t, 0.5, b.Capabilities[0].Confidence)
	})
}

func TestBusyRefcount(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("coder")))

	// Two overlapping holders: the agent stays busy until both release.
	require.NoError(t, reg.Acquire("coder"))
	require.NoError(t, reg.Acquire("coder"))

	a, _ := reg.Get("coder")
	assert.Equal(t, core.StatusBusy, a.Status)

	reg.Release("coder")

	a, _ = reg.Get("coder")
	assert.Equal(t, core.StatusBusy, a.Status, "one holder still active")

	reg.Release("coder")

	a, _ = reg.Get("coder")
	assert.Equal(t, core.StatusIdle, a.Status)
}

func TestComplete(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("coder")))

	require.NoError(t, reg.Acquire("coder"))
	reg.Complete("coder", true, 100*time.Millisecond)

	require.NoError(t, reg.Acquire("coder"))
	reg.Complete("coder", false, 300*time.Millisecond)

	a, err := reg.Get("coder")
	require.NoError(t, err)

	assert.Equal(t, core.StatusIdle, a.Status)
	assert.Equal(t, int64(2), a.Stats.TotalTasks)
	assert.Equal(t, int64(1), a.Stats.SuccessfulTasks)
	assert.Equal(t, 50.0, a.Stats.SuccessRate())
	assert.Equal(t, 200.0, a.Stats.AvgResponseTimeMs())
}

func TestRecordOutcomeConcurrent(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("coder")))

	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.RecordOutcome("coder", true, 10*time.Millisecond))
		}()
	}
	wg.Wait()

	a, err := reg.Get("coder")
	require.NoError(t, err)
	assert.Equal(t, int64(n), a.Stats.TotalTasks)
	assert.Equal(t, int64(n), a.Stats.SuccessfulTasks)
}

func TestStatusListener(t *testing.T) {
	var (
		mu     sync.Mutex
		events []core.AgentStatus
	)

	reg := New(func(o *Options) {
		o.OnStatusChange = func(agentID string, status core.AgentStatus) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, status)
		}
	})

	require.NoError(t, reg.Register(testAgent("coder")))

	require.NoError(t, reg.Acquire("coder"))
	require.NoError(t, reg.Acquire("coder")) // no second busy notification
	reg.Release("coder")
	reg.Release("coder")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []core.AgentStatus{core.StatusBusy, core.StatusIdle}, events)
}

func TestSetStatus(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("coder")))

	require.NoError(t, reg.SetStatus("coder", core.StatusOffline))

	a, _ := reg.Get("coder")
	assert.Equal(t, core.StatusOffline, a.Status)

	assert.ErrorIs(t, reg.SetStatus("ghost", core.StatusIdle), core.ErrUnknownAgent)
}

func TestStats(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(testAgent("cathy")))
	require.NoError(t, reg.Register(testAgent("coder")))
	require.NoError(t, reg.SetStatus("coder", core.StatusOffline))

	// Nothing completed yet: the overall rate starts at zero.
	assert.Equal(t, 0.0, reg.Stats().OverallSuccessRate)

	require.NoError(t, reg.RecordOutcome("cathy", true, 10*time.Millisecond))
	require.NoError(t, reg.RecordOutcome("cathy", false, 10*time.Millisecond))

	agg := reg.Stats()
	assert.Equal(t, 2, agg.TotalAgents)
	assert.Equal(t, 1, agg.ActiveAgents)
	assert.Equal(t, int64(2), agg.TotalTasks)
	assert.Equal(t, 50.0, agg.OverallSuccessRate)
}
