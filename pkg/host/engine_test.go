package host_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bpmx/pkg/adapters/sqlite"
	"github.com/aretw0/bpmx/pkg/bpmn"
	"github.com/aretw0/bpmx/pkg/history"
	"github.com/aretw0/bpmx/pkg/host"
)

var variables = map[string]any{
	"amount":   42,
	"customer": "acme",
	"note":     "fragile",
	"secret":   "s3cr3t",
}

type counts struct {
	processes, activities, variables int
}

func deploy(t *testing.T, e *host.Engine, name string) string {
	t.Helper()
	defs, err := bpmn.ParseFile(filepath.Join("testdata", name+".bpmn"))
	require.NoError(t, err)
	require.NoError(t, e.Deploy(defs))
	return defs.Processes[0].ID
}

func countHistory(t *testing.T, s history.Store, pid string) counts {
	t.Helper()
	ctx := context.Background()
	count := func(k history.Kind) int {
		n, err := s.Count(ctx, history.Query{Kind: k, ProcessInstanceID: pid})
		require.NoError(t, err)
		return n
	}
	return counts{
		processes:  count(history.KindProcessInstance),
		activities: count(history.KindActivityInstance),
		variables:  count(history.KindVariableInstance),
	}
}

func perProcessLevel() *history.PerProcessLevel {
	l := history.NewPerProcessLevel()
	l.AddLevels(history.NewVariableFilterLevel(20, "custom-variable", "amount", "customer"))
	return l
}

func TestPerProcessHistory(t *testing.T) {
	tests := []struct {
		fixture string
		want    counts
	}{
		{"process-history-none", counts{0, 0, 0}},
		{"process-history-activity", counts{1, 3, 0}},
		{"process-history-full", counts{1, 3, 4}},
		{"process-history-custom-variable", counts{1, 3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			e := host.New(perProcessLevel())
			key := deploy(t, e, tt.fixture)

			pid, err := e.Start(context.Background(), key, variables)
			require.NoError(t, err)
			assert.Equal(t, tt.want, countHistory(t, e.Store(), pid))
		})
	}
}

func TestPerProcessFullMatchesEngineFull(t *testing.T) {
	ctx := context.Background()

	direct := host.New(history.LevelFull)
	directPID, err := direct.Start(ctx, deploy(t, direct, "process-history-none"), variables)
	require.NoError(t, err)

	perProcess := host.New(perProcessLevel())
	perProcessPID, err := perProcess.Start(ctx, deploy(t, perProcess, "process-history-full"), variables)
	require.NoError(t, err)

	assert.Equal(t, countHistory(t, direct.Store(), directPID), countHistory(t, perProcess.Store(), perProcessPID))
}

func TestMixedInstancesShareOneLevel(t *testing.T) {
	ctx := context.Background()
	level := perProcessLevel()
	e := host.New(level)
	full := deploy(t, e, "process-history-full")
	none := deploy(t, e, "process-history-none")

	fullPID, err := e.Start(ctx, full, variables)
	require.NoError(t, err)
	nonePID, err := e.Start(ctx, none, variables)
	require.NoError(t, err)

	assert.Equal(t, counts{1, 3, 4}, countHistory(t, e.Store(), fullPID))
	assert.Equal(t, counts{}, countHistory(t, e.Store(), nonePID))
	assert.Zero(t, level.State().(history.PerProcessState).TrackedInstances, "finished instances are evicted")
}

func TestStartRecordsTimeline(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	e := host.New(history.LevelFull,
		host.WithClock(clock),
		host.WithIDGenerator(func() string { return "instance-1" }),
	)
	key := deploy(t, e, "process-history-full")

	pid, err := e.Start(ctx, key, map[string]any{"amount": 42})
	require.NoError(t, err)
	assert.Equal(t, "instance-1", pid)

	acts, err := e.Store().List(ctx, history.Query{Kind: history.KindActivityInstance})
	require.NoError(t, err)
	require.Len(t, acts, 3)
	assert.Equal(t, []string{"start", "work", "end"}, []string{acts[0].ActivityID, acts[1].ActivityID, acts[2].ActivityID})
	for _, a := range acts {
		assert.True(t, a.End.After(a.Start), a.ActivityID)
		assert.Equal(t, history.ActivityInstanceEnd, a.LastEvent)
		assert.Equal(t, key, a.ProcessKey)
	}

	vars, err := e.Store().List(ctx, history.Query{Kind: history.KindVariableInstance})
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "42", vars[0].Value)

	procs, err := e.Store().List(ctx, history.Query{Kind: history.KindProcessInstance})
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, history.ProcessInstanceEnd, procs[0].LastEvent)
	assert.False(t, procs[0].End.IsZero())
}

func TestStartWithSQLiteStore(t *testing.T) {
	store, err := sqlite.New("sqlite://" + filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	e := host.New(perProcessLevel(), host.WithStore(store))
	key := deploy(t, e, "process-history-custom-variable")

	pid, err := e.Start(context.Background(), key, variables)
	require.NoError(t, err)
	assert.Equal(t, counts{1, 3, 2}, countHistory(t, store, pid))
}

func TestStartErrors(t *testing.T) {
	t.Run("Not Deployed", func(t *testing.T) {
		e := host.New(history.LevelFull)
		_, err := e.Start(context.Background(), "missing", nil)
		assert.True(t, errors.Is(err, host.ErrProcessNotDeployed))
	})

	t.Run("Store Failure", func(t *testing.T) {
		store := history.NewMemoryStore()
		require.NoError(t, store.Close())

		e := host.New(history.LevelFull, host.WithStore(store))
		_, err := e.Start(context.Background(), deploy(t, e, "process-history-full"), nil)
		assert.ErrorIs(t, err, history.ErrStoreClosed)
	})

	t.Run("Canceled Context Still Ends Instance", func(t *testing.T) {
		level := perProcessLevel()
		e := host.New(level)
		key := deploy(t, e, "process-history-full")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		pid, err := e.Start(ctx, key, nil)
		assert.ErrorIs(t, err, context.Canceled)
		_, tracked := level.Delegate(pid)
		assert.False(t, tracked)
	})
}

func TestDeploy(t *testing.T) {
	e := host.New(nil)

	assert.ErrorIs(t, e.Deploy(&bpmn.Definitions{}), bpmn.ErrNoProcess)

	branching := &bpmn.Definitions{Processes: []bpmn.Process{{
		ID:        "split",
		FlowNodes: []bpmn.FlowNode{{ID: "s", Kind: "startEvent"}, {ID: "a", Kind: "task"}, {ID: "b", Kind: "task"}},
		SequenceFlows: []bpmn.SequenceFlow{
			{ID: "f1", SourceRef: "s", TargetRef: "a"},
			{ID: "f2", SourceRef: "s", TargetRef: "b"},
		},
	}}}
	assert.Error(t, e.Deploy(branching))
	assert.Empty(t, e.Processes())

	for i := 0; i < 2; i++ {
		deploy(t, e, "process-history-activity")
	}
	deploy(t, e, "process-history-none")
	assert.Equal(t, []string{"process-history-activity", "process-history-none"}, e.Processes())

	state := e.State().(host.EngineState)
	assert.Equal(t, "none", state.Level)
	assert.Len(t, state.Processes, 2)
	assert.Equal(t, "engine", e.ComponentType())
}

func ExampleEngine_Start() {
	level := history.NewPerProcessLevel()
	e := host.New(level)

	defs, _ := bpmn.ParseFile("testdata/process-history-activity.bpmn")
	_ = e.Deploy(defs)

	pid, _ := e.Start(context.Background(), "process-history-activity", map[string]any{"amount": 42})
	n, _ := e.Store().Count(context.Background(), history.Query{ProcessInstanceID: pid})
	fmt.Println("records:", n)
	// Output: records: 4
}
