package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bpmx/pkg/history"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := history.NewMemoryStore()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, history.Record{
		Kind: history.KindActivityInstance, ID: "a1", ProcessInstanceID: "pi", ActivityID: "task",
		Start: start, LastEvent: history.ActivityInstanceStart,
	}))
	require.NoError(t, s.Save(ctx, history.Record{
		Kind: history.KindActivityInstance, ID: "a1", End: start.Add(time.Minute), LastEvent: history.ActivityInstanceEnd,
	}))
	require.NoError(t, s.Save(ctx, history.Record{
		Kind: history.KindVariableInstance, ID: "pi:x", ProcessInstanceID: "pi", VariableName: "x", Value: "1",
	}))

	n, err := s.Count(ctx, history.Query{Kind: history.KindActivityInstance})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "updates merge into the same entity")

	recs, err := s.List(ctx, history.Query{ProcessInstanceID: "pi"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	act, err := s.List(ctx, history.Query{Kind: history.KindActivityInstance})
	require.NoError(t, err)
	assert.Equal(t, "task", act[0].ActivityID)
	assert.Equal(t, start, act[0].Start)
	assert.Equal(t, start.Add(time.Minute), act[0].End)
	assert.Equal(t, history.ActivityInstanceEnd, act[0].LastEvent)

	n, err = s.Count(ctx, history.Query{ProcessInstanceID: "other"})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Save(ctx, history.Record{}), history.ErrStoreClosed)
	_, err = s.Count(ctx, history.Query{})
	assert.ErrorIs(t, err, history.ErrStoreClosed)
}
