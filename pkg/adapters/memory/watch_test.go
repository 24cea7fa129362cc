package memory_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bpmx/pkg/adapters/memory"
	"github.com/aretw0/bpmx/pkg/core"
)

func receive(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return core.Event{}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := setupConnector(t)
	events, err := c.Watch(ctx, "*.bpmn")
	require.NoError(t, err)

	_, err = c.CreateNode(ctx, memory.FolderID, "notes.txt", core.NodeTypeDocument, "")
	require.NoError(t, err)
	node, err := c.CreateNode(ctx, memory.FolderID, "order.bpmn", core.NodeTypeDocument, "")
	require.NoError(t, err)
	_, err = c.UpdateContent(ctx, node, bytes.NewReader([]byte("x")), "")
	require.NoError(t, err)
	require.NoError(t, c.DeleteNode(ctx, node, ""))

	assert.Equal(t, core.Event{Type: core.EventCreate, ID: "order.bpmn"}, stripTime(receive(t, events)))
	assert.Equal(t, core.Event{Type: core.EventModify, ID: "order.bpmn"}, stripTime(receive(t, events)))
	assert.Equal(t, core.Event{Type: core.EventDelete, ID: "order.bpmn"}, stripTime(receive(t, events)))
}

func TestWatchClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := setupConnector(t)

	events, err := c.Watch(ctx, "")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatchRejectsBadPattern(t *testing.T) {
	c := setupConnector(t)
	_, err := c.Watch(context.Background(), "[")
	assert.Error(t, err)
}

func stripTime(e core.Event) core.Event {
	e.Timestamp = 0
	return e
}
