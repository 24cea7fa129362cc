package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bpmx/pkg/adapters/lifecycle"
	"github.com/aretw0/bpmx/pkg/adapters/memory"
	"github.com/aretw0/bpmx/pkg/core"
)

func TestSourceForwardsConnectorEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := memory.New(memory.Config{})
	require.NoError(t, conn.Init(core.Configuration{ID: "mem"}))

	src, err := lifecycle.WatchSource(ctx, conn, "")
	require.NoError(t, err)
	require.NoError(t, src.Start(ctx))

	_, err = conn.CreateNode(ctx, memory.FolderID, "order.bpmn", core.NodeTypeDocument, "")
	require.NoError(t, err)

	select {
	case e := <-src.Events():
		assert.Equal(t, "CREATE order.bpmn", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bridged event")
	}
}

func TestSourceClosesWithInput(t *testing.T) {
	in := make(chan core.Event)
	src := lifecycle.NewSource(in)
	require.NoError(t, src.Start(context.Background()))

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("output not closed")
	}
}
