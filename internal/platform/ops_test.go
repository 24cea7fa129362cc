package platform_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bpmx/internal/platform"
	"github.com/aretw0/bpmx/pkg/adapters/fs"
	"github.com/aretw0/bpmx/pkg/adapters/memory"
	"github.com/aretw0/bpmx/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("Memory Adapter", func(t *testing.T) {
		conn, err := platform.Init("", platform.WithAdapter("memory"), platform.WithConnectorID("mem"))
		require.NoError(t, err)

		_, ok := conn.(*memory.Connector)
		require.True(t, ok, "expected memory connector, got %T", conn)
		assert.Equal(t, "mem", conn.ID())

		root, err := conn.Root(context.Background())
		require.NoError(t, err)
		assert.Equal(t, memory.RootID, root.ID)
	})

	t.Run("FS Adapter Creates Root", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "docs")

		conn, err := platform.Init(dir)
		require.NoError(t, err)
		_, ok := conn.(*fs.Connector)
		require.True(t, ok, "expected fs connector, got %T", conn)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("FS Adapter Must Exist", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		_, err := platform.Init(dir, platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("Read Only Rejects Writes", func(t *testing.T) {
		dir := t.TempDir()
		conn, err := platform.Init(dir, platform.WithReadOnly(true))
		require.NoError(t, err)

		_, err = conn.CreateNode(context.Background(), fs.RootID, "doc.txt", core.NodeTypeDocument, "")
		assert.True(t, errors.Is(err, core.ErrReadOnly))
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init("", platform.WithAdapter("s3"))
		assert.ErrorContains(t, err, "unknown adapter: s3")
	})

	t.Run("Injected Connector", func(t *testing.T) {
		injected := memory.New(memory.Config{})
		conn, err := platform.Init("ignored", platform.WithConnector(injected), platform.WithConnectorID("injected"))
		require.NoError(t, err)
		assert.Same(t, injected, conn)
		assert.Equal(t, "injected", conn.ID())
	})

	t.Run("Dev Sandbox Is Logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		_, err := platform.Init(t.TempDir(), platform.WithForceTemp(true), platform.WithLogger(logger))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "SAFE MODE")
	})
}

func TestNew(t *testing.T) {
	svc, err := platform.New("", platform.WithAdapter("memory"))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreateDocument(ctx, memory.FolderID, "doc", []byte("content"))
	require.NoError(t, err)

	got, err := svc.ReadContent(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}
