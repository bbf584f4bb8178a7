//go:build integration

package engine_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/etcd-dash/internal/client"
	"github.com/dm/etcd-dash/internal/engine"
)

// liveClient creates a DefaultClient from $ETCDASH_URL or skips the test if unset.
func liveClient(t *testing.T) client.ClusterClient {
	t.Helper()
	url := os.Getenv("ETCDASH_URL")
	if url == "" {
		t.Skip("ETCDASH_URL not set; skipping integration test")
	}
	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:        url,
		RequestTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	return c
}

// TestLiveCluster_Status fetches /api/status from a running dashboard server
// and checks the members are well formed.
func TestLiveCluster_Status(t *testing.T) {
	c := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := c.FetchStatus(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, snap, "cluster should report at least one member")

	for _, e := range snap {
		assert.NotEmpty(t, e.EndpointAddress)
		assert.NotEmpty(t, e.Version)
		assert.LessOrEqual(t, e.DBSizeInUseBytes, e.DBSizeBytes)
	}
	_, ok := snap.Leader()
	assert.True(t, ok, "a healthy cluster has a leader")
}

// TestLiveCluster_EnginePollsAndCompacts starts the engine, waits for the first
// snapshot, runs a compaction and checks the follow-up refresh lands.
func TestLiveCluster_EnginePollsAndCompacts(t *testing.T) {
	c := liveClient(t)
	e := engine.New(c, engine.Options{PollInterval: time.Hour})
	e.Start()
	defer e.Stop()

	require.Eventually(t, func() bool {
		return !e.State().LastUpdated.IsZero()
	}, 30*time.Second, 100*time.Millisecond)
	first := e.State().LastUpdated

	require.NoError(t, e.RunCompact(context.Background()))
	assert.Equal(t, "Compaction successful", e.State().Notice)

	require.Eventually(t, func() bool {
		return e.State().LastUpdated.After(first)
	}, 30*time.Second, 100*time.Millisecond)
}
