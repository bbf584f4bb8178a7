package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dm/etcd-dash/internal/model"
)

// mockClusterClient implements client.ClusterClient for testing. Nil function
// fields fall back to a healthy single-member cluster.
type mockClusterClient struct {
	StatusFn  func(ctx context.Context) (model.ClusterSnapshotSet, error)
	CompactFn func(ctx context.Context) error
	DefragFn  func(ctx context.Context) error

	statusCalls  atomic.Int32
	compactCalls atomic.Int32
	defragCalls  atomic.Int32
}

func (m *mockClusterClient) FetchStatus(ctx context.Context) (model.ClusterSnapshotSet, error) {
	m.statusCalls.Add(1)
	if m.StatusFn != nil {
		return m.StatusFn(ctx)
	}
	return snapshotOf(member("e1", true)), nil
}

func (m *mockClusterClient) Compact(ctx context.Context) error {
	m.compactCalls.Add(1)
	if m.CompactFn != nil {
		return m.CompactFn(ctx)
	}
	return nil
}

func (m *mockClusterClient) Defrag(ctx context.Context) error {
	m.defragCalls.Add(1)
	if m.DefragFn != nil {
		return m.DefragFn(ctx)
	}
	return nil
}

func (m *mockClusterClient) BaseURL() string {
	return "http://mock:8080"
}

// countingRefresher records RefreshNow calls.
type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) RefreshNow() bool {
	r.calls.Add(1)
	return true
}

func member(addr string, leader bool) model.EndpointSnapshot {
	return model.EndpointSnapshot{
		EndpointAddress:  addr,
		Version:          "3.5.9",
		DBSizeBytes:      2097152,
		DBSizeInUseBytes: 1048576,
		IsLeader:         leader,
	}
}

func snapshotOf(members ...model.EndpointSnapshot) model.ClusterSnapshotSet {
	return model.ClusterSnapshotSet(members)
}

var errMockFailure = errors.New("mock failure")
