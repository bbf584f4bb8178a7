package model

import "slices"

// EndpointSnapshot holds the facts reported for one cluster member at the last
// successful poll. Values are replaced wholesale on every poll.
type EndpointSnapshot struct {
	EndpointAddress  string // host:port, unique within a set
	Version          string
	DBSizeBytes      uint64 // total allocated backend size
	DBSizeInUseBytes uint64 // live data, always <= DBSizeBytes
	IsLeader         bool
}

// FragmentedBytes returns the allocated space not holding live data.
func (e EndpointSnapshot) FragmentedBytes() uint64 {
	if e.DBSizeInUseBytes >= e.DBSizeBytes {
		return 0
	}
	return e.DBSizeBytes - e.DBSizeInUseBytes
}

// ClusterSnapshotSet is the ordered set of endpoint snapshots from one poll,
// in server response order.
type ClusterSnapshotSet []EndpointSnapshot

// Leader returns the first endpoint reporting itself as leader.
func (s ClusterSnapshotSet) Leader() (EndpointSnapshot, bool) {
	for _, e := range s {
		if e.IsLeader {
			return e, true
		}
	}
	return EndpointSnapshot{}, false
}

// Clone returns an independent copy of the set. A nil set clones to nil.
func (s ClusterSnapshotSet) Clone() ClusterSnapshotSet {
	return slices.Clone(s)
}
