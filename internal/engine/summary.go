package engine

import (
	"slices"

	"github.com/dm/etcd-dash/internal/model"
)

// CalcClusterSummary aggregates one snapshot into cluster-wide totals.
// An empty snapshot yields a zero summary.
func CalcClusterSummary(snap model.ClusterSnapshotSet) model.ClusterSummary {
	sum := model.ClusterSummary{Endpoints: len(snap)}
	if len(snap) == 0 {
		return sum
	}

	if leader, ok := snap.Leader(); ok {
		sum.LeaderAddress = leader.EndpointAddress
	}

	seen := make(map[string]struct{})
	for _, e := range snap {
		sum.TotalBytes += e.DBSizeBytes
		sum.InUseBytes += e.DBSizeInUseBytes
		if _, ok := seen[e.Version]; !ok && e.Version != "" {
			seen[e.Version] = struct{}{}
			sum.Versions = append(sum.Versions, e.Version)
		}
	}
	slices.Sort(sum.Versions)
	sum.FragmentationPct = fragmentationPct(sum.TotalBytes, sum.InUseBytes)
	return sum
}

// fragmentationPct returns the share of allocated bytes not in use, 0-100.
func fragmentationPct(total, inUse uint64) float64 {
	if total == 0 || inUse >= total {
		return 0
	}
	return float64(total-inUse) / float64(total) * 100
}

// EndpointFragmentation returns the fragmentation percent of a single member.
func EndpointFragmentation(e model.EndpointSnapshot) float64 {
	return fragmentationPct(e.DBSizeBytes, e.DBSizeInUseBytes)
}
