package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dm/etcd-dash/internal/format"
	"github.com/dm/etcd-dash/internal/model"
)

const (
	// defaultQuotaBytes is etcd's default backend quota (--quota-backend-bytes).
	defaultQuotaBytes = uint64(2 << 30)
	// minDefragBytes keeps tiny databases from triggering defrag hints.
	minDefragBytes = uint64(16 << 20)
)

// CalcHints derives maintenance hints from the current snapshot only.
// Returns an empty (non-nil) slice for an empty snapshot. Hints are ordered
// most severe first.
func CalcHints(snap model.ClusterSnapshotSet) []model.Hint {
	result := []model.Hint{}
	if len(snap) == 0 {
		return result
	}

	result = append(result, leadershipHints(snap)...)
	result = append(result, versionHints(snap)...)
	result = append(result, quotaHints(snap)...)
	result = append(result, fragmentationHints(snap)...)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Severity > result[j].Severity
	})
	return result
}

func leadershipHints(snap model.ClusterSnapshotSet) []model.Hint {
	var leaders []string
	for _, e := range snap {
		if e.IsLeader {
			leaders = append(leaders, e.EndpointAddress)
		}
	}
	switch {
	case len(leaders) == 0:
		return []model.Hint{{
			Severity: model.SeverityCritical,
			Category: model.CategoryLeadership,
			Title:    "No leader",
			Detail:   "No member reports itself as leader. The cluster cannot accept writes until an election completes. Check member connectivity and quorum.",
		}}
	case len(leaders) > 1:
		return []model.Hint{{
			Severity: model.SeverityWarning,
			Category: model.CategoryLeadership,
			Title:    "Multiple leaders reported",
			Detail:   fmt.Sprintf("Members %s all report leadership. This is usually a transient view during an election; refresh to confirm.", strings.Join(leaders, ", ")),
		}}
	}
	return nil
}

func versionHints(snap model.ClusterSnapshotSet) []model.Hint {
	versions := CalcClusterSummary(snap).Versions
	if len(versions) < 2 {
		return nil
	}
	return []model.Hint{{
		Severity: model.SeverityWarning,
		Category: model.CategoryVersion,
		Title:    "Version skew",
		Detail:   fmt.Sprintf("Members run different versions (%s). Finish the rolling upgrade before running maintenance.", strings.Join(versions, ", ")),
	}}
}

func quotaHints(snap model.ClusterSnapshotSet) []model.Hint {
	var result []model.Hint
	for _, e := range snap {
		pct := float64(e.DBSizeBytes) / float64(defaultQuotaBytes) * 100
		switch {
		case pct > 95:
			result = append(result, model.Hint{
				Severity: model.SeverityCritical,
				Category: model.CategoryStorage,
				Title:    "Backend near quota on " + e.EndpointAddress,
				Detail:   fmt.Sprintf("DB size %s is %.0f%% of the default 2 GiB quota. Writes will be rejected with NOSPACE once it is reached. Compact, then defragment.", format.FormatMB(e.DBSizeBytes), pct),
			})
		case pct > 80:
			result = append(result, model.Hint{
				Severity: model.SeverityWarning,
				Category: model.CategoryStorage,
				Title:    "Backend growing toward quota on " + e.EndpointAddress,
				Detail:   fmt.Sprintf("DB size %s is %.0f%% of the default 2 GiB quota. Plan a compaction and defragmentation.", format.FormatMB(e.DBSizeBytes), pct),
			})
		}
	}
	return result
}

func fragmentationHints(snap model.ClusterSnapshotSet) []model.Hint {
	var names []string
	var worst float64
	for _, e := range snap {
		if e.DBSizeBytes < minDefragBytes {
			continue
		}
		pct := EndpointFragmentation(e)
		if pct > 50 {
			names = append(names, e.EndpointAddress)
			if pct > worst {
				worst = pct
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	return []model.Hint{{
		Severity: model.SeverityWarning,
		Category: model.CategoryStorage,
		Title:    fmt.Sprintf("%d member(s) fragmented", len(names)),
		Detail:   fmt.Sprintf("Up to %.0f%% of allocated space is free pages on %s. Run a defragmentation to return it to the filesystem.", worst, strings.Join(names, ", ")),
	}}
}
