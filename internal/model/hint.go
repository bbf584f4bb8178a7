package model

// HintSeverity indicates the urgency level of a maintenance hint.
type HintSeverity int

const (
	SeverityNormal HintSeverity = iota
	SeverityWarning
	SeverityCritical
)

// HintCategory groups related hints.
type HintCategory int

const (
	CategoryLeadership HintCategory = iota
	CategoryVersion
	CategoryStorage
)

// Hint is a single actionable suggestion derived from the current snapshot.
type Hint struct {
	Severity HintSeverity
	Category HintCategory
	Title    string
	Detail   string
}

// ClusterSummary holds cluster-wide totals derived from one snapshot.
type ClusterSummary struct {
	Endpoints        int
	LeaderAddress    string // empty when no member reports leadership
	TotalBytes       uint64
	InUseBytes       uint64
	FragmentationPct float64 // share of allocated bytes not in use, 0-100
	Versions         []string
}
