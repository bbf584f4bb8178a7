package tui

import (
	"testing"

	"github.com/dm/etcd-dash/internal/model"
)

func TestThreshold_Fragmentation(t *testing.T) {
	cases := []struct {
		pct  float64
		want model.HintSeverity
	}{
		{0, model.SeverityNormal},
		{49, model.SeverityNormal},
		{50, model.SeverityNormal}, // boundary: >50 triggers warning
		{50.1, model.SeverityWarning},
		{80, model.SeverityWarning}, // boundary: >80 triggers critical
		{80.1, model.SeverityCritical},
		{100, model.SeverityCritical},
	}
	for _, tc := range cases {
		got := fragmentationSeverity(tc.pct)
		if got != tc.want {
			t.Errorf("fragmentationSeverity(%v) = %v, want %v", tc.pct, got, tc.want)
		}
	}
}

func TestSeverityFg(t *testing.T) {
	if severityFg(model.SeverityNormal) != colorGreen {
		t.Error("normal should be green")
	}
	if severityFg(model.SeverityWarning) != colorYellow {
		t.Error("warning should be yellow")
	}
	if severityFg(model.SeverityCritical) != colorRed {
		t.Error("critical should be red")
	}
}
