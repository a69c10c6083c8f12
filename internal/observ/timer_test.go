package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("segment")
	time.Sleep(time.Millisecond)
	tm.End(idx, "3 blocks")

	idx2 := tm.Begin("inline")
	tm.End(idx2, "")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d", len(report.Phases))
	}
	if report.Phases[0].Name != "segment" || report.Phases[0].Note != "3 blocks" {
		t.Fatalf("phase = %+v", report.Phases[0])
	}
	if report.Phases[0].DurationMS <= 0 {
		t.Fatal("first phase must have a measured duration")
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Fatal("total must cover all phases")
	}

	summary := tm.Summary()
	if !strings.Contains(summary, "segment") || !strings.Contains(summary, "total") {
		t.Fatalf("summary = %q", summary)
	}
}

func TestTimerEndOutOfRange(t *testing.T) {
	tm := NewTimer()
	tm.End(3, "ignored")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Fatalf("report = %+v", got)
	}
}
