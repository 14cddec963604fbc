package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReportKeepsOrder(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("discover")
	b := tm.Begin("parse")
	tm.End(b, "3 files")
	tm.End(a, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "discover" || r.Phases[1].Note != "3 files" {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.TotalMS < r.Phases[0].DurationMS {
		t.Fatalf("total must include every phase")
	}
}

func TestTrackMarksFailures(t *testing.T) {
	tm := NewTimer()
	err := tm.Track("lib", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatalf("Track must return fn's error")
	}
	summary := tm.Summary()
	if !strings.Contains(summary, "// failed") || !strings.Contains(summary, "total") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatalf("nil timer records nothing")
	}
}
