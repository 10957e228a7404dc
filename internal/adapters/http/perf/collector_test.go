package perf_test

import (
	"testing"
	"time"

	"github.com/Abichu1/gym-members/internal/adapters/http/perf"
)

// TestRecordAndSnapshot tests basic aggregation of request entries.
func TestRecordAndSnapshot(t *testing.T) {
	c := perf.NewCollector(16)
	now := time.Now()

	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "GET /members", DurationMs: 10, Timestamp: now})
	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "GET /members", DurationMs: 30, Timestamp: now})
	c.Record(perf.Entry{Kind: perf.KindQuery, Path: "QueryContext", DurationMs: 5, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 5)
	if snap.TotalRecorded != 3 {
		t.Errorf("TotalRecorded = %d, want 3", snap.TotalRecorded)
	}
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("len(SlowestPaths) = %d, want 1", len(snap.SlowestPaths))
	}
	if got := snap.SlowestPaths[0]; got.Count != 2 || got.AvgMs != 20 || got.MaxMs != 30 {
		t.Errorf("path stat = %+v, want Count=2 AvgMs=20 MaxMs=30", got)
	}
	if len(snap.SlowestQueries) != 1 {
		t.Errorf("len(SlowestQueries) = %d, want 1", len(snap.SlowestQueries))
	}
}

// TestRingOverwrite tests that the buffer overwrites oldest entries when full.
func TestRingOverwrite(t *testing.T) {
	c := perf.NewCollector(2)
	now := time.Now()

	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "old", DurationMs: 1, Timestamp: now})
	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "new1", DurationMs: 1, Timestamp: now})
	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "new2", DurationMs: 1, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 5)
	for _, s := range snap.SlowestPaths {
		if s.Path == "old" {
			t.Error("oldest entry should have been overwritten")
		}
	}
	if snap.TotalRecorded != 3 {
		t.Errorf("TotalRecorded = %d, want 3", snap.TotalRecorded)
	}
}

// TestSnapshotSinceFilter tests that entries before the window are excluded.
func TestSnapshotSinceFilter(t *testing.T) {
	c := perf.NewCollector(8)
	old := time.Now().Add(-time.Hour)
	c.Record(perf.Entry{Kind: perf.KindRequest, Path: "GET /members", DurationMs: 10, Timestamp: old})

	snap := c.Snapshot(time.Now().Add(-time.Minute), 5)
	if len(snap.SlowestPaths) != 0 {
		t.Errorf("SlowestPaths = %v, want empty for out-of-window entries", snap.SlowestPaths)
	}
}
