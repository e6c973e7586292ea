package database

import (
	"context"
	"testing"
	"time"
)

func TestCopyRuns(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := NewRunRecord(sampleResult(int64(i), 5000+i))
		rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := src.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun() error: %v", err)
		}
	}

	n, err := CopyRuns(ctx, src, dst, true)
	if err != nil {
		t.Fatalf("CopyRuns(dry run) error: %v", err)
	}
	if n != 3 {
		t.Errorf("dry run counted %d runs, want 3", n)
	}
	if runs, _ := dst.ListRuns(ctx, 0); len(runs) != 0 {
		t.Fatalf("dry run wrote %d runs", len(runs))
	}

	n, err = CopyRuns(ctx, src, dst, false)
	if err != nil {
		t.Fatalf("CopyRuns() error: %v", err)
	}
	if n != 3 {
		t.Errorf("copied %d runs, want 3", n)
	}

	runs, err := dst.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("destination has %d runs, want 3", len(runs))
	}
	// Oldest copied first, so ids follow creation order.
	if runs[0].Seed != 2 || runs[0].ID != 3 {
		t.Errorf("newest run = seed %d id %d, want seed 2 id 3", runs[0].Seed, runs[0].ID)
	}

	n, err = CopyRuns(ctx, src, dst, false)
	if err != nil {
		t.Fatalf("second CopyRuns() error: %v", err)
	}
	if n != 0 {
		t.Errorf("repeated copy wrote %d runs, want 0", n)
	}
}

func TestCopyRunsMatchesMicrosecondTimestamps(t *testing.T) {
	src := setupTestDB(t)
	dst := setupTestDB(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 4, 10, 30, 0, 123456789, time.UTC)
	rec := NewRunRecord(sampleResult(77, 5200))
	rec.CreatedAt = created
	if _, err := src.SaveRun(ctx, rec); err != nil {
		t.Fatalf("SaveRun(src) error: %v", err)
	}

	// dst holds the run as PostgreSQL returns it, without the nanoseconds.
	copied := rec
	copied.CreatedAt = created.Truncate(time.Microsecond)
	if _, err := dst.SaveRun(ctx, copied); err != nil {
		t.Fatalf("SaveRun(dst) error: %v", err)
	}

	for _, dryRun := range []bool{true, false} {
		n, err := CopyRuns(ctx, src, dst, dryRun)
		if err != nil {
			t.Fatalf("CopyRuns(dryRun=%v) error: %v", dryRun, err)
		}
		if n != 0 {
			t.Errorf("CopyRuns(dryRun=%v) = %d, want 0 for an already copied run", dryRun, n)
		}
	}
}

func TestContainsRunPrecision(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 30, 0, 123456000, time.UTC)
	stored := []RunRecord{{CreatedAt: at}}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"exact", at, true},
		{"sub-microsecond difference", at.Add(789 * time.Nanosecond), true},
		{"other zone same instant", at.In(time.FixedZone("CET", 3600)), true},
		{"one microsecond later", at.Add(time.Microsecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsRun(stored, RunRecord{CreatedAt: tt.at}); got != tt.want {
				t.Errorf("containsRun() = %v, want %v", got, tt.want)
			}
		})
	}
}
