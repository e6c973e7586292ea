package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/racesim/internal/race"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult(seed int64, winsA int) race.AggregateResult {
	s := seed
	return race.AggregateResult{
		AgentA: race.AgentConfig{Name: "Hare", Power: 1.10},
		AgentB: race.AgentConfig{Name: "Tortoise", Power: 1.00},
		Config: race.SimulationConfig{
			Rigidity:   0.20,
			NoiseScale: 1.0,
			Target:     5.0,
			Trials:     10000,
			Seed:       &s,
			Workers:    4,
		},
		Probabilities: race.NormalizedProbabilities{A: 1.1 / 2.1, B: 1 - 1.1/2.1},
		Seed:          seed,
		Trials:        10000,
		WinsA:         winsA,
		WinsB:         10000 - winsA,
		MinTicks:      1,
		MaxTicks:      61,
		MeanTicks:     9.4,
		Elapsed:       1500 * time.Millisecond,
	}
}

func TestNewRunRecord(t *testing.T) {
	rec := NewRunRecord(sampleResult(123, 5338))

	if rec.AgentAName != "Hare" || rec.AgentBName != "Tortoise" {
		t.Errorf("names = %q/%q, want Hare/Tortoise", rec.AgentAName, rec.AgentBName)
	}
	if rec.PowerA != 1.10 || rec.PowerB != 1.00 {
		t.Errorf("powers = %v/%v, want 1.1/1", rec.PowerA, rec.PowerB)
	}
	if rec.Seed != 123 {
		t.Errorf("Seed = %d, want 123", rec.Seed)
	}
	if rec.WinsA+rec.WinsB != rec.Trials {
		t.Errorf("WinsA+WinsB = %d, want %d", rec.WinsA+rec.WinsB, rec.Trials)
	}
	if rec.Fingerprint == "" {
		t.Error("Fingerprint should not be empty")
	}
	if got := rec.WinRateA(); got != 53.38 {
		t.Errorf("WinRateA() = %v, want 53.38", got)
	}
	if got := rec.WinRateB(); got != 46.62 {
		t.Errorf("WinRateB() = %v, want 46.62", got)
	}
}

func TestRunRecordWinRateZeroTrials(t *testing.T) {
	var rec RunRecord
	if rec.WinRateA() != 0 || rec.WinRateB() != 0 {
		t.Error("win rates of an empty record should be 0")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := NewRunRecord(sampleResult(123, 5338))
	id, err := db.SaveRun(ctx, rec)
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	if id == 0 {
		t.Fatal("SaveRun() returned id 0")
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetRun() returned nil for a saved run")
	}

	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.Fingerprint != rec.Fingerprint {
		t.Errorf("Fingerprint = %q, want %q", got.Fingerprint, rec.Fingerprint)
	}
	if got.PowerA != rec.PowerA || got.Rigidity != rec.Rigidity || got.Target != rec.Target {
		t.Errorf("parameters did not round-trip: %+v", got)
	}
	if got.WinsA != 5338 || got.WinsB != 4662 {
		t.Errorf("wins = %d/%d, want 5338/4662", got.WinsA, got.WinsB)
	}
	if got.MeanTicks != 9.4 {
		t.Errorf("MeanTicks = %v, want 9.4", got.MeanTicks)
	}
	if got.Elapsed != 1500*time.Millisecond {
		t.Errorf("Elapsed = %v, want 1.5s", got.Elapsed)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetRun(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetRun() = %+v, want nil", got)
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := NewRunRecord(sampleResult(int64(i), 5000+i))
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun() error: %v", err)
		}
	}

	runs, err := db.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns(3) returned %d runs, want 3", len(runs))
	}
	// Newest first.
	for i, want := range []int64{4, 3, 2} {
		if runs[i].Seed != want {
			t.Errorf("runs[%d].Seed = %d, want %d", i, runs[i].Seed, want)
		}
	}

	all, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns(0) error: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListRuns(0) returned %d runs, want 5", len(all))
	}
}

func TestListRunsEmpty(t *testing.T) {
	db := setupTestDB(t)

	runs, err := db.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("ListRuns() returned %d runs, want 0", len(runs))
	}
}

func TestFindRunsByFingerprint(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := NewRunRecord(sampleResult(123, 5338))
	second := NewRunRecord(sampleResult(123, 5338))
	other := NewRunRecord(sampleResult(456, 5290))
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	first.CreatedAt = base
	second.CreatedAt = base.Add(time.Second)
	other.CreatedAt = base.Add(2 * time.Second)

	for _, rec := range []RunRecord{first, second, other} {
		if _, err := db.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun() error: %v", err)
		}
	}

	runs, err := db.FindRunsByFingerprint(ctx, first.Fingerprint)
	if err != nil {
		t.Fatalf("FindRunsByFingerprint() error: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("FindRunsByFingerprint() returned %d runs, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Seed != 123 {
			t.Errorf("unexpected run with seed %d", r.Seed)
		}
	}
}

func TestSaveRunDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := NewRunRecord(sampleResult(123, 5338))
	rec.CreatedAt = time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)

	if _, err := db.SaveRun(ctx, rec); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	if _, err := db.SaveRun(ctx, rec); !errors.Is(err, ErrDuplicateRun) {
		t.Errorf("second SaveRun() error = %v, want ErrDuplicateRun", err)
	}
}

func TestConflictingRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	original := NewRunRecord(sampleResult(123, 5338))
	if _, err := db.SaveRun(ctx, original); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	same := NewRunRecord(sampleResult(123, 5338))
	conflicts, err := db.ConflictingRuns(ctx, same)
	if err != nil {
		t.Fatalf("ConflictingRuns() error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("identical tallies reported %d conflicts", len(conflicts))
	}

	changed := NewRunRecord(sampleResult(123, 5400))
	conflicts, err = db.ConflictingRuns(ctx, changed)
	if err != nil {
		t.Fatalf("ConflictingRuns() error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("ConflictingRuns() returned %d, want 1", len(conflicts))
	}
	if conflicts[0].WinsA != 5338 {
		t.Errorf("conflict WinsA = %d, want 5338", conflicts[0].WinsA)
	}
}

func TestConflictingRunsSkipsSelf(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := NewRunRecord(sampleResult(123, 5338))
	id, err := db.SaveRun(ctx, rec)
	if err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}
	rec.ID = id
	rec.WinsA = 1

	conflicts, err := db.ConflictingRuns(ctx, rec)
	if err != nil {
		t.Fatalf("ConflictingRuns() error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("a run should never conflict with itself, got %d", len(conflicts))
	}
}
