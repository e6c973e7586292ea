package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/racesim/internal/race"
)

// ErrDuplicateRun is returned by SaveRun when a run with the same fingerprint
// and creation time is already stored.
var ErrDuplicateRun = errors.New("run already stored")

// RunRecord is a stored aggregate run. Individual races are never stored.
type RunRecord struct {
	ID          int64
	Fingerprint string
	AgentAName  string
	AgentBName  string
	PowerA      float64
	PowerB      float64
	Rigidity    float64
	NoiseScale  float64
	Target      float64
	Trials      int
	Seed        int64
	WinsA       int
	WinsB       int
	MinTicks    int
	MaxTicks    int
	MeanTicks   float64
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// NewRunRecord converts a completed run into a record ready to save.
func NewRunRecord(r race.AggregateResult) RunRecord {
	return RunRecord{
		Fingerprint: Fingerprint(r.AgentA, r.AgentB, r.Config, r.Seed),
		AgentAName:  r.AgentA.Name,
		AgentBName:  r.AgentB.Name,
		PowerA:      r.AgentA.Power,
		PowerB:      r.AgentB.Power,
		Rigidity:    r.Config.Rigidity,
		NoiseScale:  r.Config.NoiseScale,
		Target:      r.Config.Target,
		Trials:      r.Trials,
		Seed:        r.Seed,
		WinsA:       r.WinsA,
		WinsB:       r.WinsB,
		MinTicks:    r.MinTicks,
		MaxTicks:    r.MaxTicks,
		MeanTicks:   r.MeanTicks,
		Elapsed:     r.Elapsed,
	}
}

// WinRateA returns agent A's share of wins in percent.
func (r RunRecord) WinRateA() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.WinsA) / float64(r.Trials) * 100
}

// WinRateB returns agent B's share of wins in percent.
func (r RunRecord) WinRateB() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.WinsB) / float64(r.Trials) * 100
}

const runColumns = `id, fingerprint, agent_a_name, agent_b_name, power_a, power_b,
	rigidity, noise_scale, target, trials, seed, wins_a, wins_b,
	min_ticks, max_ticks, mean_ticks, elapsed_ms, created_at`

// SaveRun stores a run and returns its id. CreatedAt is set when zero.
// Storing the same run twice returns ErrDuplicateRun.
func (d *Database) SaveRun(ctx context.Context, rec RunRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := d.qb.BuildWithReturning(`
		INSERT INTO runs (fingerprint, agent_a_name, agent_b_name, power_a, power_b,
			rigidity, noise_scale, target, trials, seed, wins_a, wins_b,
			min_ticks, max_ticks, mean_ticks, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, "id")
	args := []any{
		rec.Fingerprint, rec.AgentAName, rec.AgentBName, rec.PowerA, rec.PowerB,
		rec.Rigidity, rec.NoiseScale, rec.Target, rec.Trials, rec.Seed, rec.WinsA, rec.WinsB,
		rec.MinTicks, rec.MaxTicks, rec.MeanTicks, rec.Elapsed.Milliseconds(), rec.CreatedAt,
	}

	if d.dialect.SupportsLastInsertID() {
		res, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, d.saveError(err)
		}
		return res.LastInsertId()
	}

	var id int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, d.saveError(err)
	}
	return id, nil
}

func (d *Database) saveError(err error) error {
	if d.dialect.IsDuplicateKeyError(err) {
		return ErrDuplicateRun
	}
	return fmt.Errorf("failed to save run: %w", err)
}

// GetRun returns the run with the given id, or nil if there is none.
func (d *Database) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := d.db.QueryRowContext(ctx, d.qb.Build(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)

	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (d *Database) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return d.queryRuns(ctx, query, args...)
}

// FindRunsByFingerprint returns every stored run with the given fingerprint, oldest first.
func (d *Database) FindRunsByFingerprint(ctx context.Context, fingerprint string) ([]RunRecord, error) {
	return d.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE fingerprint = ? ORDER BY created_at ASC, id ASC`,
		fingerprint)
}

// ConflictingRuns returns earlier runs with the same fingerprint as rec whose
// tallies differ from it. Seeded runs are deterministic, so any result here
// means the simulator's behaviour changed between the two runs.
func (d *Database) ConflictingRuns(ctx context.Context, rec RunRecord) ([]RunRecord, error) {
	previous, err := d.FindRunsByFingerprint(ctx, rec.Fingerprint)
	if err != nil {
		return nil, err
	}

	var conflicts []RunRecord
	for _, p := range previous {
		if p.ID == rec.ID {
			continue
		}
		if p.WinsA != rec.WinsA || p.WinsB != rec.WinsB {
			conflicts = append(conflicts, p)
		}
	}
	return conflicts, nil
}

func (d *Database) queryRuns(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var elapsedMS int64
	err := row.Scan(
		&rec.ID, &rec.Fingerprint, &rec.AgentAName, &rec.AgentBName, &rec.PowerA, &rec.PowerB,
		&rec.Rigidity, &rec.NoiseScale, &rec.Target, &rec.Trials, &rec.Seed, &rec.WinsA, &rec.WinsB,
		&rec.MinTicks, &rec.MaxTicks, &rec.MeanTicks, &elapsedMS, &rec.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return rec, nil
}
