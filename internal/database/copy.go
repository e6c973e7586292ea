package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/racesim/internal/logger"
)

// CopyRuns copies every run in src to dst, oldest first, and returns the number
// copied. Runs already in dst with the same fingerprint and creation time are
// skipped, so an interrupted copy can be repeated. With dryRun set nothing is
// written and the return value is the number that would be copied.
func CopyRuns(ctx context.Context, src, dst *Database, dryRun bool) (int64, error) {
	runs, err := src.ListRuns(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read source runs: %w", err)
	}

	var copied int64
	for i := len(runs) - 1; i >= 0; i-- {
		rec := runs[i]

		existing, err := dst.FindRunsByFingerprint(ctx, rec.Fingerprint)
		if err != nil {
			return copied, fmt.Errorf("failed to check run %d: %w", rec.ID, err)
		}
		if containsRun(existing, rec) {
			logger.Debug("Run already copied", "run_id", rec.ID, "fingerprint", rec.Fingerprint)
			continue
		}

		if !dryRun {
			_, err := dst.SaveRun(ctx, rec)
			if errors.Is(err, ErrDuplicateRun) {
				continue
			}
			if err != nil {
				return copied, fmt.Errorf("failed to copy run %d: %w", rec.ID, err)
			}
		}
		copied++
	}

	return copied, nil
}

// containsRun matches creation times at microsecond precision, the finest
// a PostgreSQL TIMESTAMP keeps.
func containsRun(runs []RunRecord, rec RunRecord) bool {
	want := rec.CreatedAt.Truncate(time.Microsecond)
	for _, r := range runs {
		if r.CreatedAt.Truncate(time.Microsecond).Equal(want) {
			return true
		}
	}
	return false
}
