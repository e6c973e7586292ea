package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/race"
)

// WriteSweep writes one row per sweep point. param names the varied value.
func WriteSweep(w io.Writer, param string, points []race.SweepPoint) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s Sweep ===\n\n", titleCase(param))
	if len(points) > 0 {
		first := points[0].Result
		fmt.Fprintf(&b, "Trials per point: %s, seed %d\n\n", humanize.Comma(int64(first.Trials)), first.Seed)
	}

	fmt.Fprintf(&b, "%10s | Win Rate A | Win Rate B | Mean Ticks | Max Ticks\n", param)
	b.WriteString("-----------+------------+------------+------------+----------\n")
	for _, p := range points {
		r := p.Result
		fmt.Fprintf(&b, "%10.3f | %9.2f%% | %9.2f%% | %10.1f | %9d\n",
			p.Value, r.WinRateA(), r.WinRateB(), r.MeanTicks, r.MaxTicks)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHistory writes stored runs as a table, in the order given.
func WriteHistory(w io.Writer, runs []database.RunRecord) error {
	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString("No stored runs.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("   ID | When            | Power A | Power B |   Trials |       Seed | Win A  | Fingerprint\n")
	b.WriteString("------+-----------------+---------+---------+----------+------------+--------+------------\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "%5d | %-15s | %7.2f | %7.2f | %8s | %10d | %5.2f%% | %s\n",
			r.ID, humanize.Time(r.CreatedAt), r.PowerA, r.PowerB,
			humanize.Comma(int64(r.Trials)), r.Seed, r.WinRateA(), shortFingerprint(r.Fingerprint))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
