// Package report renders simulation results as text, bar charts and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lawnchairsociety/racesim/internal/race"
	"github.com/lawnchairsociety/racesim/internal/stats"
)

// DefaultBarWidth is the width of the win-rate chart in cells.
const DefaultBarWidth = 50

const (
	barCellA = '█'
	barCellB = '░'
)

// Summary is the JSON form of an aggregate result with its derived rates.
type Summary struct {
	race.AggregateResult
	WinRateA   float64    `json:"win_rate_a"`
	WinRateB   float64    `json:"win_rate_b"`
	Confidence [2]float64 `json:"confidence_a_95"`
	StdErrorA  float64    `json:"std_error_a"`
	Leader     string     `json:"leader"`
	ElapsedMS  int64      `json:"elapsed_ms"`
}

// NewSummary derives the reported rates for r.
func NewSummary(r race.AggregateResult) Summary {
	lo, hi := r.ConfidenceA(stats.Z95)
	return Summary{
		AggregateResult: r,
		WinRateA:        r.WinRateA(),
		WinRateB:        r.WinRateB(),
		Confidence:      [2]float64{lo, hi},
		StdErrorA:       stats.StandardError(r.WinsA, r.Trials) * 100,
		Leader:          r.Leader().String(),
		ElapsedMS:       r.Elapsed.Milliseconds(),
	}
}

// WriteJSON writes r as an indented JSON document.
func WriteJSON(w io.Writer, r race.AggregateResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSummary(r))
}

// WriteText writes a human-readable summary of r followed by its bar chart.
func WriteText(w io.Writer, r race.AggregateResult) error {
	nameA := agentLabel(r.AgentA, race.AgentA)
	nameB := agentLabel(r.AgentB, race.AgentB)
	lo, hi := r.ConfidenceA(stats.Z95)

	var b strings.Builder
	b.WriteString("=== Race Simulation ===\n\n")
	fmt.Fprintf(&b, "%s: power %.2f, p=%.4f\n", nameA, r.AgentA.Power, r.Probabilities.A)
	fmt.Fprintf(&b, "%s: power %.2f, p=%.4f\n", nameB, r.AgentB.Power, r.Probabilities.B)
	fmt.Fprintf(&b, "Rigidity %.2f, noise %.2f, target %.2f\n",
		r.Config.Rigidity, r.Config.NoiseScale, r.Config.Target)
	fmt.Fprintf(&b, "Trials: %s, seed %d, elapsed %s\n",
		humanize.Comma(int64(r.Trials)), r.Seed, formatElapsed(r.Elapsed))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s win rate: %.2f%% (95%% CI %.2f%% - %.2f%%)\n", nameA, r.WinRateA(), lo, hi)
	fmt.Fprintf(&b, "%s win rate: %.2f%%\n", nameB, r.WinRateB())
	fmt.Fprintf(&b, "Race length: min %d, mean %.1f, max %d ticks\n", r.MinTicks, r.MeanTicks, r.MaxTicks)
	b.WriteString("\n")
	b.WriteString(Bar(r, DefaultBarWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%c %s   %c %s\n", barCellA, nameA, barCellB, nameB)

	_, err := io.WriteString(w, b.String())
	return err
}

// Bar renders a stacked bar of width cells split by the two win rates.
// The segments always add up to width.
func Bar(r race.AggregateResult, width int) string {
	if width <= 0 {
		return "[]"
	}
	cellsA := 0
	if r.Trials > 0 {
		cellsA = int(math.Round(float64(r.WinsA) / float64(r.Trials) * float64(width)))
	}
	return "[" + strings.Repeat(string(barCellA), cellsA) +
		strings.Repeat(string(barCellB), width-cellsA) + "]"
}

func agentLabel(a race.AgentConfig, which race.Agent) string {
	if a.Name == "" {
		return "Agent " + which.String()
	}
	return fmt.Sprintf("%s (%s)", a.Name, which)
}

func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
