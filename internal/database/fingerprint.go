package database

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/racesim/internal/race"
)

// Fingerprint identifies the parameters that determine a seeded run's tallies.
// Agent names, worker count and the tick bound do not affect the outcome and
// are left out.
func Fingerprint(a, b race.AgentConfig, cfg race.SimulationConfig, seed int64) string {
	canonical := fmt.Sprintf("power_a=%s;power_b=%s;rigidity=%s;noise_scale=%s;target=%s;trials=%d;seed=%d",
		formatFloat(a.Power),
		formatFloat(b.Power),
		formatFloat(cfg.Rigidity),
		formatFloat(cfg.NoiseScale),
		formatFloat(cfg.Target),
		cfg.Trials,
		seed)

	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
