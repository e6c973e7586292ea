// Package race simulates two-agent races toward a fixed target and estimates
// win rates by Monte Carlo repetition.
package race

import (
	"math"
)

// Agent identifies one of the two competitors.
type Agent int

const (
	AgentA Agent = iota
	AgentB
)

// String returns the agent's role label.
func (a Agent) String() string {
	switch a {
	case AgentA:
		return "A"
	case AgentB:
		return "B"
	default:
		return "unknown"
	}
}

// AgentConfig describes one competitor.
type AgentConfig struct {
	Name  string  `json:"name"`
	Power float64 `json:"power"` // θ
}

// NormalizedProbabilities holds each agent's per-tick mean advancement.
// A + B == 1 and both lie in [0, 1].
type NormalizedProbabilities struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// EffectiveProbability damps an agent's power by the shared rigidity.
func EffectiveProbability(power, rigidity float64) float64 {
	return power / (1 + rigidity)
}

// Normalize derives the normalized advancement probabilities for two agents.
func Normalize(a, b AgentConfig, rigidity float64) (NormalizedProbabilities, error) {
	if err := checkNonNegative("rigidity", rigidity); err != nil {
		return NormalizedProbabilities{}, err
	}
	if err := checkNonNegative("power of agent A", a.Power); err != nil {
		return NormalizedProbabilities{}, err
	}
	if err := checkNonNegative("power of agent B", b.Power); err != nil {
		return NormalizedProbabilities{}, err
	}

	rawA := EffectiveProbability(a.Power, rigidity)
	rawB := EffectiveProbability(b.Power, rigidity)
	total := rawA + rawB
	if total == 0 {
		return NormalizedProbabilities{}, &ConfigError{
			Field:  "power",
			Reason: "both agents have zero power, probabilities cannot be normalized",
		}
	}

	pA := rawA / total
	return NormalizedProbabilities{A: pA, B: 1 - pA}, nil
}

func checkNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &ConfigError{Field: field, Reason: "must not be negative"}
	}
	return nil
}
