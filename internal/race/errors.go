package race

import "fmt"

// ConfigError reports invalid or degenerate simulation parameters.
// It is returned before any race is simulated.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SimulationError reports an invariant violation while a race was running,
// such as exceeding the tick limit. It aborts the whole run.
type SimulationError struct {
	Trial  int // -1 when the race was simulated outside an aggregate run
	Ticks  int
	Reason string
	Err    error
}

func (e *SimulationError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Trial >= 0 {
		return fmt.Sprintf("trial %d failed after %d ticks: %s", e.Trial, e.Ticks, msg)
	}
	return fmt.Sprintf("race failed after %d ticks: %s", e.Ticks, msg)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// trialError attaches the trial index to an error raised by a single race.
func trialError(trial int, err error) error {
	if se, ok := err.(*SimulationError); ok {
		tagged := *se
		tagged.Trial = trial
		return &tagged
	}
	return &SimulationError{Trial: trial, Reason: "race could not be simulated", Err: err}
}
