package server

import (
	"errors"

	"github.com/lawnchairsociety/racesim/internal/race"
	"github.com/lawnchairsociety/racesim/internal/report"
)

// Message types exchanged over /ws.
const (
	TypeRun      = "run"
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeError    = "error"
)

// Error kinds carried by error messages.
const (
	KindConfig     = "config"
	KindSimulation = "simulation"
	KindRequest    = "request"
)

// RunRequest asks the server to run one simulation.
type RunRequest struct {
	Type       string                `json:"type"`
	AgentA     race.AgentConfig      `json:"agent_a"`
	AgentB     race.AgentConfig      `json:"agent_b"`
	Simulation race.SimulationConfig `json:"simulation"`

	// ProgressEvery sets how often progress is reported. 0 reports every tenth of the run.
	ProgressEvery int `json:"progress_every,omitempty"`
}

// Message is a server-to-client message. Fields not relevant to Type are omitted.
type Message struct {
	Type string `json:"type"`

	Completed int `json:"completed,omitempty"`
	Total     int `json:"total,omitempty"`

	Result *report.Summary `json:"result,omitempty"`
	RunID  int64           `json:"run_id,omitempty"`

	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

func progressMessage(completed, total int) Message {
	return Message{Type: TypeProgress, Completed: completed, Total: total}
}

func resultMessage(r race.AggregateResult, runID int64) Message {
	summary := report.NewSummary(r)
	return Message{Type: TypeResult, Result: &summary, RunID: runID}
}

func requestError(msg string) Message {
	return Message{Type: TypeError, Kind: KindRequest, Message: msg}
}

// errorMessage classifies a failed run for the client.
func errorMessage(err error) Message {
	var cfgErr *race.ConfigError
	if errors.As(err, &cfgErr) {
		return Message{Type: TypeError, Kind: KindConfig, Message: err.Error()}
	}
	return Message{Type: TypeError, Kind: KindSimulation, Message: err.Error()}
}

func progressInterval(req RunRequest) int {
	if req.ProgressEvery > 0 {
		return req.ProgressEvery
	}
	if every := req.Simulation.Trials / 10; every > 0 {
		return every
	}
	return 1
}
