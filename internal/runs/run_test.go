package runs_test

import (
	"testing"

	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state runs.State
		want  bool
	}{
		{runs.StateReceived, false},
		{runs.StateParsed, false},
		{runs.StateClassified, false},
		{runs.StateExtracted, false},
		{runs.StateMapped, false},
		{runs.StateReplied, false},
		{runs.StateCompleted, true},
		{runs.StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunOutcome(t *testing.T) {
	allSuccess := []runs.StageResult{
		{Stage: "parse", Status: runs.StatusSuccess},
		{Stage: "classify", Status: runs.StatusSuccess},
	}
	withPartial := []runs.StageResult{
		{Stage: "parse", Status: runs.StatusSuccess},
		{Stage: "reply", Status: runs.StatusPartialFailure},
	}
	withSkipped := []runs.StageResult{
		{Stage: "parse", Status: runs.StatusSuccess},
		{Stage: "classify", Status: runs.StatusSkipped},
	}

	tests := []struct {
		name   string
		state  runs.State
		stages []runs.StageResult
		want   runs.Outcome
	}{
		{"completed clean", runs.StateCompleted, allSuccess, runs.OutcomeCompleted},
		{"completed with partial failure", runs.StateCompleted, withPartial, runs.OutcomeDegraded},
		{"completed with skipped stage", runs.StateCompleted, withSkipped, runs.OutcomeDegraded},
		{"failed ignores stages", runs.StateFailed, allSuccess, runs.OutcomeFailed},
		{"mid pipeline is running", runs.StateExtracted, allSuccess, runs.OutcomeRunning},
		{"received is running", runs.StateReceived, nil, runs.OutcomeRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runs.Run{State: tt.state, Stages: tt.stages}
			if got := r.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %s, want %s", got, tt.want)
			}
		})
	}
}
