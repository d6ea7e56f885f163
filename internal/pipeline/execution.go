package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// KeyExecution is the graph state key carrying the execution record.
const KeyExecution = "execution"

// stageNames lists the pipeline stages in execution order.
var stageNames = []string{
	StageParse,
	StageClassify,
	StageExtract,
	StageMap,
	StageReply,
}

const (
	StageParse    = "parse"
	StageClassify = "classify"
	StageExtract  = "extract"
	StageMap      = "map"
	StageReply    = "reply"
)

// execution is the record that accumulates through the graph: each stage
// reads the previous stages' output from it and appends its own.
type execution struct {
	Run            *runs.Run
	Email          emails.RawEmail
	Parsed         *emails.ParsedEmail
	Classification intents.Classification
	Fields         fields.Set
	Mapped         ledger.Result
	Entry          *ledger.Entry
	Draft          *replies.Draft

	State      runs.State
	Recorded   map[string]bool
	Halted     bool
	HaltReason string
}

func newExecution(run *runs.Run, email emails.RawEmail) *execution {
	return &execution{
		Run:      run,
		Email:    email,
		State:    runs.StateReceived,
		Recorded: make(map[string]bool),
	}
}

// cancelled marks the execution halted when the context is done. Stages call
// this on entry, so cancellation lands between stages, never inside one.
func (ex *execution) cancelled(ctx context.Context) bool {
	if ex.Halted {
		return true
	}
	if ctx.Err() != nil {
		ex.Halted = true
		ex.HaltReason = "cancelled"
		return true
	}
	return false
}

func currentExecution(s state.State) (*execution, error) {
	val, ok := s.Get(KeyExecution)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyExecution)
	}

	ex, ok := val.(*execution)
	if !ok {
		return nil, fmt.Errorf("%s is not an execution", KeyExecution)
	}
	return ex, nil
}

// record appends one stage result and advances the run state. The audit
// trail is written even when the run's context was cancelled.
func (rt *Runtime) record(
	ctx context.Context,
	ex *execution,
	stage string,
	result runs.StageResult,
	next runs.State,
) {
	result.Stage = stage
	result.RecordedAt = time.Now().UTC()

	writeCtx := context.WithoutCancel(ctx)
	if err := rt.Runs.RecordStage(writeCtx, ex.Run.ID, result, next); err != nil {
		rt.Logger.Error("record stage result failed",
			"run_id", ex.Run.ID,
			"stage", stage,
			"error", err,
		)
	}

	ex.Recorded[stage] = true
	ex.State = next
}

// skipRemaining records a Skipped result for every stage that never ran.
func (rt *Runtime) skipRemaining(ctx context.Context, ex *execution) {
	for _, stage := range stageNames {
		if ex.Recorded[stage] {
			continue
		}
		rt.record(ctx, ex, stage, runs.StageResult{
			Status:      runs.StatusSkipped,
			ErrorDetail: ex.HaltReason,
		}, ex.State)
	}
}
