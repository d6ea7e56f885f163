package pipeline

import (
	"context"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// Execute runs the processing pipeline for a single email. It begins a run
// record, builds the stage graph (parse → classify → extract → map → reply),
// executes it, and finishes the run. Stage failures degrade the run; only
// malformed input or cancellation produces a Failed terminal state.
func Execute(ctx context.Context, rt *Runtime, email emails.RawEmail) (*runs.Run, error) {
	run, err := rt.Runs.Begin(ctx, email.ID)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	ex := newExecution(run, email)

	if err := email.Validate(); err != nil {
		ex.Halted = true
		ex.HaltReason = err.Error()
		rt.skipRemaining(ctx, ex)
		return rt.Runs.Finish(context.WithoutCancel(ctx), run.ID, runs.StateFailed, ex.HaltReason)
	}

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyExecution, ex)

	if err := runGraph(ctx, graph, initialState); err != nil {
		// the graph aborts between nodes when the context is cancelled
		if ctx.Err() != nil {
			ex.Halted = true
			ex.HaltReason = "cancelled"
		} else {
			ex.Halted = true
			ex.HaltReason = err.Error()
		}
	}

	finishCtx := context.WithoutCancel(ctx)

	if ex.Halted {
		rt.skipRemaining(finishCtx, ex)
		return rt.Runs.Finish(finishCtx, run.ID, runs.StateFailed, ex.HaltReason)
	}

	return rt.Runs.Finish(finishCtx, run.ID, runs.StateCompleted, "")
}

// runGraph contains node panics so a misbehaving stage fails the run
// instead of the process.
func runGraph(ctx context.Context, graph state.StateGraph, initial state.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()

	_, err = graph.Execute(ctx, initial)
	return err
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("email-pipeline")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode(StageParse, ParseNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode(StageClassify, ClassifyNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode(StageExtract, ExtractNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode(StageMap, MapNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode(StageReply, ReplyNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge(StageParse, StageClassify, nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(StageClassify, StageExtract, nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(StageExtract, StageMap, nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(StageMap, StageReply, nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint(StageParse); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(StageReply); err != nil {
		return nil, err
	}

	return graph, nil
}
