package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// ParseNode converts the raw email and its attachments to text. Attachment
// failures degrade the stage to PartialFailure; the email body always
// survives, so parsing never fails outright.
func ParseNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ex, err := currentExecution(s)
		if err != nil {
			return s, fmt.Errorf("parse: %w", err)
		}
		if ex.cancelled(ctx) {
			return s, nil
		}

		started := time.Now()
		parsed, failures := rt.Parser.Parse(ctx, ex.Email)
		ex.Parsed = parsed

		result := runs.StageResult{
			Status:   runs.StatusSuccess,
			Attempts: 1,
			Output:   fmt.Sprintf("attachments=%d", len(ex.Email.Attachments)),
			Duration: time.Since(started),
		}
		if len(failures) > 0 {
			details := make([]string, len(failures))
			for i, f := range failures {
				details[i] = fmt.Sprintf("%s: %s", f.Filename, f.Detail)
			}
			result.Status = runs.StatusPartialFailure
			result.ErrorDetail = strings.Join(details, "; ")
		}

		rt.record(ctx, ex, StageParse, result, runs.StateParsed)
		return s.Set(KeyExecution, ex), nil
	})
}

// ClassifyNode assigns an intent to the parsed text. A capability failure
// after retries leaves the record at Unknown with zero confidence and lets
// the run continue in restricted mode.
func ClassifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ex, err := currentExecution(s)
		if err != nil {
			return s, fmt.Errorf("classify: %w", err)
		}
		if ex.cancelled(ctx) {
			return s, nil
		}

		started := time.Now()
		var classification intents.Classification

		attempts, err := rt.withRetry(ctx, func(callCtx context.Context) error {
			var callErr error
			classification, callErr = rt.Classifier.Classify(callCtx, ex.Parsed.Text())
			return callErr
		})

		result := runs.StageResult{
			Attempts: attempts,
			Duration: time.Since(started),
		}

		if err != nil {
			ex.Classification = intents.Unknown()
			result.Status = runs.StatusFailure
			result.ErrorDetail = err.Error()
		} else {
			ex.Classification = classification
			result.Status = runs.StatusSuccess
			result.Output = fmt.Sprintf("intent=%s confidence=%.2f",
				classification.Intent, classification.Confidence)
		}

		rt.record(ctx, ex, StageClassify, result, runs.StateClassified)
		return s.Set(KeyExecution, ex), nil
	})
}

// ExtractNode requests the intent's field schema from the extraction
// capability, then normalizes values and drops below-threshold confidences.
// When the capability omits the amount, a textual sweep over the parsed
// email is tried as a secondary source.
func ExtractNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ex, err := currentExecution(s)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}
		if ex.cancelled(ctx) {
			return s, nil
		}

		started := time.Now()
		schema := fields.Schema(ex.Classification.Intent)

		var set fields.Set
		attempts, err := rt.withRetry(ctx, func(callCtx context.Context) error {
			var callErr error
			set, callErr = rt.Extractor.Extract(callCtx, ex.Parsed.Text(), schema)
			return callErr
		})

		result := runs.StageResult{
			Attempts: attempts,
			Duration: time.Since(started),
		}

		if err != nil {
			ex.Fields = fields.Set{}
			result.Status = runs.StatusFailure
			result.ErrorDetail = err.Error()
			rt.record(ctx, ex, StageExtract, result, runs.StateExtracted)
			return s.Set(KeyExecution, ex), nil
		}

		set = set.ApplyThreshold(rt.Config.FieldConfidenceMin)
		normalized, dropped := fields.Normalize(set)

		if _, ok := normalized.Get(fields.FieldAmount); !ok {
			for name, f := range fields.Sweep(ex.Parsed.Text()).ApplyThreshold(rt.Config.FieldConfidenceMin) {
				if _, exists := normalized[name]; !exists {
					normalized[name] = f
				}
			}
		}

		ex.Fields = normalized
		result.Status = runs.StatusSuccess
		result.Output = fmt.Sprintf("fields=%d", len(normalized))
		if len(dropped) > 0 {
			result.Output += fmt.Sprintf(" dropped=%s", strings.Join(dropped, ","))
		}

		rt.record(ctx, ex, StageExtract, result, runs.StateExtracted)
		return s.Set(KeyExecution, ex), nil
	})
}

// MapNode applies the ledger rule table and persists the resulting entry.
// Mapping itself is pure; only the store write can fail, which degrades the
// stage without aborting the run.
func MapNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ex, err := currentExecution(s)
		if err != nil {
			return s, fmt.Errorf("map: %w", err)
		}
		if ex.cancelled(ctx) {
			return s, nil
		}

		started := time.Now()
		ex.Mapped = rt.Mapper.Map(ex.Classification, ex.Fields, ex.Email.ID)

		entry := ex.Mapped.Entry
		attempts, err := rt.withRetry(ctx, func(callCtx context.Context) error {
			written, writeErr := rt.Ledger.Write(callCtx, entry)
			if writeErr != nil {
				return writeErr
			}
			ex.Entry = written
			return nil
		})

		result := runs.StageResult{
			Attempts: attempts,
			Duration: time.Since(started),
		}

		if err != nil {
			result.Status = runs.StatusFailure
			result.ErrorDetail = err.Error()
		} else {
			result.Status = runs.StatusSuccess
			result.Output = fmt.Sprintf("status=%s account=%s",
				ex.Entry.Status, ex.Entry.AccountCode)
			if ex.Entry.Rejected() {
				result.Output = fmt.Sprintf("status=%s reason=%s",
					ex.Entry.Status, ex.Entry.Reason)
			}
		}

		rt.record(ctx, ex, StageMap, result, runs.StateMapped)
		return s.Set(KeyExecution, ex), nil
	})
}

// ReplyNode composes the reply draft and, when a mailbox is configured,
// delivers it. Fallback composition or delivery failure degrades the stage
// to PartialFailure; the draft itself is always recorded.
func ReplyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ex, err := currentExecution(s)
		if err != nil {
			return s, fmt.Errorf("reply: %w", err)
		}
		if ex.cancelled(ctx) {
			return s, nil
		}

		started := time.Now()
		draft, degraded := rt.Composer.Compose(ctx, ex.Email, ex.Classification, ex.Fields, ex.Mapped)
		ex.Draft = draft

		result := runs.StageResult{
			Status:   runs.StatusSuccess,
			Attempts: 1,
			Duration: time.Since(started),
		}
		if degraded {
			result.Status = runs.StatusPartialFailure
			result.ErrorDetail = "fallback template used"
		}

		if rt.Mailbox != nil {
			if sendErr := rt.Mailbox.SendReply(ctx, ex.Email.ID, *draft); sendErr != nil {
				rt.Logger.Warn("reply delivery failed",
					"email_id", ex.Email.ID,
					"error", sendErr,
				)
				result.Status = runs.StatusPartialFailure
				result.ErrorDetail = fmt.Sprintf("delivery failed: %v", sendErr)
			}
		}

		if encoded, encodeErr := json.Marshal(draft); encodeErr == nil {
			result.Output = string(encoded)
		}

		rt.record(ctx, ex, StageReply, result, runs.StateReplied)
		return s.Set(KeyExecution, ex), nil
	})
}
