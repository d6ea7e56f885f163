package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/harishmarimuthu13022003/finance-agent/internal/config"
	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/extraction"
	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/internal/ledger"
	"github.com/harishmarimuthu13022003/finance-agent/internal/mailbox"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
	"github.com/harishmarimuthu13022003/finance-agent/internal/runs"
)

// Runtime bundles the dependencies that pipeline nodes require. It is
// constructed by higher-level composition code from Infrastructure and
// Domain systems. Mailbox may be nil when no provider is configured; reply
// delivery is then skipped.
type Runtime struct {
	Emails     emails.System
	Runs       runs.System
	Ledger     ledger.System
	Parser     *extraction.Parser
	Classifier intents.Classifier
	Extractor  fields.Extractor
	Mapper     *ledger.Mapper
	Composer   *replies.Composer
	Mailbox    mailbox.Mailbox
	Config     config.PipelineConfig
	Logger     *slog.Logger
}

// withRetry runs fn up to the configured retry budget plus the initial
// attempt, doubling the backoff between attempts. Only transient errors are
// retried; permanent errors and context cancellation return immediately.
func (rt *Runtime) withRetry(ctx context.Context, fn func(context.Context) error) (int, error) {
	backoff := rt.Config.RetryBackoffDuration()
	attempts := 0

	for {
		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}

		if attempts > rt.Config.RetryBudget || !IsTransient(err) || ctx.Err() != nil {
			return attempts, err
		}

		rt.Logger.Warn("transient stage failure, retrying",
			"attempt", attempts,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
