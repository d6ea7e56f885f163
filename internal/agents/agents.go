// Package agents implements the language-model capabilities behind
// classification, field extraction, OCR, and reply generation. Each call
// creates a fresh agent from the shared configuration, applies the
// capability timeout, and parses the structured response.
package agents

import (
	"context"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Runtime carries the shared agent configuration and per-call timeout.
type Runtime struct {
	Agent   gaconfig.AgentConfig
	Timeout time.Duration
}

// callContext applies the capability timeout when one is configured.
func (rt *Runtime) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rt.Timeout)
}
