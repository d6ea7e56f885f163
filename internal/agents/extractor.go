package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/harishmarimuthu13022003/finance-agent/internal/fields"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/formatting"
)

const extractPrompt = `You are a financial data extractor. Extract the requested fields from the email below.

Requested fields: %s

Respond with JSON only, omitting any field you cannot find. Never invent values:
{"<field>": {"value": "<extracted value>", "confidence": <0.0-1.0>, "source_span": "<exact source text>"}}

Email:
%s`

type extractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceSpan *string `json:"source_span,omitempty"`
}

// Extractor pulls intent-specific fields from email text using the
// language capability.
type Extractor struct {
	rt     *Runtime
	logger *slog.Logger
}

// NewExtractor creates an Extractor over the shared runtime.
func NewExtractor(rt *Runtime, logger *slog.Logger) *Extractor {
	return &Extractor{
		rt:     rt,
		logger: logger.With("capability", "extract"),
	}
}

// Extract requests the schema's fields from the model. Fields the model
// omits stay absent; confidence filtering happens downstream.
func (e *Extractor) Extract(ctx context.Context, text string, schema []string) (fields.Set, error) {
	if len(schema) == 0 {
		return fields.Set{}, nil
	}

	callCtx, cancel := e.rt.callContext(ctx)
	defer cancel()

	a, err := agent.New(&e.rt.Agent)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	prompt := fmt.Sprintf(extractPrompt, strings.Join(schema, ", "), text)

	resp, err := a.Chat(callCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat call: %w", err)
	}

	parsed, err := formatting.Parse[map[string]extractedField](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	set := make(fields.Set, len(parsed))
	for _, name := range schema {
		f, ok := parsed[name]
		if !ok || f.Value == "" {
			continue
		}
		set[name] = fields.Field{
			Value:      f.Value,
			Confidence: f.Confidence,
			SourceSpan: f.SourceSpan,
		}
	}

	e.logger.Info("fields extracted",
		"requested", len(schema),
		"returned", len(set),
	)
	return set, nil
}
