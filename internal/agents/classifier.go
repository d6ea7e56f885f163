package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/formatting"
)

const classifyPrompt = `You are a financial email classifier. Classify the intent of the email below.

Valid intents: %s

Respond with JSON only:
{"intent": "<one of the valid intents>", "confidence": <0.0-1.0>, "rationale": "<one sentence>"}

Email:
%s`

type classifyResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// Classifier assigns an intent to email text using the language capability.
type Classifier struct {
	rt     *Runtime
	logger *slog.Logger
}

// NewClassifier creates a Classifier over the shared runtime.
func NewClassifier(rt *Runtime, logger *slog.Logger) *Classifier {
	return &Classifier{
		rt:     rt,
		logger: logger.With("capability", "classify"),
	}
}

// Classify sends the email text to the model and parses the structured
// response. An unreachable capability or unparsable response is returned as
// an error; the caller decides whether to retry or degrade to Unknown.
func (c *Classifier) Classify(ctx context.Context, text string) (intents.Classification, error) {
	callCtx, cancel := c.rt.callContext(ctx)
	defer cancel()

	a, err := agent.New(&c.rt.Agent)
	if err != nil {
		return intents.Unknown(), fmt.Errorf("create agent: %w", err)
	}

	prompt := fmt.Sprintf(classifyPrompt, intentList(), text)

	resp, err := a.Chat(callCtx, prompt)
	if err != nil {
		return intents.Unknown(), fmt.Errorf("chat call: %w", err)
	}

	result, err := parseClassification(resp.Content())
	if err != nil {
		return intents.Unknown(), err
	}

	c.logger.Info("email classified",
		"intent", result.Intent,
		"confidence", result.Confidence,
	)
	return result, nil
}

// parseClassification converts the model's JSON reply into a Classification,
// clamping confidence so out-of-range model output never leaves [0,1].
func parseClassification(content string) (intents.Classification, error) {
	parsed, err := formatting.Parse[classifyResponse](content)
	if err != nil {
		return intents.Unknown(), fmt.Errorf("parse response: %w", err)
	}

	result := intents.Classification{
		Intent:     intents.ParseIntent(parsed.Intent),
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}
	return result.Clamp(), nil
}

func intentList() string {
	var out string
	for i, intent := range intents.Intents() {
		if i > 0 {
			out += ", "
		}
		out += string(intent)
	}
	return out
}
