package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
)

const generatePrompt = `You are a professional financial communication assistant. Write a reply to the email below.

Email from: %s
Subject: %s
Body:
%s

Classification: %s (confidence %.2f)
Extracted data:
%s

Company context:
%s

Write a professional, concise reply body. Reference only information present above. Never invent amounts, dates, or references. Respond with the reply body text only.`

// Generator composes contextual reply text using the language capability.
type Generator struct {
	rt     *Runtime
	logger *slog.Logger
}

// NewGenerator creates a Generator over the shared runtime.
func NewGenerator(rt *Runtime, logger *slog.Logger) *Generator {
	return &Generator{
		rt:     rt,
		logger: logger.With("capability", "generate"),
	}
}

// Generate conditions the model on the email, its classification, extracted
// fields, and retrieved snippets, and returns the reply body.
func (g *Generator) Generate(ctx context.Context, req replies.Request) (string, error) {
	callCtx, cancel := g.rt.callContext(ctx)
	defer cancel()

	a, err := agent.New(&g.rt.Agent)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		fmt.Fprintf(&data, "- %s: %s\n", name, req.Fields[name].Value)
	}
	if data.Len() == 0 {
		data.WriteString("(none)\n")
	}

	var snippets strings.Builder
	for _, s := range req.Snippets {
		fmt.Fprintf(&snippets, "[%s] %s\n", s.Title, s.Content)
	}
	if snippets.Len() == 0 {
		snippets.WriteString("(none)\n")
	}

	prompt := fmt.Sprintf(
		generatePrompt,
		req.Email.Sender,
		req.Email.Subject,
		req.Email.Body,
		req.Classification.Intent,
		req.Classification.Confidence,
		data.String(),
		snippets.String(),
	)

	resp, err := a.Chat(callCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	body := strings.TrimSpace(resp.Content())
	if body == "" {
		return "", fmt.Errorf("empty generation response")
	}

	g.logger.Info("reply text generated", "email_id", req.Email.ID)
	return body, nil
}
