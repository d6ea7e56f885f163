package agents

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/go-agents/pkg/agent"
)

const ocrPrompt = `Transcribe all text visible in this image. Preserve amounts, dates, and reference numbers exactly as written. Respond with the transcribed text only; respond with an empty string if the image contains no text.`

// OCR transcribes image attachments through the vision capability.
type OCR struct {
	rt     *Runtime
	logger *slog.Logger
}

// NewOCR creates an OCR engine over the shared runtime.
func NewOCR(rt *Runtime, logger *slog.Logger) *OCR {
	return &OCR{
		rt:     rt,
		logger: logger.With("capability", "ocr"),
	}
}

// Recognize sends the image to the vision model as a data URI and returns
// the transcription.
func (o *OCR) Recognize(ctx context.Context, mimeType string, data []byte) (string, error) {
	callCtx, cancel := o.rt.callContext(ctx)
	defer cancel()

	a, err := agent.New(&o.rt.Agent)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s",
		mimeType, base64.StdEncoding.EncodeToString(data))

	resp, err := a.Vision(callCtx, ocrPrompt, []string{dataURI})
	if err != nil {
		return "", fmt.Errorf("vision call: %w", err)
	}

	text := strings.TrimSpace(resp.Content())
	o.logger.Info("image transcribed", "mime_type", mimeType, "chars", len(text))
	return text, nil
}
