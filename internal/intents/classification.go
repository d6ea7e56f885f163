package intents

import "context"

// Classification is the immutable result of intent classification for one email.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Clamp bounds the confidence to [0,1]. A stage that cannot establish
// confidence reports 0.0, never an out-of-range or missing value.
func (c Classification) Clamp() Classification {
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c
}

// Unknown is the classification recorded when the capability is unreachable
// or returns an unusable result.
func Unknown() Classification {
	return Classification{Intent: IntentUnknown, Confidence: 0}
}

// Classifier assigns an intent label and confidence to email text.
// Implementations wrap the LLM capability; tests substitute deterministic fakes.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}
