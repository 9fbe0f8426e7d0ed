package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/newsdesk/core"
)

// DecodePlan parses a model's research plan response.
// Markdown code fences and surrounding prose are stripped and common
// key-quoting mistakes repaired before decoding. The result is normalized.
func DecodePlan(text string) (*core.ResearchPlan, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	text = repairJSON(extractObject(text))

	var plan core.ResearchPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPlan, err)
	}
	plan.Normalize()
	return &plan, nil
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
