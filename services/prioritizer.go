package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"retroriff/types"
)

const (
	fieldSearchQuery = "searchQuery"
	fieldSource      = "source"
)

// SourcePrioritizer picks the search query and source platform for a harvest
type SourcePrioritizer interface {
	Prioritize(ctx context.Context, criteria types.SearchCriteria) (types.PrioritizationResult, error)
}

// LLMPrioritizer asks a language model for the search plan. It makes exactly one
// call per request and never retries.
type LLMPrioritizer struct {
	completer Completer
}

// NewLLMPrioritizer creates a prioritizer backed by the given completer
func NewLLMPrioritizer(completer Completer) *LLMPrioritizer {
	return &LLMPrioritizer{completer: completer}
}

// Prioritize renders the prompt, calls the model and validates its output
func (p *LLMPrioritizer) Prioritize(ctx context.Context, criteria types.SearchCriteria) (types.PrioritizationResult, error) {
	in := criteria.PrioritizationInput()
	raw, err := p.completer.CompleteJSON(ctx, CompletionRequest{
		System:       prioritizeSystemPrompt,
		Prompt:       fmt.Sprintf(prioritizePrompt, in.Artists, in.Genre, in.Year),
		StringFields: []string{fieldSearchQuery, fieldSource},
	})
	if err != nil {
		return types.PrioritizationResult{}, fmt.Errorf("prioritize sources: %w", err)
	}

	result, err := parsePrioritization(raw)
	if err != nil {
		return types.PrioritizationResult{}, fmt.Errorf("prioritize sources: %w", err)
	}
	return result, nil
}

// parsePrioritization validates raw model output against the result schema
func parsePrioritization(raw string) (types.PrioritizationResult, error) {
	cleaned := stripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return types.PrioritizationResult{}, &ValidationError{Reason: "output is not a JSON object", Raw: raw}
	}

	values := make(map[string]string, 2)
	for _, name := range []string{fieldSearchQuery, fieldSource} {
		value, ok := fields[name]
		if !ok {
			return types.PrioritizationResult{}, &ValidationError{Field: name, Reason: "missing", Raw: raw}
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return types.PrioritizationResult{}, &ValidationError{Field: name, Reason: "must be a string", Raw: raw}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return types.PrioritizationResult{}, &ValidationError{Field: name, Reason: "must not be empty", Raw: raw}
		}
		values[name] = s
	}

	return types.PrioritizationResult{
		SearchQuery: values[fieldSearchQuery],
		Source:      values[fieldSource],
	}, nil
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// HeuristicPrioritizer builds the search plan without a model. It is used when
// no API key is configured.
type HeuristicPrioritizer struct{}

// Prioritize joins the non-empty criteria into a query aimed at popular tracks
func (HeuristicPrioritizer) Prioritize(_ context.Context, criteria types.SearchCriteria) (types.PrioritizationResult, error) {
	in := criteria.PrioritizationInput()

	parts := make([]string, 0, 4)
	for _, v := range []string{in.Artists, in.Genre, in.Year} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return types.PrioritizationResult{}, types.ErrEmptyCriteria
	}
	parts = append(parts, "greatest hits full album")

	return types.PrioritizationResult{
		SearchQuery: strings.Join(parts, " "),
		Source:      "YouTube",
	}, nil
}
