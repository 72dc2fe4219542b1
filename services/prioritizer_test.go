package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retroriff/types"
)

type fakeCompleter struct {
	raw   string
	err   error
	calls int
	last  CompletionRequest
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, req CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.raw, f.err
}

func TestLLMPrioritizerParsesModelOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want types.PrioritizationResult
	}{
		{
			name: "plain object",
			raw:  `{"searchQuery": "Queen greatest hits", "source": "YouTube"}`,
			want: types.PrioritizationResult{SearchQuery: "Queen greatest hits", Source: "YouTube"},
		},
		{
			name: "fenced object",
			raw:  "```json\n{\"searchQuery\": \"80s rock anthems\", \"source\": \"SoundCloud\"}\n```",
			want: types.PrioritizationResult{SearchQuery: "80s rock anthems", Source: "SoundCloud"},
		},
		{
			name: "extra fields ignored",
			raw:  `{"searchQuery": " grunge 1991 ", "source": "YouTube", "confidence": 0.9}`,
			want: types.PrioritizationResult{SearchQuery: "grunge 1991", Source: "YouTube"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{raw: tt.raw}
			p := NewLLMPrioritizer(completer)

			got, err := p.Prioritize(context.Background(), types.SearchCriteria{Artists: "Queen"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, completer.calls)
		})
	}
}

func TestLLMPrioritizerRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "not json", raw: "Sure! Try searching YouTube."},
		{name: "array", raw: `["YouTube"]`},
		{name: "missing source", raw: `{"searchQuery": "Queen"}`, field: "source"},
		{name: "missing query", raw: `{"source": "YouTube"}`, field: "searchQuery"},
		{name: "query not a string", raw: `{"searchQuery": 42, "source": "YouTube"}`, field: "searchQuery"},
		{name: "blank source", raw: `{"searchQuery": "Queen", "source": "  "}`, field: "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewLLMPrioritizer(&fakeCompleter{raw: tt.raw})

			_, err := p.Prioritize(context.Background(), types.SearchCriteria{Genre: "rock"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.raw, verr.Raw)
		})
	}
}

func TestLLMPrioritizerPropagatesCompleterError(t *testing.T) {
	transport := errors.New("connection reset")
	completer := &fakeCompleter{err: transport}

	_, err := NewLLMPrioritizer(completer).Prioritize(context.Background(), types.SearchCriteria{Year: "1975"})

	require.Error(t, err)
	assert.ErrorIs(t, err, transport)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, completer.calls)
}

func TestLLMPrioritizerPromptCoercesMissingFields(t *testing.T) {
	completer := &fakeCompleter{raw: `{"searchQuery": "q", "source": "s"}`}

	_, err := NewLLMPrioritizer(completer).Prioritize(context.Background(), types.SearchCriteria{Genre: " rock "})
	require.NoError(t, err)

	assert.Contains(t, completer.last.Prompt, "- Artist(s): \n")
	assert.Contains(t, completer.last.Prompt, "- Genre: rock\n")
	assert.Contains(t, completer.last.Prompt, "- Year(s): \n")
	assert.Equal(t, []string{"searchQuery", "source"}, completer.last.StringFields)
	assert.NotEmpty(t, completer.last.System)
}

func TestHeuristicPrioritizer(t *testing.T) {
	got, err := HeuristicPrioritizer{}.Prioritize(context.Background(), types.SearchCriteria{Artists: "Queen", Year: "1975"})
	require.NoError(t, err)
	assert.Equal(t, "Queen 1975 greatest hits full album", got.SearchQuery)
	assert.Equal(t, "YouTube", got.Source)

	_, err = HeuristicPrioritizer{}.Prioritize(context.Background(), types.SearchCriteria{Genre: "   "})
	assert.ErrorIs(t, err, types.ErrEmptyCriteria)
}
