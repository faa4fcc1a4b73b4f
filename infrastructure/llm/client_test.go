package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideamap/application/orchestrator"
	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

type stubProvider struct {
	response  string
	err       error
	available bool
	prompts   []string
	options   []CompletionOptions
}

func (s *stubProvider) Name() string      { return "stub" }
func (s *stubProvider) IsAvailable() bool { return s.available }

func (s *stubProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.options = append(s.options, options)
	return s.response, s.err
}

func TestClient_SynthesizeTree(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		wantErr  bool
		check    func(t *testing.T, err error)
	}{
		{
			name:     "plain json",
			response: `{"centralTopic":"Fashion","problems":[{"problemTitle":"Waste","businessIdeas":[{"title":"Resale","description":"Sell used"}]}]}`,
		},
		{
			name:     "fenced json",
			response: "```json\n{\"centralTopic\":\"Fashion\",\"problems\":[{\"problemTitle\":\"Waste\",\"businessIdeas\":[{\"title\":\"Resale\",\"description\":\"Sell used\"}]}]}\n```",
		},
		{
			name:     "empty response",
			response: "   ",
			wantErr:  true,
		},
		{
			name:     "malformed json",
			response: `{"centralTopic":`,
			wantErr:  true,
		},
		{
			name:     "missing central topic",
			response: `{"problems":[]}`,
			wantErr:  true,
		},
		{
			name:    "provider failure becomes external error",
			err:     errors.New("connection refused"),
			wantErr: true,
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
			},
		},
		{
			name:    "deadline becomes timeout error",
			err:     context.DeadlineExceeded,
			wantErr: true,
			check: func(t *testing.T, err error) {
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeTimeout))
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{response: tt.response, err: tt.err, available: true}
			client := NewClient(provider, DefaultConfig(), nil)

			draft, err := client.SynthesizeTree(context.Background(), "prompt")
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, draft)
				if tt.check != nil {
					tt.check(t, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Fashion", draft.CentralTopic)
			require.Len(t, draft.Problems, 1)
			assert.Equal(t, "Resale", draft.Problems[0].Ideas[0].Title)
		})
	}
}

func TestClient_SendsGenerationOptions(t *testing.T) {
	provider := &stubProvider{response: `{"centralTopic":"x","problems":[]}`, available: true}
	client := NewClient(provider, DefaultConfig(), nil)

	_, err := client.SynthesizeTree(context.Background(), "the prompt")
	require.NoError(t, err)

	require.Len(t, provider.options, 1)
	assert.Equal(t, "the prompt", provider.prompts[0])
	assert.Equal(t, 0.8, provider.options[0].Temperature)
	assert.Equal(t, 0.95, provider.options[0].TopP)
	assert.Equal(t, "json", provider.options[0].Format)
}

func TestClient_SynthesizeTaskBreakdown(t *testing.T) {
	provider := &stubProvider{
		response:  `{"project_name":"Resale","estimated_total_duration":"3 months","development_phases":[{"phase":"Build","duration":"1 month","tasks":[{"task":"Code","duration":"2 weeks"}]}]}`,
		available: true,
	}
	client := NewClient(provider, DefaultConfig(), nil)

	draft, err := client.SynthesizeTaskBreakdown(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Resale", draft.ProjectName)
	require.Len(t, draft.Phases, 1)
	assert.Equal(t, "Code", draft.Phases[0].Tasks[0].Description)

	provider.response = `{"project_name":"Resale","development_phases":[]}`
	_, err = client.SynthesizeTaskBreakdown(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestClient_Unavailable(t *testing.T) {
	provider := &stubProvider{available: false}
	client := NewClient(provider, DefaultConfig(), nil)

	_, err := client.SynthesizeTree(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	assert.Empty(t, provider.prompts)
}

func TestClient_NilProvider(t *testing.T) {
	client := NewClient(nil, DefaultConfig(), nil)
	assert.False(t, client.IsAvailable())

	_, err := client.SynthesizeTree(context.Background(), "prompt")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))

	_, err = client.SynthesizeTaskBreakdown(context.Background(), "prompt")
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}

func TestClient_WithMockProvider(t *testing.T) {
	client := NewClient(NewMockProvider(), DefaultConfig(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	input := valueobjects.UserInput{Interests: "urban gardening"}
	tree, err := client.SynthesizeTree(ctx, orchestrator.BuildTreePrompt(input, valueobjects.LanguageEnglish))
	require.NoError(t, err)
	assert.Equal(t, "Opportunities in urban gardening", tree.CentralTopic)
	require.Len(t, tree.Problems, 2)

	idea := tree.Problems[0].Ideas[0]
	plan, err := client.SynthesizeTaskBreakdown(ctx, orchestrator.BuildTaskPrompt("", idea.Title, idea.Description, valueobjects.LanguageEnglish))
	require.NoError(t, err)
	assert.Equal(t, idea.Title, plan.ProjectName)
	assert.Len(t, plan.Phases, 3)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1} "))
}
