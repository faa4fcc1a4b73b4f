package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
)

// MockProvider provides a deterministic implementation for testing and development
type MockProvider struct {
	available bool
}

// NewMockProvider creates a new mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
	}
}

func (m *MockProvider) Name() string { return ProviderMock }

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// SetAvailable toggles availability
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// Complete provides mock completions based on simple pattern matching
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Detect what type of request this is based on the schema in the prompt
	if strings.Contains(prompt, `"development_phases"`) {
		return m.mockTaskBreakdown(prompt)
	}
	if strings.Contains(prompt, `"centralTopic"`) {
		return m.mockTree(prompt)
	}

	return "", fmt.Errorf("unsupported prompt type")
}

// mockTree builds a small tree around the first profile entry of the prompt
func (m *MockProvider) mockTree(prompt string) (string, error) {
	subject := "your interests"
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		if _, value, ok := strings.Cut(line, ": "); ok && value != "" {
			subject = value
			break
		}
	}

	draft := aggregates.TreeDraft{
		CentralTopic: "Opportunities in " + subject,
		Problems: []aggregates.ProblemDraft{
			{
				Title: "Finding trustworthy " + subject + " options is hard",
				Ideas: []aggregates.IdeaDraft{
					{Title: subject + " review hub", Description: "Curated, verified reviews for " + subject + "."},
					{Title: subject + " matchmaking", Description: "Pair newcomers with experienced practitioners."},
				},
			},
			{
				Title: "Small " + subject + " businesses lack tooling",
				Ideas: []aggregates.IdeaDraft{
					{Title: subject + " storefront kit", Description: "A turnkey online shop for small sellers."},
				},
			},
		},
	}

	jsonData, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

var quotedIdea = regexp.MustCompile(`idea ("(?:[^"\\]|\\.)*")`)

// mockTaskBreakdown builds a three-phase plan for the idea named in the prompt
func (m *MockProvider) mockTaskBreakdown(prompt string) (string, error) {
	title := "New venture"
	if match := quotedIdea.FindStringSubmatch(prompt); match != nil {
		if unquoted, err := strconv.Unquote(match[1]); err == nil && unquoted != "" {
			title = unquoted
		}
	}

	draft := entities.TaskBreakdownDraft{
		ProjectName:            title,
		EstimatedTotalDuration: "10 weeks",
		Phases: []entities.Phase{
			{
				Name:     "Research",
				Duration: "2 weeks",
				Tasks: []entities.Task{
					{Description: "Interview potential customers", Duration: "1 week"},
					{Description: "Analyse competitors", Duration: "1 week"},
				},
			},
			{
				Name:     "Build",
				Duration: "6 weeks",
				Tasks: []entities.Task{
					{Description: "Build the minimum viable product", Duration: "5 weeks"},
					{Description: "Set up payments", Duration: "1 week"},
				},
			},
			{
				Name:     "Launch",
				Duration: "2 weeks",
				Tasks: []entities.Task{
					{Description: "Run a launch campaign", Duration: "2 weeks"},
				},
			},
		},
	}

	jsonData, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}
