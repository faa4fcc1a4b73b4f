package ports

import (
	"context"
	"io"
	"time"

	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/events"
	"ideamap/domain/layout"
)

// ModelClient is the generative model collaborator. Both calls are
// single-shot: retries, if any, belong to the implementation.
type ModelClient interface {
	// SynthesizeTree turns the tree prompt into a topic/problem/idea draft
	SynthesizeTree(ctx context.Context, prompt string) (*aggregates.TreeDraft, error)

	// SynthesizeTaskBreakdown turns a task prompt into a phased task plan
	SynthesizeTaskBreakdown(ctx context.Context, prompt string) (*entities.TaskBreakdownDraft, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// GenerationMetrics records orchestrator activity
type GenerationMetrics interface {
	// ObserveModelCall records one model call. Stage is "tree" or "task",
	// outcome is "success", "failure" or "stale".
	ObserveModelCall(stage, outcome string, duration time.Duration)

	// AddInFlightTasks adjusts the number of outstanding task requests
	AddInFlightTasks(delta int)

	// IncGeneration counts finished generations by final status
	IncGeneration(status string)
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) ObserveModelCall(string, string, time.Duration) {}
func (NopMetrics) AddInFlightTasks(int)                           {}
func (NopMetrics) IncGeneration(string)                           {}
func (NopMetrics) ObserveLayout(int, time.Duration)               {}

// RulesProvider supplies the sizing rules in effect
type RulesProvider interface {
	Rules() layout.SizingRules
}

// StaticRules is a RulesProvider that never changes
type StaticRules layout.SizingRules

func (r StaticRules) Rules() layout.SizingRules { return layout.SizingRules(r) }

// LayoutMetrics records layout passes
type LayoutMetrics interface {
	ObserveLayout(nodes int, duration time.Duration)
}

// RenderOptions controls how a layout is drawn
type RenderOptions struct {
	// Highlight is the layout id of the selected node, if any
	Highlight string
	Title     string
}

// MapRenderer draws a computed layout
type MapRenderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, result *layout.Result, opts RenderOptions) error
}
