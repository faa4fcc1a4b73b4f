package events

import (
	"time"

	"ideamap/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields. The aggregate is the session.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
	Epoch       uint64    `json:"epoch"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeGenerationStarted   = "generation.started"
	TypeMindMapGenerated    = "mindmap.generated"
	TypeGenerationFailed    = "generation.failed"
	TypeTaskGenerated       = "task.generated"
	TypeTaskFailed          = "task.failed"
	TypeGenerationCompleted = "generation.completed"
	TypeResultDiscarded     = "result.discarded"
)

func newBase(sessionID, eventType string, epoch uint64, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: sessionID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
		Epoch:       epoch,
	}
}

// GenerationStarted is raised when a submit starts a new epoch
type GenerationStarted struct {
	BaseEvent
	Language valueobjects.Language `json:"language"`
}

func NewGenerationStarted(sessionID string, epoch uint64, lang valueobjects.Language, timestamp time.Time) GenerationStarted {
	return GenerationStarted{
		BaseEvent: newBase(sessionID, TypeGenerationStarted, epoch, timestamp),
		Language:  lang,
	}
}

// MindMapGenerated is raised when a tree has been published for an epoch
type MindMapGenerated struct {
	BaseEvent
	Topic        string `json:"topic"`
	ProblemCount int    `json:"problem_count"`
	IdeaCount    int    `json:"idea_count"`
}

func NewMindMapGenerated(sessionID string, epoch uint64, topic string, problems, ideas int, timestamp time.Time) MindMapGenerated {
	return MindMapGenerated{
		BaseEvent:    newBase(sessionID, TypeMindMapGenerated, epoch, timestamp),
		Topic:        topic,
		ProblemCount: problems,
		IdeaCount:    ideas,
	}
}

// GenerationFailed is raised when the tree call fails
type GenerationFailed struct {
	BaseEvent
	Reason string `json:"reason"`
}

func NewGenerationFailed(sessionID string, epoch uint64, reason string, timestamp time.Time) GenerationFailed {
	return GenerationFailed{
		BaseEvent: newBase(sessionID, TypeGenerationFailed, epoch, timestamp),
		Reason:    reason,
	}
}

// TaskGenerated is raised when a task breakdown is accepted for an idea
type TaskGenerated struct {
	BaseEvent
	IdeaID     valueobjects.IdeaID `json:"idea_id"`
	PhaseCount int                 `json:"phase_count"`
}

func NewTaskGenerated(sessionID string, epoch uint64, ideaID valueobjects.IdeaID, phases int, timestamp time.Time) TaskGenerated {
	return TaskGenerated{
		BaseEvent:  newBase(sessionID, TypeTaskGenerated, epoch, timestamp),
		IdeaID:     ideaID,
		PhaseCount: phases,
	}
}

// TaskFailed is raised when the task breakdown for one idea could not be produced
type TaskFailed struct {
	BaseEvent
	IdeaID valueobjects.IdeaID `json:"idea_id"`
	Reason string              `json:"reason"`
}

func NewTaskFailed(sessionID string, epoch uint64, ideaID valueobjects.IdeaID, reason string, timestamp time.Time) TaskFailed {
	return TaskFailed{
		BaseEvent: newBase(sessionID, TypeTaskFailed, epoch, timestamp),
		IdeaID:    ideaID,
		Reason:    reason,
	}
}

// GenerationCompleted is raised once every task request of an epoch has settled
type GenerationCompleted struct {
	BaseEvent
	Status    string `json:"status"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

func NewGenerationCompleted(sessionID string, epoch uint64, status string, succeeded, failed int, timestamp time.Time) GenerationCompleted {
	return GenerationCompleted{
		BaseEvent: newBase(sessionID, TypeGenerationCompleted, epoch, timestamp),
		Status:    status,
		Succeeded: succeeded,
		Failed:    failed,
	}
}

// ResultDiscarded is raised when a late result for a superseded epoch is dropped
type ResultDiscarded struct {
	BaseEvent
	CurrentEpoch uint64 `json:"current_epoch"`
	IdeaID       string `json:"idea_id,omitempty"`
}

func NewResultDiscarded(sessionID string, epoch, current uint64, ideaID string, timestamp time.Time) ResultDiscarded {
	return ResultDiscarded{
		BaseEvent:    newBase(sessionID, TypeResultDiscarded, epoch, timestamp),
		CurrentEpoch: current,
		IdeaID:       ideaID,
	}
}
