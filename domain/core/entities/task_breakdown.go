package entities

import (
	"encoding/json"
	"strings"

	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

// Task is a single unit of work inside a phase
type Task struct {
	Description string `json:"task"`
	Duration    string `json:"duration"`
}

// Phase is an ordered group of tasks
type Phase struct {
	Name     string `json:"phase"`
	Duration string `json:"duration"`
	Tasks    []Task `json:"tasks"`
}

// TaskBreakdownDraft is a task plan as returned by the model, before it is
// correlated with an idea.
type TaskBreakdownDraft struct {
	ProjectName            string  `json:"project_name"`
	EstimatedTotalDuration string  `json:"estimated_total_duration"`
	Phases                 []Phase `json:"development_phases"`
}

// TaskBreakdown is the phased plan generated for one idea of one epoch.
// It is immutable once created.
type TaskBreakdown struct {
	correlationID          valueobjects.IdeaID
	epoch                  uint64
	projectName            string
	estimatedTotalDuration string
	phases                 []Phase
}

// NewTaskBreakdown correlates a draft with the idea and epoch it was requested for
func NewTaskBreakdown(correlationID valueobjects.IdeaID, epoch uint64, draft TaskBreakdownDraft) (*TaskBreakdown, error) {
	if correlationID.IsZero() {
		return nil, pkgerrors.NewValidationError("task breakdown requires a correlation id")
	}
	if len(draft.Phases) == 0 {
		return nil, pkgerrors.NewValidationError("task breakdown has no phases").
			WithDetail("idea_id", correlationID.String())
	}

	phases := make([]Phase, 0, len(draft.Phases))
	for i, p := range draft.Phases {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, pkgerrors.NewValidationError("task breakdown phase has no name").
				WithDetail("idea_id", correlationID.String()).
				WithDetail("phase_index", i)
		}
		tasks := make([]Task, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			if strings.TrimSpace(t.Description) == "" {
				continue
			}
			tasks = append(tasks, Task{
				Description: strings.TrimSpace(t.Description),
				Duration:    strings.TrimSpace(t.Duration),
			})
		}
		phases = append(phases, Phase{
			Name:     name,
			Duration: strings.TrimSpace(p.Duration),
			Tasks:    tasks,
		})
	}

	return &TaskBreakdown{
		correlationID:          correlationID,
		epoch:                  epoch,
		projectName:            strings.TrimSpace(draft.ProjectName),
		estimatedTotalDuration: strings.TrimSpace(draft.EstimatedTotalDuration),
		phases:                 phases,
	}, nil
}

func (b *TaskBreakdown) CorrelationID() valueobjects.IdeaID { return b.correlationID }

func (b *TaskBreakdown) Epoch() uint64 { return b.epoch }

func (b *TaskBreakdown) ProjectName() string { return b.projectName }

func (b *TaskBreakdown) EstimatedTotalDuration() string { return b.estimatedTotalDuration }

// PhaseCount returns the number of phases
func (b *TaskBreakdown) PhaseCount() int { return len(b.phases) }

// Phase returns phase i and whether it exists
func (b *TaskBreakdown) Phase(i int) (Phase, bool) {
	if i < 0 || i >= len(b.phases) {
		return Phase{}, false
	}
	return clonePhase(b.phases[i]), true
}

// Phases returns a copy of the ordered phases
func (b *TaskBreakdown) Phases() []Phase {
	out := make([]Phase, len(b.phases))
	for i, p := range b.phases {
		out[i] = clonePhase(p)
	}
	return out
}

// TaskCount returns the number of tasks across all phases
func (b *TaskBreakdown) TaskCount() int {
	n := 0
	for _, p := range b.phases {
		n += len(p.Tasks)
	}
	return n
}

func clonePhase(p Phase) Phase {
	tasks := make([]Task, len(p.Tasks))
	copy(tasks, p.Tasks)
	p.Tasks = tasks
	return p
}

type taskBreakdownJSON struct {
	CorrelationID          valueobjects.IdeaID `json:"projectId"`
	Epoch                  uint64              `json:"epoch"`
	ProjectName            string              `json:"project_name"`
	EstimatedTotalDuration string              `json:"estimated_total_duration"`
	Phases                 []Phase             `json:"development_phases"`
}

// MarshalJSON implements json.Marshaler
func (b *TaskBreakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskBreakdownJSON{
		CorrelationID:          b.correlationID,
		Epoch:                  b.epoch,
		ProjectName:            b.projectName,
		EstimatedTotalDuration: b.estimatedTotalDuration,
		Phases:                 b.phases,
	})
}
