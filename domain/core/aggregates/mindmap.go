package aggregates

import (
	"encoding/json"
	"fmt"
	"strings"

	"ideamap/domain/config"
	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

// TreeDraft is the tree as returned by the model. It carries no ids.
type TreeDraft struct {
	CentralTopic string         `json:"centralTopic"`
	Problems     []ProblemDraft `json:"problems"`
}

// ProblemDraft is one problem of a TreeDraft
type ProblemDraft struct {
	Title string      `json:"problemTitle"`
	Ideas []IdeaDraft `json:"businessIdeas"`
}

// IdeaDraft is one idea of a ProblemDraft
type IdeaDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Idea is a business idea with its session-unique id
type Idea struct {
	ID          valueobjects.IdeaID `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
}

// Problem groups related ideas
type Problem struct {
	Title string `json:"problemTitle"`
	Ideas []Idea `json:"businessIdeas"`
}

// MindMap is the aggregate root for one generated tree. It is created
// atomically from a draft and never mutated afterwards; regeneration
// replaces it with a new MindMap.
type MindMap struct {
	epoch    uint64
	topic    string
	problems []Problem

	ideaIndex map[valueobjects.IdeaID]ideaLocation
}

type ideaLocation struct {
	problem int
	idea    int
}

// NewMindMap assigns a fresh id to every idea of the draft and validates the result
func NewMindMap(epoch uint64, draft TreeDraft) (*MindMap, error) {
	return newMindMap(epoch, draft, valueobjects.NewIdeaID)
}

func newMindMap(epoch uint64, draft TreeDraft, nextID func() valueobjects.IdeaID) (*MindMap, error) {
	m := &MindMap{
		epoch:     epoch,
		topic:     strings.TrimSpace(draft.CentralTopic),
		problems:  make([]Problem, 0, len(draft.Problems)),
		ideaIndex: make(map[valueobjects.IdeaID]ideaLocation),
	}

	for pi, pd := range draft.Problems {
		p := Problem{
			Title: strings.TrimSpace(pd.Title),
			Ideas: make([]Idea, 0, len(pd.Ideas)),
		}
		for ii, id := range pd.Ideas {
			idea := Idea{
				ID:          nextID(),
				Title:       strings.TrimSpace(id.Title),
				Description: strings.TrimSpace(id.Description),
			}
			m.ideaIndex[idea.ID] = ideaLocation{problem: pi, idea: ii}
			p.Ideas = append(p.Ideas, idea)
		}
		m.problems = append(m.problems, p)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the structural rules of the tree
func (m *MindMap) Validate() error {
	if m.topic == "" {
		return pkgerrors.NewValidationError("central topic is required")
	}

	seen := make(map[valueobjects.IdeaID]struct{})
	for pi, p := range m.problems {
		if p.Title == "" {
			return pkgerrors.NewValidationError(fmt.Sprintf("problem %d has no title", pi)).
				WithDetail("problem_index", pi)
		}
		for ii, idea := range p.Ideas {
			if idea.ID.IsZero() {
				return pkgerrors.NewValidationError(fmt.Sprintf("idea %d of problem %d has no id", ii, pi))
			}
			if _, dup := seen[idea.ID]; dup {
				return pkgerrors.NewValidationError(fmt.Sprintf("duplicate idea id %s", idea.ID)).
					WithDetail("idea_id", idea.ID.String())
			}
			seen[idea.ID] = struct{}{}
			if idea.Title == "" {
				return pkgerrors.NewValidationError(fmt.Sprintf("idea %d of problem %d has no title", ii, pi)).
					WithDetail("problem_index", pi).
					WithDetail("idea_index", ii)
			}
		}
	}
	return nil
}

// ShapeWarnings lists departures from the expected tree shape. They are
// informational only.
func (m *MindMap) ShapeWarnings(cfg *config.DomainConfig) []string {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	var warnings []string
	if n := len(m.problems); n < cfg.ExpectedMinProblems || n > cfg.ExpectedMaxProblems {
		warnings = append(warnings, fmt.Sprintf("expected %d-%d problems, got %d",
			cfg.ExpectedMinProblems, cfg.ExpectedMaxProblems, n))
	}
	for i, p := range m.problems {
		if n := len(p.Ideas); n < cfg.ExpectedMinIdeasPerProblem || n > cfg.ExpectedMaxIdeasPerProblem {
			warnings = append(warnings, fmt.Sprintf("problem %d: expected %d-%d ideas, got %d",
				i, cfg.ExpectedMinIdeasPerProblem, cfg.ExpectedMaxIdeasPerProblem, n))
		}
	}
	return warnings
}

// Epoch returns the generation epoch that produced the tree
func (m *MindMap) Epoch() uint64 { return m.epoch }

// Topic returns the central topic
func (m *MindMap) Topic() string { return m.topic }

// ProblemCount returns the number of problems
func (m *MindMap) ProblemCount() int { return len(m.problems) }

// Problem returns problem i and whether it exists
func (m *MindMap) Problem(i int) (Problem, bool) {
	if i < 0 || i >= len(m.problems) {
		return Problem{}, false
	}
	return cloneProblem(m.problems[i]), true
}

// Problems returns a copy of the ordered problems
func (m *MindMap) Problems() []Problem {
	out := make([]Problem, len(m.problems))
	for i, p := range m.problems {
		out[i] = cloneProblem(p)
	}
	return out
}

// Ideas enumerates every idea in problem order, then idea order
func (m *MindMap) Ideas() []Idea {
	out := make([]Idea, 0, len(m.ideaIndex))
	for _, p := range m.problems {
		out = append(out, p.Ideas...)
	}
	return out
}

// IdeaCount returns the number of ideas across all problems
func (m *MindMap) IdeaCount() int { return len(m.ideaIndex) }

// Idea looks up an idea by id
func (m *MindMap) Idea(id valueobjects.IdeaID) (Idea, bool) {
	loc, ok := m.ideaIndex[id]
	if !ok {
		return Idea{}, false
	}
	return m.problems[loc.problem].Ideas[loc.idea], true
}

// HasIdea reports whether the tree contains an idea with the id
func (m *MindMap) HasIdea(id valueobjects.IdeaID) bool {
	_, ok := m.ideaIndex[id]
	return ok
}

// ProblemIndexOf returns the index of the problem owning the idea, or -1
func (m *MindMap) ProblemIndexOf(id valueobjects.IdeaID) int {
	loc, ok := m.ideaIndex[id]
	if !ok {
		return -1
	}
	return loc.problem
}

func cloneProblem(p Problem) Problem {
	ideas := make([]Idea, len(p.Ideas))
	copy(ideas, p.Ideas)
	p.Ideas = ideas
	return p
}

type mindMapJSON struct {
	Epoch        uint64    `json:"epoch"`
	CentralTopic string    `json:"centralTopic"`
	Problems     []Problem `json:"problems"`
}

// MarshalJSON implements json.Marshaler
func (m *MindMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(mindMapJSON{
		Epoch:        m.epoch,
		CentralTopic: m.topic,
		Problems:     m.problems,
	})
}
