package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideamap/application/ports"
	"ideamap/domain/config"
	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/valueobjects"
	"ideamap/domain/events"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
)

// fakeClient answers tree calls from a queue and task calls per idea title.
// Task calls for a gated title block until the gate is released.
type fakeClient struct {
	mu        sync.Mutex
	trees     []treeAnswer
	treeCalls int
	treeGate  chan struct{}
	taskErrs  map[string]error
	gates     map[string]chan struct{}
	taskCalls []string
	prompts   []string
}

type treeAnswer struct {
	draft *aggregates.TreeDraft
	err   error
}

func newFakeClient(trees ...treeAnswer) *fakeClient {
	return &fakeClient{
		trees:    trees,
		taskErrs: map[string]error{},
		gates:    map[string]chan struct{}{},
	}
}

func (c *fakeClient) gate(title string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{})
	c.gates[title] = ch
	return ch
}

func (c *fakeClient) SynthesizeTree(ctx context.Context, prompt string) (*aggregates.TreeDraft, error) {
	c.mu.Lock()
	idx := c.treeCalls
	c.treeCalls++
	gate := c.treeGate
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if gate != nil && idx == 0 {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if idx >= len(c.trees) {
		idx = len(c.trees) - 1
	}
	return c.trees[idx].draft, c.trees[idx].err
}

func (c *fakeClient) SynthesizeTaskBreakdown(ctx context.Context, prompt string) (*entities.TaskBreakdownDraft, error) {
	title := titleFromPrompt(prompt)

	c.mu.Lock()
	c.taskCalls = append(c.taskCalls, title)
	gate := c.gates[title]
	err := c.taskErrs[title]
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &entities.TaskBreakdownDraft{
		ProjectName:            title,
		EstimatedTotalDuration: "3 months",
		Phases: []entities.Phase{
			{Name: "Research", Duration: "2 weeks", Tasks: []entities.Task{{Description: "Interview users", Duration: "1 week"}}},
			{Name: "Build", Duration: "2 months", Tasks: []entities.Task{{Description: "Ship MVP", Duration: "8 weeks"}}},
		},
	}, nil
}

func (c *fakeClient) treeCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.treeCalls
}

func (c *fakeClient) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.taskCalls...)
}

func titleFromPrompt(prompt string) string {
	start := strings.Index(prompt, `idea "`)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(`idea "`):]
	return rest[:strings.Index(rest, `"`)]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

type countingMetrics struct {
	mu          sync.Mutex
	calls       map[string]int
	generations map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{calls: map[string]int{}, generations: map[string]int{}}
}

func (m *countingMetrics) ObserveModelCall(stage, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[stage+"/"+outcome]++
}

func (m *countingMetrics) AddInFlightTasks(int) {}

func (m *countingMetrics) IncGeneration(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[status]++
}

func (m *countingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// treeDraft builds a draft whose ideas are titled "<prefix>P<i>I<j>"
func treeDraft(prefix string, ideaCounts ...int) *aggregates.TreeDraft {
	d := &aggregates.TreeDraft{CentralTopic: prefix + "Topic"}
	for i, n := range ideaCounts {
		p := aggregates.ProblemDraft{Title: fmt.Sprintf("%sProblem %d", prefix, i)}
		for j := 0; j < n; j++ {
			p.Ideas = append(p.Ideas, aggregates.IdeaDraft{
				Title:       fmt.Sprintf("%sP%dI%d", prefix, i, j),
				Description: "An idea",
			})
		}
		d.Problems = append(d.Problems, p)
	}
	return d
}

var sampleInput = valueobjects.UserInput{
	Interests:    "sustainable fashion",
	Skills:       "web development",
	MarketTrends: "circular economy",
}

func newTestOrchestrator(client *fakeClient, publisher *recordingPublisher, metrics *countingMetrics) *Orchestrator {
	return newTimedOrchestrator(client, publisher, metrics, 5*time.Second, 5*time.Second)
}

func newTimedOrchestrator(client *fakeClient, publisher *recordingPublisher, metrics *countingMetrics, treeTimeout, taskTimeout time.Duration) *Orchestrator {
	cfg := config.DefaultDomainConfig()
	cfg.TreeTimeout = treeTimeout
	cfg.TaskTimeout = taskTimeout
	var m ports.GenerationMetrics
	if metrics != nil {
		m = metrics
	}
	var pub ports.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	return New("session-1", client, pub, m, cfg, zap.NewNop())
}

func waitSettled(t *testing.T, gen *Generation) (Status, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := gen.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return status, err
}

func TestGenerate_RejectsBlankInputWithoutModelCall(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2)})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), valueobjects.UserInput{Interests: "  "}, valueobjects.LanguageEnglish)

	assert.Nil(t, gen)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 0, client.treeCallCount())
	snap := o.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, uint64(0), snap.Epoch)
}

func TestGenerate_FullTreeWithAllBreakdowns(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 3, 2, 2)})
	publisher := &recordingPublisher{}
	metrics := newCountingMetrics()
	o := newTestOrchestrator(client, publisher, metrics)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, uint64(1), gen.Epoch())
	assert.Equal(t, 3, gen.Tree().ProblemCount())
	assert.Equal(t, 7, gen.Tree().IdeaCount())

	status, err := waitSettled(t, gen)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	snap := o.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, 0, snap.Pending)
	assert.Len(t, snap.ValidBreakdowns(), 7)
	assert.Empty(t, snap.FailedIdeas())
	assert.Len(t, client.calls(), 7)
	for _, idea := range snap.Tree.Ideas() {
		b, ok := snap.Breakdown(idea.ID)
		require.True(t, ok)
		assert.Equal(t, idea.Title, b.ProjectName())
		assert.Equal(t, uint64(1), b.Epoch())
	}

	assert.Equal(t, 1, metrics.count("tree/success"))
	assert.Equal(t, 7, metrics.count("task/success"))
	types := publisher.types()
	require.NotEmpty(t, types)
	assert.Equal(t, events.TypeGenerationStarted, types[0])
	assert.Equal(t, events.TypeMindMapGenerated, types[1])
	assert.Equal(t, events.TypeGenerationCompleted, types[len(types)-1])
}

func TestGenerate_TreeVisibleWhileTasksPending(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 1)})
	gate := client.gate("P0I0")
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	snap := o.Snapshot()
	require.NotNil(t, snap.Tree)
	assert.Equal(t, StatusExpanding, snap.Status)
	assert.Equal(t, 1, snap.Pending)
	idea := snap.Tree.Ideas()[0]
	_, ok := snap.Breakdown(idea.ID)
	assert.False(t, ok)

	close(gate)
	status, err := waitSettled(t, gen)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	_, ok = o.Snapshot().Breakdown(idea.ID)
	assert.True(t, ok)
}

func TestGenerate_PartialTaskFailure(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2, 1)})
	client.taskErrs["P0I1"] = errors.New("model unavailable")
	metrics := newCountingMetrics()
	o := newTestOrchestrator(client, nil, metrics)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	status, err := waitSettled(t, gen)
	assert.Equal(t, StatusPartial, status)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypePartialTaskFailure))

	snap := o.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Len(t, snap.ValidBreakdowns(), 2)
	failed := snap.FailedIdeas()
	require.Len(t, failed, 1)
	idea, _ := snap.Tree.Idea(failed[0])
	assert.Equal(t, "P0I1", idea.Title)
	assert.True(t, snap.TaskFailed(failed[0]))
	assert.Equal(t, 1, metrics.count("task/failure"))
}

func TestGenerate_TaskTimeoutFailsOnlyThatIdea(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2)})
	client.gate("P0I1")
	metrics := newCountingMetrics()
	o := newTimedOrchestrator(client, nil, metrics, 5*time.Second, 50*time.Millisecond)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	status, err := waitSettled(t, gen)
	assert.Equal(t, StatusPartial, status)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypePartialTaskFailure))

	snap := o.Snapshot()
	assert.Equal(t, StatusPartial, snap.Status)
	assert.Equal(t, 0, snap.Pending)
	failed := snap.FailedIdeas()
	require.Len(t, failed, 1)
	timedOut, _ := snap.Tree.Idea(failed[0])
	assert.Equal(t, "P0I1", timedOut.Title)

	valid := snap.ValidBreakdowns()
	require.Len(t, valid, 1)
	for _, idea := range snap.Tree.Ideas() {
		if idea.Title != "P0I0" {
			continue
		}
		b, ok := snap.Breakdown(idea.ID)
		require.True(t, ok)
		assert.Equal(t, "P0I0", b.ProjectName())
	}
	assert.Equal(t, 1, metrics.count("task/failure"))
	assert.Equal(t, 1, metrics.count("task/success"))
}

func TestGenerate_TreeTimeoutFailsWithoutTaskCalls(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2)})
	client.treeGate = make(chan struct{})
	o := newTimedOrchestrator(client, nil, nil, 50*time.Millisecond, 5*time.Second)
	defer o.Close()

	start := time.Now()
	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Nil(t, gen)
	assert.True(t, pkgerrors.IsGenerationFailed(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, client.calls())

	snap := o.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Nil(t, snap.Tree)
}

func TestGenerate_TreeFailureKeepsPreviousTree(t *testing.T) {
	client := newFakeClient(
		treeAnswer{draft: treeDraft("", 1)},
		treeAnswer{err: errors.New("quota exceeded")},
	)
	publisher := &recordingPublisher{}
	o := newTestOrchestrator(client, publisher, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	_, err = waitSettled(t, gen)
	require.NoError(t, err)
	previous := o.Snapshot()

	gen, err = o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	assert.Nil(t, gen)
	assert.True(t, pkgerrors.IsGenerationFailed(err))

	snap := o.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Same(t, previous.Tree, snap.Tree)
	assert.Error(t, snap.Err)
	assert.Contains(t, publisher.types(), events.TypeGenerationFailed)
}

func TestGenerate_NonConformingTreeFails(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: &aggregates.TreeDraft{CentralTopic: " "}})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	_, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	assert.True(t, pkgerrors.IsGenerationFailed(err))
	assert.Nil(t, o.Snapshot().Tree)
}

func TestGenerate_EmptyTreeSettlesImmediately(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: &aggregates.TreeDraft{CentralTopic: "Topic"}})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	status, err := waitSettled(t, gen)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	assert.Empty(t, client.calls())
}

func TestGenerate_LateResultsOfOldEpochAreDropped(t *testing.T) {
	client := newFakeClient(
		treeAnswer{draft: treeDraft("old", 1)},
		treeAnswer{draft: treeDraft("new", 1)},
	)
	oldGate := client.gate("oldP0I0")
	newGate := client.gate("newP0I0")
	publisher := &recordingPublisher{}
	metrics := newCountingMetrics()
	o := newTestOrchestrator(client, publisher, metrics)
	defer o.Close()

	first, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	second, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageVietnamese)
	require.NoError(t, err)

	status, err := waitSettled(t, first)
	assert.Equal(t, StatusSuperseded, status)
	assert.True(t, pkgerrors.IsStale(err))

	// the old task resolves after the new tree was published
	close(oldGate)
	assert.Eventually(t, func() bool { return metrics.count("task/stale") == 1 }, 2*time.Second, 5*time.Millisecond)

	snap := o.Snapshot()
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Equal(t, "newTopic", snap.Tree.Topic())
	assert.Empty(t, snap.Breakdowns)
	assert.Equal(t, 1, snap.Pending)

	close(newGate)
	status, err = waitSettled(t, second)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)

	snap = o.Snapshot()
	require.Len(t, snap.ValidBreakdowns(), 1)
	assert.Equal(t, "newP0I0", snap.ValidBreakdowns()[0].ProjectName())
	assert.Equal(t, valueobjects.LanguageVietnamese, snap.Language)
	assert.Contains(t, publisher.types(), events.TypeResultDiscarded)
}

func TestGenerate_SupersededTreeCallIsStale(t *testing.T) {
	client := newFakeClient(
		treeAnswer{draft: treeDraft("old", 1)},
		treeAnswer{draft: treeDraft("new", 1)},
	)
	client.treeGate = make(chan struct{})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	type outcome struct {
		gen *Generation
		err error
	}
	firstDone := make(chan outcome, 1)
	go func() {
		gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
		firstDone <- outcome{gen, err}
	}()

	require.Eventually(t, func() bool { return client.treeCallCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	second, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	first := <-firstDone
	assert.Nil(t, first.gen)
	assert.True(t, pkgerrors.IsStale(first.err))

	_, err = waitSettled(t, second)
	require.NoError(t, err)
	assert.Equal(t, "newTopic", o.Snapshot().Tree.Topic())
}

func TestGenerate_FanOutLimit(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2, 2)})
	o := newTestOrchestrator(client, nil, nil)
	o.domain.FanOutLimit = 1
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	status, err := waitSettled(t, gen)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	assert.Equal(t, []string{"P0I0", "P0I1", "P1I0", "P1I1"}, client.calls())
}

func TestSelect(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2)})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	err := o.Select(valueobjects.CentralRef())
	assert.True(t, pkgerrors.IsNotFound(err), "nothing is selectable before a tree exists")

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	_, err = waitSettled(t, gen)
	require.NoError(t, err)

	idea := o.Snapshot().Tree.Ideas()[1]
	tests := []struct {
		name    string
		ref     valueobjects.NodeRef
		wantErr bool
	}{
		{name: "central", ref: valueobjects.CentralRef()},
		{name: "problem", ref: valueobjects.ProblemRef(0)},
		{name: "idea", ref: valueobjects.IdeaRef(idea.ID)},
		{name: "phase", ref: valueobjects.PhaseRef(idea.ID, 1)},
		{name: "missing problem", ref: valueobjects.ProblemRef(3), wantErr: true},
		{name: "unknown idea", ref: valueobjects.IdeaRef(valueobjects.NewIdeaID()), wantErr: true},
		{name: "missing phase", ref: valueobjects.PhaseRef(idea.ID, 7), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := o.Select(tt.ref)
			if tt.wantErr {
				assert.True(t, pkgerrors.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, o.Snapshot().Selected.Equals(tt.ref))
		})
	}

	o.Deselect()
	assert.True(t, o.Snapshot().Selected.IsZero())

	require.NoError(t, o.Select(valueobjects.IdeaRef(idea.ID)))
	require.NoError(t, o.Select(valueobjects.NodeRef{}))
	assert.True(t, o.Snapshot().Selected.IsZero())
}

func TestSelectionClearedByNewTree(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 1)})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	_, _ = waitSettled(t, gen)
	require.NoError(t, o.Select(valueobjects.CentralRef()))

	gen, err = o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	_, _ = waitSettled(t, gen)
	assert.True(t, o.Snapshot().Selected.IsZero())
}

func TestResize(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 2)})
	o := newTestOrchestrator(client, nil, nil)
	defer o.Close()

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)
	_, err = waitSettled(t, gen)
	require.NoError(t, err)
	before := o.Snapshot()

	require.NoError(t, o.Resize(layout.Size{Width: 640, Height: 480}))
	after := o.Snapshot()
	assert.Equal(t, layout.Size{Width: 640, Height: 480}, after.Surface)
	assert.Same(t, before.Tree, after.Tree)
	assert.Equal(t, before.Breakdowns, after.Breakdowns)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Epoch, after.Epoch)

	require.NoError(t, o.Resize(layout.Size{}))
	assert.Equal(t, layout.DefaultSurface, o.Snapshot().Surface)

	err = o.Resize(layout.Size{Width: -1, Height: 10})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSetLanguage(t *testing.T) {
	o := newTestOrchestrator(newFakeClient(treeAnswer{draft: treeDraft("", 1)}), nil, nil)
	defer o.Close()

	o.SetLanguage(valueobjects.LanguageVietnamese)
	snap := o.Snapshot()
	assert.Equal(t, valueobjects.LanguageVietnamese, snap.Language)
	assert.Equal(t, uint64(0), snap.Epoch)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	o := newTestOrchestrator(newFakeClient(treeAnswer{draft: treeDraft("", 1)}), nil, nil)
	defer o.Close()

	before := o.Snapshot()
	require.NoError(t, o.Resize(layout.Size{Width: 10, Height: 10}))
	assert.Equal(t, layout.DefaultSurface, before.Surface)
	assert.NotSame(t, before, o.Snapshot())
}

func TestClose(t *testing.T) {
	client := newFakeClient(treeAnswer{draft: treeDraft("", 1)})
	gate := client.gate("P0I0")
	metrics := newCountingMetrics()
	o := newTestOrchestrator(client, nil, metrics)

	gen, err := o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	require.NoError(t, err)

	o.Close()
	o.Close()

	status, err := waitSettled(t, gen)
	assert.Equal(t, StatusSuperseded, status)
	assert.True(t, pkgerrors.IsStale(err))

	close(gate)
	assert.Eventually(t, func() bool { return metrics.count("task/stale") == 1 }, 2*time.Second, 5*time.Millisecond)
	_, ok := o.Snapshot().Breakdown(gen.Tree().Ideas()[0].ID)
	assert.False(t, ok)

	_, err = o.Generate(context.Background(), sampleInput, valueobjects.LanguageEnglish)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}
