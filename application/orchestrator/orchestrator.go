package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ideamap/application/ports"
	"ideamap/domain/config"
	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/validators"
	"ideamap/domain/core/valueobjects"
	"ideamap/domain/events"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
)

const (
	stageTree = "tree"
	stageTask = "task"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeStale   = "stale"

	eventPublishTimeout = 5 * time.Second
)

// Orchestrator owns the generation state of one session. It runs the tree
// call, then fans out one task call per idea, and publishes every change as
// a new immutable Snapshot. Each submit starts a new epoch; results that
// arrive for an older epoch are dropped.
type Orchestrator struct {
	sessionID string
	client    ports.ModelClient
	publisher ports.EventPublisher
	metrics   ports.GenerationMetrics
	validator *validators.InputValidator
	domain    *config.DomainConfig
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu          sync.Mutex
	epoch       uint64
	snap        *Snapshot
	cancelEpoch context.CancelFunc
	current     *Generation
	closed      bool
}

// New creates the orchestrator for a session. A nil publisher or metrics
// disables that concern.
func New(
	sessionID string,
	client ports.ModelClient,
	publisher ports.EventPublisher,
	metrics ports.GenerationMetrics,
	domainCfg *config.DomainConfig,
	logger *zap.Logger,
) *Orchestrator {
	if domainCfg == nil {
		domainCfg = config.DefaultDomainConfig()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		sessionID:  sessionID,
		client:     client,
		publisher:  publisher,
		metrics:    metrics,
		validator:  validators.NewInputValidator(domainCfg),
		domain:     domainCfg,
		logger:     logger.With(zap.String("session_id", sessionID)),
		tracer:     otel.Tracer("ideamap/orchestrator"),
		now:        time.Now,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
	o.snap = initialSnapshot(o.now())
	return o
}

// SessionID returns the id of the owning session
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Snapshot returns the current state. The result must not be modified.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Generate validates the input, runs the tree call and publishes the new
// tree, then starts the task fan-out in the background. Any outstanding work
// of the previous epoch is cancelled and its results will be dropped.
func (o *Orchestrator) Generate(ctx context.Context, input valueobjects.UserInput, lang valueobjects.Language) (*Generation, error) {
	// Step 1: reject bad input before anything else happens
	if err := o.validator.ValidateUserInput(input); err != nil {
		return nil, err
	}
	if lang == "" {
		lang = valueobjects.DefaultLanguage
	}
	input = input.Normalized()

	// Step 2: open a new epoch, superseding the previous one
	epoch, epochCtx, err := o.beginEpoch(input, lang)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Generation started",
		zap.Uint64("epoch", epoch),
		zap.String("language", lang.String()),
	)
	o.emit(ctx, events.NewGenerationStarted(o.sessionID, epoch, lang, o.now()))

	// Step 3: synthesize the tree
	tree, err := o.synthesizeTree(ctx, epochCtx, epoch, input, lang)
	if err != nil {
		return nil, err
	}

	// Step 4: publish the tree and dispatch the task fan-out
	gen, err := o.publishTree(epoch, tree)
	if err != nil {
		return nil, err
	}
	o.emit(ctx, events.NewMindMapGenerated(o.sessionID, epoch, tree.Topic(), tree.ProblemCount(), tree.IdeaCount(), o.now()))

	ideas := tree.Ideas()
	if len(ideas) == 0 {
		o.completeGeneration(gen)
		return gen, nil
	}
	go o.expand(epochCtx, gen, ideas, input, lang)
	return gen, nil
}

func (o *Orchestrator) beginEpoch(input valueobjects.UserInput, lang valueobjects.Language) (uint64, context.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, nil, pkgerrors.NewUnavailableError("session")
	}

	o.epoch++
	if o.cancelEpoch != nil {
		o.cancelEpoch()
	}
	if o.current != nil {
		o.current.finish(StatusSuperseded, pkgerrors.NewStaleResultError(o.current.epoch, o.epoch))
		o.current = nil
	}
	epochCtx, cancel := context.WithCancel(o.baseCtx)
	o.cancelEpoch = cancel

	next := o.snap.clone(o.now())
	next.Epoch = o.epoch
	next.Status = StatusGenerating
	next.Input = input
	next.Language = lang
	next.Pending = 0
	next.Err = nil
	o.snap = next

	return o.epoch, epochCtx, nil
}

func (o *Orchestrator) synthesizeTree(ctx, epochCtx context.Context, epoch uint64, input valueobjects.UserInput, lang valueobjects.Language) (*aggregates.MindMap, error) {
	callCtx, cancel := withTimeout(ctx, o.domain.TreeTimeout)
	defer cancel()
	stop := context.AfterFunc(epochCtx, cancel)
	defer stop()

	callCtx, span := o.tracer.Start(callCtx, "orchestrator.synthesize_tree",
		trace.WithAttributes(
			attribute.String("session.id", o.sessionID),
			attribute.Int64("generation.epoch", int64(epoch)),
		))
	defer span.End()

	start := o.now()
	draft, err := o.client.SynthesizeTree(callCtx, BuildTreePrompt(input, lang))
	elapsed := o.now().Sub(start)

	if current, stale := o.isStale(epoch); stale {
		o.metrics.ObserveModelCall(stageTree, outcomeStale, elapsed)
		o.logger.Debug("Dropping tree for superseded epoch",
			zap.Uint64("epoch", epoch),
			zap.Uint64("current_epoch", current),
		)
		o.emit(ctx, events.NewResultDiscarded(o.sessionID, epoch, current, "", o.now()))
		span.SetStatus(codes.Error, "stale")
		return nil, pkgerrors.NewStaleResultError(epoch, current)
	}

	if err == nil && draft == nil {
		err = errors.New("model returned no tree")
	}
	var tree *aggregates.MindMap
	if err == nil {
		tree, err = aggregates.NewMindMap(epoch, *draft)
		if err != nil {
			err = fmt.Errorf("non-conforming tree: %w", err)
		}
	}
	if err != nil {
		o.metrics.ObserveModelCall(stageTree, outcomeFailure, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, o.failGeneration(ctx, epoch, err)
	}

	o.metrics.ObserveModelCall(stageTree, outcomeSuccess, elapsed)
	span.SetAttributes(
		attribute.Int("tree.problems", tree.ProblemCount()),
		attribute.Int("tree.ideas", tree.IdeaCount()),
	)
	for _, w := range tree.ShapeWarnings(o.domain) {
		o.logger.Warn("Unexpected tree shape", zap.Uint64("epoch", epoch), zap.String("detail", w))
	}
	o.logger.Info("Tree synthesized",
		zap.Uint64("epoch", epoch),
		zap.Int("problems", tree.ProblemCount()),
		zap.Int("ideas", tree.IdeaCount()),
		zap.Duration("duration", elapsed),
	)
	return tree, nil
}

// failGeneration records a failed tree call. The previous tree and its
// breakdowns stay visible.
func (o *Orchestrator) failGeneration(ctx context.Context, epoch uint64, cause error) error {
	genErr := pkgerrors.NewGenerationFailedError("failed to generate the mind map", cause)

	o.mu.Lock()
	if o.epoch != epoch {
		current := o.epoch
		o.mu.Unlock()
		return pkgerrors.NewStaleResultError(epoch, current)
	}
	if o.cancelEpoch != nil {
		o.cancelEpoch()
		o.cancelEpoch = nil
	}
	next := o.snap.clone(o.now())
	next.Status = StatusFailed
	next.Err = genErr
	o.snap = next
	o.mu.Unlock()

	o.metrics.IncGeneration(string(StatusFailed))
	o.logger.Error("Generation failed",
		zap.Uint64("epoch", epoch),
		zap.Error(cause),
	)
	o.emit(ctx, events.NewGenerationFailed(o.sessionID, epoch, cause.Error(), o.now()))
	return genErr
}

func (o *Orchestrator) publishTree(epoch uint64, tree *aggregates.MindMap) (*Generation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.epoch != epoch {
		return nil, pkgerrors.NewStaleResultError(epoch, o.epoch)
	}

	gen := newGeneration(epoch, tree)
	o.current = gen

	next := o.snap.clone(o.now())
	next.Tree = tree
	next.Breakdowns = map[valueobjects.IdeaID]*entities.TaskBreakdown{}
	next.Failures = map[valueobjects.IdeaID]string{}
	next.Pending = tree.IdeaCount()
	next.Status = StatusExpanding
	next.Selected = valueobjects.NodeRef{}
	o.snap = next
	return gen, nil
}

// expand issues one task request per idea and waits for all of them to settle
func (o *Orchestrator) expand(ctx context.Context, gen *Generation, ideas []aggregates.Idea, input valueobjects.UserInput, lang valueobjects.Language) {
	var g errgroup.Group
	if o.domain.FanOutLimit > 0 {
		g.SetLimit(o.domain.FanOutLimit)
	}

	o.logger.Debug("Dispatching task requests",
		zap.Uint64("epoch", gen.epoch),
		zap.Int("requests", len(ideas)),
		zap.Int("limit", o.domain.FanOutLimit),
	)

	for _, idea := range ideas {
		idea := idea
		g.Go(func() error {
			o.fetchBreakdown(ctx, gen, idea, input, lang)
			return nil
		})
	}
	_ = g.Wait()

	o.completeGeneration(gen)
}

func (o *Orchestrator) fetchBreakdown(ctx context.Context, gen *Generation, idea aggregates.Idea, input valueobjects.UserInput, lang valueobjects.Language) {
	o.metrics.AddInFlightTasks(1)
	defer o.metrics.AddInFlightTasks(-1)

	callCtx, cancel := withTimeout(ctx, o.domain.TaskTimeout)
	defer cancel()

	callCtx, span := o.tracer.Start(callCtx, "orchestrator.synthesize_task",
		trace.WithAttributes(
			attribute.String("session.id", o.sessionID),
			attribute.Int64("generation.epoch", int64(gen.epoch)),
			attribute.String("idea.id", idea.ID.String()),
		))
	defer span.End()

	start := o.now()
	draft, err := o.client.SynthesizeTaskBreakdown(callCtx, BuildTaskPrompt(input.Skills, idea.Title, idea.Description, lang))
	elapsed := o.now().Sub(start)

	if err == nil && draft == nil {
		err = errors.New("model returned no task breakdown")
	}
	var breakdown *entities.TaskBreakdown
	if err == nil {
		breakdown, err = entities.NewTaskBreakdown(idea.ID, gen.epoch, *draft)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.acceptBreakdown(gen, idea.ID, breakdown, err, elapsed)
}

// acceptBreakdown publishes the outcome of one task request if it still
// belongs to the current epoch and tree.
func (o *Orchestrator) acceptBreakdown(gen *Generation, id valueobjects.IdeaID, breakdown *entities.TaskBreakdown, callErr error, elapsed time.Duration) {
	o.mu.Lock()
	if o.epoch != gen.epoch || o.snap.Tree != gen.tree {
		current := o.epoch
		o.mu.Unlock()

		o.metrics.ObserveModelCall(stageTask, outcomeStale, elapsed)
		o.logger.Debug("Dropping task breakdown for superseded epoch",
			zap.Uint64("epoch", gen.epoch),
			zap.Uint64("current_epoch", current),
			zap.String("idea_id", id.String()),
		)
		o.emit(o.baseCtx, events.NewResultDiscarded(o.sessionID, gen.epoch, current, id.String(), o.now()))
		return
	}
	if !o.snap.Tree.HasIdea(id) {
		o.mu.Unlock()
		o.logger.Warn("Dropping task breakdown for unknown idea",
			zap.Uint64("epoch", gen.epoch),
			zap.String("idea_id", id.String()),
		)
		return
	}

	next := o.snap.clone(o.now())
	if next.Pending > 0 {
		next.Pending--
	}
	if callErr != nil {
		next.Failures[id] = callErr.Error()
	} else {
		next.Breakdowns[id] = breakdown
	}
	o.snap = next
	o.mu.Unlock()

	if callErr != nil {
		o.metrics.ObserveModelCall(stageTask, outcomeFailure, elapsed)
		o.logger.Error("Task breakdown failed",
			zap.Uint64("epoch", gen.epoch),
			zap.String("idea_id", id.String()),
			zap.Duration("duration", elapsed),
			zap.Error(callErr),
		)
		o.emit(o.baseCtx, events.NewTaskFailed(o.sessionID, gen.epoch, id, callErr.Error(), o.now()))
		return
	}

	o.metrics.ObserveModelCall(stageTask, outcomeSuccess, elapsed)
	o.logger.Debug("Task breakdown accepted",
		zap.Uint64("epoch", gen.epoch),
		zap.String("idea_id", id.String()),
		zap.Int("phases", breakdown.PhaseCount()),
		zap.Duration("duration", elapsed),
	)
	o.emit(o.baseCtx, events.NewTaskGenerated(o.sessionID, gen.epoch, id, breakdown.PhaseCount(), o.now()))
}

func (o *Orchestrator) completeGeneration(gen *Generation) {
	o.mu.Lock()
	if o.epoch != gen.epoch || o.snap.Tree != gen.tree {
		o.mu.Unlock()
		return
	}

	failed := o.snap.FailedIdeas()
	status := StatusReady
	var err error
	if len(failed) > 0 {
		status = StatusPartial
		ids := make([]string, len(failed))
		for i, id := range failed {
			ids[i] = id.String()
		}
		err = pkgerrors.NewPartialTaskFailureError(ids)
	}

	next := o.snap.clone(o.now())
	next.Status = status
	next.Pending = 0
	o.snap = next
	o.current = nil
	if o.cancelEpoch != nil {
		o.cancelEpoch()
		o.cancelEpoch = nil
	}
	succeeded := len(next.Breakdowns)
	o.mu.Unlock()

	gen.finish(status, err)
	o.metrics.IncGeneration(string(status))
	o.logger.Info("Generation completed",
		zap.Uint64("epoch", gen.epoch),
		zap.String("status", string(status)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(failed)),
	)
	o.emit(o.baseCtx, events.NewGenerationCompleted(o.sessionID, gen.epoch, string(status), succeeded, len(failed), o.now()))
}

// Select records the node the user selected
func (o *Orchestrator) Select(ref valueobjects.NodeRef) error {
	if ref.IsZero() {
		o.Deselect()
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.snap.Contains(ref) {
		return pkgerrors.NewNotFoundError(fmt.Sprintf("node %s", ref))
	}
	next := o.snap.clone(o.now())
	next.Selected = ref
	o.snap = next
	return nil
}

// Deselect clears the selection
func (o *Orchestrator) Deselect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.snap.clone(o.now())
	next.Selected = valueobjects.NodeRef{}
	o.snap = next
}

// Resize records the drawing surface size. A zero size restores the default.
func (o *Orchestrator) Resize(size layout.Size) error {
	if size.Width < 0 || size.Height < 0 {
		return pkgerrors.NewValidationError("surface size must not be negative")
	}
	if size.IsZero() {
		size = layout.DefaultSurface
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.snap.clone(o.now())
	next.Surface = size
	o.snap = next
	return nil
}

// SetLanguage changes the language used by the next generation
func (o *Orchestrator) SetLanguage(lang valueobjects.Language) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.snap.clone(o.now())
	next.Language = lang
	o.snap = next
}

// Close cancels all outstanding work. Results that arrive afterwards are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.epoch++
	if o.current != nil {
		o.current.finish(StatusSuperseded, pkgerrors.NewStaleResultError(o.current.epoch, o.epoch))
		o.current = nil
	}
	o.cancelEpoch = nil
	o.mu.Unlock()

	o.baseCancel()
	o.logger.Debug("Orchestrator closed")
}

// withTimeout bounds ctx by d; a non-positive d means no bound
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (o *Orchestrator) isStale(epoch uint64) (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.epoch, o.epoch != epoch
}

func (o *Orchestrator) emit(ctx context.Context, event events.DomainEvent) {
	if o.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
