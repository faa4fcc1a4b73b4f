package handlers

import (
	"bytes"
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"ideamap/application/orchestrator"
	"ideamap/application/ports"
	"ideamap/application/queries"
	"ideamap/application/queries/bus"
	"ideamap/application/selection"
	"ideamap/application/sessions"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
	"ideamap/pkg/utils"
)

// SessionQueryHandler answers read queries about a session. It only reads
// published snapshots.
type SessionQueryHandler struct {
	registry  *sessions.Registry
	resolver  *selection.Resolver
	rules     ports.RulesProvider
	renderers map[string]ports.MapRenderer
	metrics   ports.LayoutMetrics
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewSessionQueryHandler creates a new query handler
func NewSessionQueryHandler(
	registry *sessions.Registry,
	resolver *selection.Resolver,
	rules ports.RulesProvider,
	renderers []ports.MapRenderer,
	metrics ports.LayoutMetrics,
	logger *zap.Logger,
) *SessionQueryHandler {
	if rules == nil {
		rules = ports.StaticRules(layout.DefaultSizingRules())
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	byFormat := make(map[string]ports.MapRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &SessionQueryHandler{
		registry:  registry,
		resolver:  resolver,
		rules:     rules,
		renderers: byFormat,
		metrics:   metrics,
		tracer:    otel.Tracer("ideamap/queries"),
		logger:    logger,
	}
}

// Register binds the handler to its queries on the bus
func (h *SessionQueryHandler) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.GetSessionQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetSession(ctx, q.(queries.GetSessionQuery))
		}},
		{queries.GetTreeQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetTree(ctx, q.(queries.GetTreeQuery))
		}},
		{queries.GetTasksQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetTasks(ctx, q.(queries.GetTasksQuery))
		}},
		{queries.GetLayoutQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetLayout(ctx, q.(queries.GetLayoutQuery))
		}},
		{queries.GetSelectionQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleGetSelection(ctx, q.(queries.GetSelectionQuery))
		}},
		{queries.RenderMapQuery{}, func(ctx context.Context, q bus.Query) (interface{}, error) {
			return h.HandleRenderMap(ctx, q.(queries.RenderMapQuery))
		}},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *SessionQueryHandler) snapshot(ctx context.Context, sessionID string) (*orchestrator.Snapshot, error) {
	session, err := h.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Orchestrator.Snapshot(), nil
}

// HandleGetSession summarizes a session
func (h *SessionQueryHandler) HandleGetSession(ctx context.Context, q queries.GetSessionQuery) (*queries.SessionView, error) {
	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}

	view := &queries.SessionView{
		ID:          q.SessionID,
		Epoch:       snap.Epoch,
		Status:      string(snap.Status),
		Language:    snap.Language,
		Input:       snap.Input,
		FailedIdeas: []string{},
		Pending:     snap.Pending,
		Selected:    snap.Selected,
		Surface:     snap.Surface,
		UpdatedAt:   utils.FormatRFC3339(snap.UpdatedAt),
	}
	if snap.Err != nil {
		view.Error = errorMessage(snap.Err)
	}
	if snap.Tree != nil {
		view.Topic = snap.Tree.Topic()
		view.TreeEpoch = snap.Tree.Epoch()
		view.ProblemCount = snap.Tree.ProblemCount()
		view.IdeaCount = snap.Tree.IdeaCount()
		view.BreakdownCount = len(snap.ValidBreakdowns())
		for _, id := range snap.FailedIdeas() {
			view.FailedIdeas = append(view.FailedIdeas, id.String())
		}
	}
	return view, nil
}

// HandleGetTree returns the current tree
func (h *SessionQueryHandler) HandleGetTree(ctx context.Context, q queries.GetTreeQuery) (*queries.TreeView, error) {
	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	if snap.Tree == nil {
		return nil, pkgerrors.NewNotFoundError("tree")
	}
	return &queries.TreeView{
		SessionID: q.SessionID,
		Epoch:     snap.Epoch,
		Status:    string(snap.Status),
		Tree:      snap.Tree,
	}, nil
}

// HandleGetTasks returns the accepted task breakdowns and failed ideas
func (h *SessionQueryHandler) HandleGetTasks(ctx context.Context, q queries.GetTasksQuery) (*queries.TasksView, error) {
	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	if snap.Tree == nil {
		return nil, pkgerrors.NewNotFoundError("tree")
	}

	view := &queries.TasksView{
		Epoch:      snap.Tree.Epoch(),
		Status:     string(snap.Status),
		Pending:    snap.Pending,
		Breakdowns: snap.ValidBreakdowns(),
		Failures:   []queries.TaskFailure{},
	}
	for _, id := range snap.FailedIdeas() {
		idea, _ := snap.Tree.Idea(id)
		view.Failures = append(view.Failures, queries.TaskFailure{
			IdeaID: id,
			Title:  idea.Title,
			Reason: snap.Failures[id],
		})
	}
	return view, nil
}

// HandleGetLayout computes the layout of the current tree
func (h *SessionQueryHandler) HandleGetLayout(ctx context.Context, q queries.GetLayoutQuery) (*queries.LayoutView, error) {
	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	surface := surfaceFor(snap, q.Width, q.Height)
	result, err := h.computeLayout(ctx, snap, surface, q.ExpandPhases)
	if err != nil {
		return nil, err
	}
	return &queries.LayoutView{
		Epoch:    snap.Epoch,
		Status:   string(snap.Status),
		Surface:  surface,
		Selected: h.highlight(snap, result),
		Layout:   result,
	}, nil
}

// HandleGetSelection resolves the current selection. The result is nil when
// nothing is selected.
func (h *SessionQueryHandler) HandleGetSelection(ctx context.Context, q queries.GetSelectionQuery) (*selection.SelectedNode, error) {
	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	return h.resolver.Current(snap), nil
}

// HandleRenderMap draws the current layout in the requested format
func (h *SessionQueryHandler) HandleRenderMap(ctx context.Context, q queries.RenderMapQuery) (*queries.RenderedMap, error) {
	renderer, ok := h.renderers[strings.ToLower(q.Format)]
	if !ok {
		return nil, pkgerrors.NewValidationError("unsupported map format").WithDetail("format", q.Format)
	}

	snap, err := h.snapshot(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := h.computeLayout(ctx, snap, surfaceFor(snap, q.Width, q.Height), q.ExpandPhases)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	opts := ports.RenderOptions{
		Highlight: h.highlight(snap, result),
		Title:     snap.Tree.Topic(),
	}
	if err := renderer.Render(&buf, result, opts); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to render map")
	}
	return &queries.RenderedMap{
		ContentType: renderer.ContentType(),
		Body:        buf.Bytes(),
		Epoch:       snap.Epoch,
	}, nil
}

func (h *SessionQueryHandler) computeLayout(ctx context.Context, snap *orchestrator.Snapshot, surface layout.Size, expandPhases bool) (*layout.Result, error) {
	if snap.Tree == nil {
		return nil, pkgerrors.NewNotFoundError("tree")
	}

	_, span := h.tracer.Start(ctx, "layout.compute",
		trace.WithAttributes(
			attribute.Int64("tree.epoch", int64(snap.Tree.Epoch())),
			attribute.Bool("layout.expand_phases", expandPhases),
		))
	defer span.End()

	start := time.Now()
	root := layout.FromMindMap(snap.Tree, snap.Breakdowns, layout.Options{ExpandPhases: expandPhases})
	result, err := layout.Compute(root, surface, h.rules.Rules())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	elapsed := time.Since(start)

	h.metrics.ObserveLayout(len(result.Nodes), elapsed)
	span.SetAttributes(
		attribute.Int("layout.nodes", len(result.Nodes)),
		attribute.Int("layout.connectors", len(result.Connectors)),
	)
	h.logger.Debug("Layout computed",
		zap.Uint64("epoch", snap.Tree.Epoch()),
		zap.Int("nodes", len(result.Nodes)),
		zap.Duration("duration", elapsed),
	)
	return result, nil
}

// highlight returns the layout id of the selected node when it is drawn
func (h *SessionQueryHandler) highlight(snap *orchestrator.Snapshot, result *layout.Result) string {
	if snap.Selected.IsZero() {
		return ""
	}
	id := snap.Selected.NodeID()
	if _, ok := result.Node(id); !ok {
		return ""
	}
	return id
}

func surfaceFor(snap *orchestrator.Snapshot, width, height float64) layout.Size {
	if width > 0 && height > 0 {
		return layout.Size{Width: width, Height: height}
	}
	return snap.Surface
}

func errorMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
