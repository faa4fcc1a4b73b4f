package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ideamap/application/commands"
	"ideamap/application/commands/bus"
	"ideamap/application/orchestrator"
	"ideamap/application/sessions"
	"ideamap/domain/core/valueobjects"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
)

// SessionHandler handles every command addressed to a session
type SessionHandler struct {
	registry *sessions.Registry
	logger   *zap.Logger
}

// NewSessionHandler creates a new handler instance
func NewSessionHandler(registry *sessions.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
	}
}

// Register binds the handler to its commands on the bus
func (h *SessionHandler) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateSessionCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleCreateSession(ctx, cmd.(commands.CreateSessionCommand))
		}},
		{commands.SubmitGenerationCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleSubmitGeneration(ctx, cmd.(commands.SubmitGenerationCommand))
		}},
		{commands.SelectNodeCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleSelectNode(ctx, cmd.(commands.SelectNodeCommand))
		}},
		{commands.DeselectNodeCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleDeselectNode(ctx, cmd.(commands.DeselectNodeCommand))
		}},
		{commands.ResizeSurfaceCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleResizeSurface(ctx, cmd.(commands.ResizeSurfaceCommand))
		}},
		{commands.SetLanguageCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleSetLanguage(ctx, cmd.(commands.SetLanguageCommand))
		}},
		{commands.DeleteSessionCommand{}, func(ctx context.Context, cmd bus.Command) error {
			return h.HandleDeleteSession(ctx, cmd.(commands.DeleteSessionCommand))
		}},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleCreateSession opens a session
func (h *SessionHandler) HandleCreateSession(ctx context.Context, cmd commands.CreateSessionCommand) error {
	_, err := h.registry.Create(ctx, cmd.SessionID)
	return err
}

// HandleSubmitGeneration runs a generation. The tree is in the session
// snapshot when it returns; task breakdowns follow unless Wait is set.
func (h *SessionHandler) HandleSubmitGeneration(ctx context.Context, cmd commands.SubmitGenerationCommand) error {
	session, err := h.registry.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	o := session.Orchestrator

	lang := o.Snapshot().Language
	if cmd.Language != "" {
		if lang, err = valueobjects.ParseLanguage(cmd.Language); err != nil {
			return err
		}
	}

	gen, err := o.Generate(ctx, cmd.UserInput(), lang)
	if err != nil {
		return err
	}
	if !cmd.Wait {
		return nil
	}

	status, err := gen.Wait(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return pkgerrors.NewTimeoutError("waiting for task breakdowns")
	case status == orchestrator.StatusPartial:
		// failed ideas are reported per idea in the snapshot
		h.logger.Warn("Generation finished with failed ideas",
			zap.String("session_id", cmd.SessionID),
			zap.Uint64("epoch", gen.Epoch()),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}

// HandleSelectNode selects a node of the current tree
func (h *SessionHandler) HandleSelectNode(ctx context.Context, cmd commands.SelectNodeCommand) error {
	session, err := h.registry.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	ref, err := cmd.Ref()
	if err != nil {
		return err
	}
	return session.Orchestrator.Select(ref)
}

// HandleDeselectNode clears the selection
func (h *SessionHandler) HandleDeselectNode(ctx context.Context, cmd commands.DeselectNodeCommand) error {
	session, err := h.registry.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	session.Orchestrator.Deselect()
	return nil
}

// HandleResizeSurface records the drawing surface size
func (h *SessionHandler) HandleResizeSurface(ctx context.Context, cmd commands.ResizeSurfaceCommand) error {
	session, err := h.registry.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	return session.Orchestrator.Resize(layout.Size{Width: cmd.Width, Height: cmd.Height})
}

// HandleSetLanguage changes the session language
func (h *SessionHandler) HandleSetLanguage(ctx context.Context, cmd commands.SetLanguageCommand) error {
	session, err := h.registry.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	lang, err := valueobjects.ParseLanguage(cmd.Language)
	if err != nil {
		return err
	}
	session.Orchestrator.SetLanguage(lang)
	return nil
}

// HandleDeleteSession closes a session
func (h *SessionHandler) HandleDeleteSession(ctx context.Context, cmd commands.DeleteSessionCommand) error {
	return h.registry.Delete(ctx, cmd.SessionID)
}
