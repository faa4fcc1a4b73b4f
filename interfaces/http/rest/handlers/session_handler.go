package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ideamap/application/commands"
	"ideamap/application/commands/bus"
	"ideamap/application/queries"
	querybus "ideamap/application/queries/bus"
	"ideamap/application/selection"
	"ideamap/pkg/auth"
	"ideamap/pkg/common"
	pkgerrors "ideamap/pkg/errors"
	"ideamap/pkg/utils"
)

// Options tunes request handling
type Options struct {
	// MaxRequestBytes caps JSON request bodies
	MaxRequestBytes int64
	// ForceWait makes every submit wait for its task breakdowns, for
	// runtimes that freeze once the response is sent
	ForceWait       bool

	Version string
}

// SessionHandler handles session HTTP requests
type SessionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	tokens     *auth.TokenService
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
	options    Options
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	tokens *auth.TokenService,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	options Options,
) *SessionHandler {
	if options.MaxRequestBytes <= 0 {
		options.MaxRequestBytes = 64 << 10
	}
	return &SessionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		tokens:     tokens,
		errors:     errs,
		logger:     logger,
		options:    options,
	}
}

// CreateSessionRequest represents the optional body of POST /sessions
type CreateSessionRequest struct {
	Language string `json:"language,omitempty" validate:"omitempty,oneof=en vi"`
}

// CreateSessionResponse carries the new session id and its token
type CreateSessionResponse struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

// SubmitGenerationRequest represents the body of POST /sessions/{id}/generations
type SubmitGenerationRequest struct {
	Interests    string `json:"interests" validate:"max=2000"`
	Skills       string `json:"skills" validate:"max=2000"`
	MarketTrends string `json:"marketTrends" validate:"max=2000"`
	Language     string `json:"language,omitempty" validate:"omitempty,oneof=en vi"`
	Wait         bool   `json:"wait,omitempty"`
}

// SelectNodeRequest represents the body of POST /sessions/{id}/selection
type SelectNodeRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=central problem idea phase"`
	NodeID string `json:"nodeId"`
}

// ResizeSurfaceRequest represents the body of PUT /sessions/{id}/surface
type ResizeSurfaceRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// SetLanguageRequest represents the body of PUT /sessions/{id}/language
type SetLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=en vi"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	sessionID := uuid.New().String()
	if err := h.commandBus.Send(r.Context(), commands.CreateSessionCommand{SessionID: sessionID}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.Language != "" {
		cmd := commands.SetLanguageCommand{SessionID: sessionID, Language: req.Language}
		if err := h.commandBus.Send(r.Context(), cmd); err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	token, expiresAt, err := h.tokens.Issue(sessionID)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("failed to issue session token").WithCause(err))
		return
	}

	h.logger.Info("Session created", zap.String("session_id", sessionID))
	h.respond(w, r, http.StatusCreated, CreateSessionResponse{
		ID:        sessionID,
		Token:     token,
		ExpiresAt: utils.FormatRFC3339(expiresAt),
		CreatedAt: utils.NowRFC3339(),
	}, nil)
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, ok := ask[*queries.SessionView](h, w, r, queries.GetSessionQuery{SessionID: sessionID(r)})
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, view, &view.Epoch)
}

// DeleteSession handles DELETE /sessions/{id}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.DeleteSessionCommand{SessionID: sessionID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitGeneration handles POST /sessions/{id}/generations. It responds
// once the tree exists; 202 means task breakdowns are still being produced.
func (h *SessionHandler) SubmitGeneration(w http.ResponseWriter, r *http.Request) {
	var req SubmitGenerationRequest
	if !h.decode(w, r, &req) {
		return
	}

	cmd := commands.SubmitGenerationCommand{
		SessionID:    sessionID(r),
		Interests:    req.Interests,
		Skills:       req.Skills,
		MarketTrends: req.MarketTrends,
		Language:     req.Language,
		Wait:         req.Wait || h.options.ForceWait,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, ok := ask[*queries.TreeView](h, w, r, queries.GetTreeQuery{SessionID: cmd.SessionID})
	if !ok {
		return
	}
	status := http.StatusOK
	if view.Status == "expanding" {
		status = http.StatusAccepted
	}
	h.respond(w, r, status, view, &view.Epoch)
}

// GetTree handles GET /sessions/{id}/tree
func (h *SessionHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	view, ok := ask[*queries.TreeView](h, w, r, queries.GetTreeQuery{SessionID: sessionID(r)})
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, view, &view.Epoch)
}

// GetTasks handles GET /sessions/{id}/tasks
func (h *SessionHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	view, ok := ask[*queries.TasksView](h, w, r, queries.GetTasksQuery{SessionID: sessionID(r)})
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, view, &view.Epoch)
}

// ResizeSurface handles PUT /sessions/{id}/surface
func (h *SessionHandler) ResizeSurface(w http.ResponseWriter, r *http.Request) {
	var req ResizeSurfaceRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := commands.ResizeSurfaceCommand{SessionID: sessionID(r), Width: req.Width, Height: req.Height}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetLanguage handles PUT /sessions/{id}/language
func (h *SessionHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req SetLanguageRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := commands.SetLanguageCommand{SessionID: sessionID(r), Language: req.Language}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLayout handles GET /sessions/{id}/layout?phases=true&width=&height=
func (h *SessionHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	phases, width, height, err := layoutParams(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	q := queries.GetLayoutQuery{SessionID: sessionID(r), ExpandPhases: phases, Width: width, Height: height}
	view, ok := ask[*queries.LayoutView](h, w, r, q)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, view, &view.Epoch)
}

// RenderMap returns a handler for GET /sessions/{id}/map.<format>
func (h *SessionHandler) RenderMap(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phases, width, height, err := layoutParams(r)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		q := queries.RenderMapQuery{SessionID: sessionID(r), Format: format, ExpandPhases: phases, Width: width, Height: height}
		rendered, ok := ask[*queries.RenderedMap](h, w, r, q)
		if !ok {
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Map-Epoch", strconv.FormatUint(rendered.Epoch, 10))
		common.RespondBytes(w, http.StatusOK, rendered.ContentType, rendered.Body)
	}
}

// SelectNode handles POST /sessions/{id}/selection
func (h *SessionHandler) SelectNode(w http.ResponseWriter, r *http.Request) {
	var req SelectNodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := commands.SelectNodeCommand{SessionID: sessionID(r), Kind: req.Kind, NodeID: req.NodeID}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.GetSelection(w, r)
}

// GetSelection handles GET /sessions/{id}/selection. The selection is
// resolved against the latest state, so task data appears once it arrives.
func (h *SessionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	node, ok := ask[*selection.SelectedNode](h, w, r, queries.GetSelectionQuery{SessionID: sessionID(r)})
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, node, nil)
}

// DeselectNode handles DELETE /sessions/{id}/selection
func (h *SessionHandler) DeselectNode(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.DeselectNodeCommand{SessionID: sessionID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode parses and validates a JSON body, writing the error response on failure
func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, h.options.MaxRequestBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	return true
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, epoch *uint64) {
	common.RespondWithMeta(w, status, data, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Version:   h.options.Version,
		Epoch:     epoch,
	})
}

// ask runs a query and asserts its result type
func ask[T any](h *SessionHandler, w http.ResponseWriter, r *http.Request, q querybus.Query) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.queryBus.Ask(ctx, q)
	if err != nil {
		h.errors.Handle(w, r, err)
		return zero, false
	}
	typed, ok := result.(T)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected query result"))
		return zero, false
	}
	return typed, true
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// layoutParams reads the phases, width and height query parameters
func layoutParams(r *http.Request) (phases bool, width, height float64, err error) {
	q := r.URL.Query()
	if v := q.Get("phases"); v != "" {
		if phases, err = strconv.ParseBool(v); err != nil {
			return false, 0, 0, pkgerrors.NewValidationError("phases must be a boolean")
		}
	}
	if v := q.Get("width"); v != "" {
		if width, err = strconv.ParseFloat(v, 64); err != nil {
			return false, 0, 0, pkgerrors.NewValidationError("width must be a number")
		}
	}
	if v := q.Get("height"); v != "" {
		if height, err = strconv.ParseFloat(v, 64); err != nil {
			return false, 0, 0, pkgerrors.NewValidationError("height must be a number")
		}
	}
	return phases, width, height, nil
}
