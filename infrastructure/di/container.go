package di

import (
	"net/http"

	"go.uber.org/zap"

	"ideamap/application/commands/bus"
	"ideamap/application/ports"
	querybus "ideamap/application/queries/bus"
	"ideamap/application/sessions"
	"ideamap/infrastructure/config"
	"ideamap/infrastructure/llm"
	"ideamap/infrastructure/observability"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	ModelClient *llm.Client
	Publisher   ports.EventPublisher
	Metrics     *observability.Collector
	Rules       ports.RulesProvider
	Sessions    *sessions.Registry
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Handler     http.Handler
}
