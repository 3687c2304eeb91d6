// Package counsel assembles the legal orchestration pipeline: keyword
// routing to four specialists, concurrent dispatch with deterministic
// fallbacks, merged responses, and dual-backed case memory. Construct a
// Runtime with options and call Submit.
package counsel

import (
	"context"
	"log/slog"

	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/internal/tracing"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/memory"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/session"
	"github.com/lawyrs/counsel/sideeffect"
)

type (
	Runtime struct {
		logger       *slog.Logger
		orchestrator *orchestrator.Orchestrator
		memory       *memory.Service
		sessions     session.Manager
		agents       agent.Registry
		base         knowledge.Base
		client       provider.Client
		effects      sideeffect.Dispatcher

		modelConfig        *config.ModelConfig
		memoryConfig       *config.MemoryConfig
		orchestratorConfig *config.OrchestratorConfig
		serverConfig       *config.ServerConfig
		logConfig          *config.LogConfig
	}

	Option func(*Runtime)
)

func NewRuntime(ctx context.Context, optionFuncs ...Option) (*Runtime, error) {
	r := &Runtime{
		modelConfig:        config.NewModelConfig(),
		memoryConfig:       config.NewMemoryConfig(),
		orchestratorConfig: config.NewOrchestratorConfig(),
		serverConfig:       config.NewServerConfig(),
		logConfig:          config.NewLogConfig(),
	}
	for _, f := range optionFuncs {
		f(r)
	}

	if r.logger == nil {
		r.logger = mylog.NewLogger(r.logConfig.LogLevel, r.logConfig.LogHandler)
	}

	var err error
	if r.base == nil {
		r.base, err = knowledge.Load()
		if err != nil {
			return nil, err
		}
	}

	if r.client == nil {
		r.client, err = provider.New(r.modelConfig)
		if err != nil {
			return nil, err
		}
	}

	if r.agents == nil {
		r.agents, err = agent.NewRegistry(r.logger, r.client, r.base, r.orchestratorConfig)
		if err != nil {
			return nil, err
		}
	}

	if r.memory == nil {
		r.memory, err = memory.NewService(r.logger, r.memoryConfig, r.client)
		if err != nil {
			return nil, err
		}
	}

	if r.sessions == nil {
		r.sessions, err = session.NewManager(r.logger, r.serverConfig.SessionDBPath)
		if err != nil {
			return nil, err
		}
	}

	if r.effects == nil {
		if r.serverConfig.CollaboratorURL != "" {
			r.effects = sideeffect.NewHTTPDispatcher(r.logger, r.serverConfig.CollaboratorURL)
		} else {
			r.effects = sideeffect.NewLogDispatcher(r.logger)
		}
	}

	tracer := tracing.NewTracer(r.logger, r.modelConfig.TraceVerbose)

	r.orchestrator, err = orchestrator.New(
		r.logger,
		r.orchestratorConfig,
		r.agents,
		r.memory,
		r.sessions,
		r.effects,
		tracer,
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Submit routes and answers one query.
func (r *Runtime) Submit(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	return r.orchestrator.Submit(ctx, req)
}

// Classify returns the routing decision without dispatching.
func (r *Runtime) Classify(ctx context.Context, req orchestrator.Request) orchestrator.RoutingDecision {
	return r.orchestrator.Classify(ctx, req)
}

// History returns the session's recorded turns, oldest first.
func (r *Runtime) History(ctx context.Context, sessionID string) ([]entity.Turn, error) {
	return r.orchestrator.History(ctx, sessionID)
}

// ClearSession drops the conversation log; case memory is untouched.
func (r *Runtime) ClearSession(ctx context.Context, sessionID string) error {
	return r.orchestrator.Clear(ctx, sessionID)
}

func (r *Runtime) Orchestrator() *orchestrator.Orchestrator {
	return r.orchestrator
}

func (r *Runtime) MemoryService() *memory.Service {
	return r.memory
}

func (r *Runtime) KnowledgeBase() knowledge.Base {
	return r.base
}

func (r *Runtime) ServerConfig() *config.ServerConfig {
	return r.serverConfig
}

func (r *Runtime) Close() {
	if r.memory != nil {
		if err := r.memory.Close(); err != nil {
			r.logger.Warn("failed to close memory service", mylog.Err(err))
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

func WithOpenAIAPIKey(apiKey string) Option {
	return func(r *Runtime) {
		r.modelConfig.Provider = "openai"
		r.modelConfig.OpenAIAPIKey = apiKey
	}
}

func WithAnthropicAPIKey(apiKey string) Option {
	return func(r *Runtime) {
		r.modelConfig.Provider = "anthropic"
		r.modelConfig.AnthropicAPIKey = apiKey
	}
}

func WithModelConfig(conf *config.ModelConfig) Option {
	return func(r *Runtime) {
		r.modelConfig = conf
	}
}

func WithMemoryConfig(conf *config.MemoryConfig) Option {
	return func(r *Runtime) {
		r.memoryConfig = conf
	}
}

func WithOrchestratorConfig(conf *config.OrchestratorConfig) Option {
	return func(r *Runtime) {
		r.orchestratorConfig = conf
	}
}

func WithServerConfig(conf *config.ServerConfig) Option {
	return func(r *Runtime) {
		r.serverConfig = conf
	}
}

func WithTraceVerbose(traceVerbose bool) Option {
	return func(r *Runtime) {
		r.modelConfig.TraceVerbose = traceVerbose
	}
}

// WithProviderClient pins an explicit completion client; tests use it to
// simulate outages.
func WithProviderClient(client provider.Client) Option {
	return func(r *Runtime) {
		r.client = client
	}
}

// WithMemoryService pins an explicit memory service.
func WithMemoryService(svc *memory.Service) Option {
	return func(r *Runtime) {
		r.memory = svc
	}
}

// WithSessionManager pins an explicit session manager.
func WithSessionManager(m session.Manager) Option {
	return func(r *Runtime) {
		r.sessions = m
	}
}

// WithSideEffectDispatcher pins an explicit dispatcher.
func WithSideEffectDispatcher(d sideeffect.Dispatcher) Option {
	return func(r *Runtime) {
		r.effects = d
	}
}
