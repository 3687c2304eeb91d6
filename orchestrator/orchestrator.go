// Package orchestrator is the pipeline core: classify the query, dispatch to
// one or two specialists, merge their outputs, persist the turn and the
// derived memory, and hand side effects to the collaborator.
package orchestrator

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/memory"
	"github.com/lawyrs/counsel/session"
	"github.com/lawyrs/counsel/sideeffect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// historyWindow bounds how much history feeds routing continuity and agent
// prompts.
const historyWindow = 10

type (
	// Request is one inbound query. Matter carries raw case fields from the
	// external case-management system; it is decoded defensively, never
	// trusted.
	Request struct {
		SessionID    string         `json:"session_id,omitempty"`
		Query        string         `json:"query"`
		Jurisdiction string         `json:"jurisdiction,omitempty"`
		AgentType    string         `json:"agent_type,omitempty"`
		Matter       map[string]any `json:"matter,omitempty"`
	}

	Orchestrator struct {
		logger     *mylog.Logger
		conf       *config.OrchestratorConfig
		classifier *Classifier
		agents     agent.Registry
		memory     *memory.Service
		sessions   session.Manager
		effects    sideeffect.Dispatcher
		tracer     trace.Tracer
	}
)

func New(
	logger *mylog.Logger,
	conf *config.OrchestratorConfig,
	agents agent.Registry,
	mem *memory.Service,
	sessions session.Manager,
	effects sideeffect.Dispatcher,
	tracer trace.Tracer,
) (*Orchestrator, error) {
	if len(agents) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "no agents registered")
	}
	if conf == nil {
		conf = config.NewOrchestratorConfig()
	}
	if effects == nil {
		effects = sideeffect.NewLogDispatcher(logger)
	}

	classifier, err := NewClassifier(conf)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		logger:     logger,
		conf:       conf,
		classifier: classifier,
		agents:     agents,
		memory:     mem,
		sessions:   sessions,
		effects:    effects,
		tracer:     tracer,
	}, nil
}

// Submit handles one query end to end. The only caller-visible error before
// dispatch is an empty query; provider and store outages degrade inside the
// pipeline and still produce a successful response.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "query must not be empty")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, span := o.startSpan(ctx, "orchestrator.submit",
		attribute.String("session_id", sessionID))
	defer span.End()

	caseID := caseIDOf(req)
	sess, err := o.sessions.GetOrCreate(ctx, sessionID, caseID)
	if err != nil {
		return nil, err
	}
	if caseID == "" {
		caseID = sess.CaseID
	}

	history := o.loadHistory(ctx, sessionID)
	matter := o.assembleMatter(ctx, caseID, req)

	decision := o.classify(req, history)
	span.SetAttributes(
		attribute.String("routing.primary", string(decision.Primary)),
		attribute.String("routing.co_agent", string(decision.CoAgent)),
		attribute.Bool("routing.clarify", decision.Clarify),
	)

	var resp *Response
	if decision.Clarify {
		resp = clarification(sessionID, decision)
	} else {
		outputs := o.dispatch(ctx, decision, agent.Input{
			Query:     req.Query,
			SessionID: sessionID,
			Matter:    matter,
			History:   history,
		})
		resp = merge(sessionID, decision, outputs)
		o.writeMemory(ctx, caseID, sessionID, req.Query, outputs)
	}

	o.appendTurn(ctx, sessionID, req.Query, resp, decision)

	if len(resp.SideEffects) > 0 {
		o.effects.Dispatch(ctx, resp.SideEffects)
	}

	return resp, nil
}

// Classify is the dry-run surface: the routing decision for a query without
// dispatching anything or recording a turn.
func (o *Orchestrator) Classify(ctx context.Context, req Request) RoutingDecision {
	var history []agent.Turn
	if req.SessionID != "" {
		history = o.loadHistory(ctx, req.SessionID)
	}
	return o.classify(req, history)
}

// History returns the session's turns oldest-first.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]entity.Turn, error) {
	return o.sessions.GetTurns(ctx, sessionID, 0)
}

// Clear removes the session log. Memory entries survive: they belong to the
// case, not the conversation.
func (o *Orchestrator) Clear(ctx context.Context, sessionID string) error {
	return o.sessions.Clear(ctx, sessionID)
}

// Config exposes the routing tunables for the inspection endpoint.
func (o *Orchestrator) Config() *config.OrchestratorConfig {
	return o.conf
}

func (o *Orchestrator) classify(req Request, history []agent.Turn) RoutingDecision {
	// An explicit agent pin skips scoring entirely.
	if req.AgentType != "" {
		for _, t := range agent.Priority {
			if string(t) == req.AgentType {
				return RoutingDecision{
					Primary:   t,
					Scores:    map[agent.Type]float64{t: o.conf.ActivationThreshold},
					Rationale: "agent pinned by caller",
				}
			}
		}
	}

	return o.classifier.Classify(req.Query, history)
}

func (o *Orchestrator) loadHistory(ctx context.Context, sessionID string) []agent.Turn {
	turns, err := o.sessions.GetTurns(ctx, sessionID, 0)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			o.logger.Warn("failed to load session history", mylog.Err(err))
		}
		return nil
	}
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}

	history := make([]agent.Turn, 0, len(turns))
	for _, turn := range turns {
		resp := turn.Response.Data()
		routing := turn.Routing.Data()
		history = append(history, agent.Turn{
			Query:   turn.Query,
			Primary: agent.Type(routing.Primary),
			Summary: resp.Summary,
		})
	}
	return history
}

func (o *Orchestrator) assembleMatter(ctx context.Context, caseID string, req Request) *entity.MatterContext {
	var entries []*memory.Entry
	if caseID != "" {
		var err error
		entries, err = o.memory.List(ctx, caseID)
		if err != nil {
			o.logger.Warn("failed to load case memory", slog.String("case_id", caseID), mylog.Err(err))
		}
	}

	matter, err := memory.AssembleMatterContext(req.Matter, entries)
	if err != nil {
		o.logger.Warn("invalid matter context, proceeding without it", mylog.Err(err))
		matter = &entity.MatterContext{}
	}
	if matter.CaseID == "" {
		matter.CaseID = caseID
	}
	if req.Jurisdiction != "" {
		matter.Jurisdiction = req.Jurisdiction
	}

	return matter
}

// writeMemory persists each agent's summary keyed by (case, session, agent,
// query hash): re-running the same query overwrites rather than duplicates.
func (o *Orchestrator) writeMemory(ctx context.Context, caseID, sessionID, query string, outputs []*agent.Output) {
	for _, out := range outputs {
		entry := &memory.Entry{
			CaseID:     caseID,
			SessionID:  sessionID,
			AgentType:  string(out.AgentType),
			Key:        "note:" + hashQuery(query),
			Value:      out.Summary,
			Tags:       []string{"turn-summary"},
			Confidence: out.Confidence,
		}
		if err := o.memory.Write(ctx, entry); err != nil {
			o.logger.Warn("memory write failed on all backends",
				slog.String("agent", string(out.AgentType)), mylog.Err(err))
		}
	}
}

func (o *Orchestrator) appendTurn(ctx context.Context, sessionID, query string, resp *Response, decision RoutingDecision) {
	agents := make([]string, 0, len(resp.Agents))
	for _, t := range resp.Agents {
		agents = append(agents, string(t))
	}

	scores := make(map[string]float64, len(decision.Scores))
	for t, s := range decision.Scores {
		scores[string(t)] = s
	}

	if _, err := o.sessions.AppendTurn(ctx, sessionID, query,
		entity.TurnResponse{
			Summary:    resp.Summary,
			Agents:     agents,
			Confidence: resp.Confidence,
			Disclaimer: resp.Disclaimer,
		},
		entity.TurnRouting{
			Primary:   string(decision.Primary),
			CoAgent:   string(decision.CoAgent),
			Scores:    scores,
			Rationale: decision.Rationale,
		},
	); err != nil {
		o.logger.Warn("failed to append turn", slog.String("session_id", sessionID), mylog.Err(err))
	}
}

func (o *Orchestrator) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o.tracer == nil {
		return noop.NewTracerProvider().Tracer("counsel").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func caseIDOf(req Request) string {
	if req.Matter == nil {
		return ""
	}
	if v, ok := req.Matter["case_id"].(string); ok {
		return v
	}
	return ""
}

func hashQuery(query string) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%x", h.Sum64())
}
