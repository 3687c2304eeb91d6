// Package agent implements the four specialist agents. Agents are pure with
// respect to their input: they never mutate the shared matter context and
// never fail for business-logic reasons; deficiencies surface as
// low-confidence output with an explanatory risk flag.
package agent

import (
	"context"
	"log/slog"

	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/provider"
)

type (
	Agent interface {
		Type() Type

		// Run produces the agent's output, optionally enriched by the
		// completion provider. Provider failure is recovered internally by
		// the deterministic template path; Run errors only on context
		// cancellation.
		Run(ctx context.Context, in Input) (*Output, error)

		// Fallback is the deterministic template path, used directly by the
		// orchestrator when Run exceeds its timeout.
		Fallback(in Input) *Output
	}

	Registry map[Type]Agent
)

// Priority is the fixed tie-break order for routing: when classifier scores
// tie, the earlier agent in this list wins. This ordering is part of the
// routing contract, not an accident of map iteration.
var Priority = []Type{TypeResearcher, TypeDrafter, TypeAnalyst, TypeStrategist}

// NewRegistry constructs all four specialists. An empty registry is a startup
// error; per-request conditions never are.
func NewRegistry(logger *mylog.Logger, client provider.Client, base knowledge.Base, conf *config.OrchestratorConfig) (Registry, error) {
	if base == nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "knowledge base is required")
	}
	if client == nil {
		client = provider.Unavailable()
	}
	if conf == nil {
		conf = config.NewOrchestratorConfig()
	}
	if s := conf.RiskWeights.Sum(); s < 0.999 || s > 1.001 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "risk weights sum to %.3f, want 1", s)
	}

	reg := Registry{
		TypeResearcher: NewResearcher(logger, client, base),
		TypeDrafter:    NewDrafter(logger, client, base),
		TypeAnalyst:    NewAnalyst(logger, client, base, conf),
		TypeStrategist: NewStrategist(logger, client, base),
	}
	for _, t := range Priority {
		if reg[t] == nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "agent %s not registered", t)
		}
	}

	return reg, nil
}

// enrich asks the provider to expand the template analysis. Any provider
// failure leaves the deterministic output untouched.
func enrich(ctx context.Context, logger *mylog.Logger, client provider.Client, out *Output, system, prompt string) {
	comp, err := client.Complete(ctx, provider.CompleteRequest{System: system, Prompt: prompt})
	if err != nil {
		logger.Debug("provider unavailable, using template output",
			slog.String("agent", string(out.AgentType)), mylog.Err(err))
		return
	}

	out.Analysis = comp.Text
	out.TokensUsed = comp.TokensUsed
}
