package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/internal/mylog"
)

// dispatch runs the routed agents concurrently over the shared read-only
// input. Each agent gets its own timeout; on expiry or error the agent's
// deterministic fallback output is used, so dispatch always yields one output
// per routed agent. Outputs come back in routing order (primary first).
func (o *Orchestrator) dispatch(ctx context.Context, decision RoutingDecision, in agent.Input) []*agent.Output {
	types := []agent.Type{decision.Primary}
	if decision.CoAgent != "" {
		types = append(types, decision.CoAgent)
	}

	outputs := make([]*agent.Output, len(types))
	var wg sync.WaitGroup
	for i, t := range types {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outputs[i] = o.runAgent(ctx, o.agents[t], in)
		}()
	}
	wg.Wait()

	return outputs
}

func (o *Orchestrator) runAgent(ctx context.Context, a agent.Agent, in agent.Input) *agent.Output {
	agentCtx, cancel := context.WithTimeout(ctx, o.conf.AgentTimeout)
	defer cancel()

	started := time.Now()
	out, err := a.Run(agentCtx, in)
	if err != nil {
		o.logger.Warn("agent run aborted, using fallback",
			slog.String("agent", string(a.Type())),
			slog.Duration("elapsed", time.Since(started)),
			mylog.Err(err))
		return a.Fallback(in)
	}

	o.logger.Debug("agent completed",
		slog.String("agent", string(a.Type())),
		slog.Duration("elapsed", time.Since(started)),
		slog.Float64("confidence", out.Confidence))
	return out
}
