package orchestrator

import (
	"fmt"
	"strings"

	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/samber/lo"
)

// Disclaimer closes every response, including clarifications. Removing it is
// not configurable.
const Disclaimer = "This output was generated with automated assistance and is not legal advice. A licensed attorney must review all analysis, drafts, and deadlines before any client or court use."

// Response is the unified answer for one turn.
type Response struct {
	SessionID          string               `json:"session_id"`
	Summary            string               `json:"summary"`
	Analysis           string               `json:"analysis,omitempty"`
	Agents             []agent.Type         `json:"agents"`
	Recommendations    []string             `json:"recommendations,omitempty"`
	Citations          []agent.Citation     `json:"citations,omitempty"`
	RiskFlags          []agent.RiskFlag     `json:"risk_flags,omitempty"`
	SideEffects        []sideeffect.Request `json:"side_effects,omitempty"`
	Confidence         float64              `json:"confidence"`
	TokensUsed         int                  `json:"tokens_used,omitempty"`
	Disclaimer         string               `json:"disclaimer"`
	NeedsClarification bool                 `json:"needs_clarification,omitempty"`
	Routing            RoutingDecision      `json:"routing"`
}

// merge combines one or two agent outputs: attributed summaries, first-seen
// recommendation order, citations and risk flags deduplicated by identity,
// side effects unioned. The summary is never empty.
func merge(sessionID string, decision RoutingDecision, outputs []*agent.Output) *Response {
	resp := &Response{
		SessionID:  sessionID,
		Disclaimer: Disclaimer,
		Routing:    decision,
	}

	var summaries, analyses []string
	var confidence float64
	for _, out := range outputs {
		resp.Agents = append(resp.Agents, out.AgentType)
		if out.Summary != "" {
			summaries = append(summaries, fmt.Sprintf("[%s] %s", out.AgentType, out.Summary))
		}
		if out.Analysis != "" {
			analyses = append(analyses, fmt.Sprintf("## %s\n\n%s", out.AgentType, out.Analysis))
		}
		resp.Recommendations = append(resp.Recommendations, out.Recommendations...)
		resp.Citations = append(resp.Citations, out.Citations...)
		resp.RiskFlags = append(resp.RiskFlags, out.RiskFlags...)
		resp.SideEffects = append(resp.SideEffects, out.SideEffects...)
		confidence += out.Confidence
		resp.TokensUsed += out.TokensUsed
	}

	resp.Summary = strings.Join(summaries, "\n\n")
	if resp.Summary == "" {
		resp.Summary = "No substantive output was produced for this query."
	}
	resp.Analysis = strings.Join(analyses, "\n\n")

	resp.Recommendations = lo.Uniq(resp.Recommendations)
	resp.Citations = agent.DedupCitations(resp.Citations)
	resp.RiskFlags = agent.DedupRiskFlags(resp.RiskFlags)

	if len(outputs) > 0 {
		resp.Confidence = confidence / float64(len(outputs))
	}

	return resp
}

// clarification is the below-threshold answer: no agents ran, low confidence,
// an explicit ask for more signal.
func clarification(sessionID string, decision RoutingDecision) *Response {
	return &Response{
		SessionID: sessionID,
		Summary: "I could not confidently route this request. Could you say more about what you need: " +
			"legal research, a document draft, a risk assessment, or case strategy?",
		Confidence:         0.2,
		Disclaimer:         Disclaimer,
		NeedsClarification: true,
		Routing:            decision,
	}
}
