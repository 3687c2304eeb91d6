package agent

import (
	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/samber/lo"
)

type (
	Type string

	Severity string

	// Input is immutable per invocation. MatterContext is shared read-only
	// between co-routed agents; agents must not mutate it.
	Input struct {
		Query     string                `json:"query"`
		SessionID string                `json:"session_id"`
		Matter    *entity.MatterContext `json:"matter,omitempty"`
		History   []Turn                `json:"history,omitempty"`
	}

	// Turn is a prior exchange, used for routing continuity.
	Turn struct {
		Query   string `json:"query"`
		Primary Type   `json:"primary"`
		Summary string `json:"summary"`
	}

	Citation struct {
		Source     string  `json:"source" jsonschema:"required"`
		Locator    string  `json:"locator" jsonschema:"required"`
		Confidence float64 `json:"confidence"`
	}

	RiskFlag struct {
		Code     string   `json:"code"`
		Severity Severity `json:"severity"`
		Note     string   `json:"note"`
	}

	Output struct {
		AgentType       Type                 `json:"agent_type"`
		Summary         string               `json:"summary"`
		Analysis        string               `json:"analysis,omitempty"`
		Recommendations []string             `json:"recommendations,omitempty"`
		Citations       []Citation           `json:"citations,omitempty"`
		RiskFlags       []RiskFlag           `json:"risk_flags,omitempty"`
		SideEffects     []sideeffect.Request `json:"side_effects,omitempty"`
		Confidence      float64              `json:"confidence"`
		TokensUsed      int                  `json:"tokens_used"`
	}
)

const (
	TypeResearcher Type = "researcher"
	TypeDrafter    Type = "drafter"
	TypeAnalyst    Type = "analyst"
	TypeStrategist Type = "strategist"

	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Risk flag codes shared across agents.
const (
	FlagInsufficientContext = "insufficient_context"
	FlagComparativeFault    = "comparative_fault"
	FlagTimeBar             = "time_bar"
	FlagHighRisk            = "high_risk"
)

func (c Citation) identity() string {
	return c.Source + "\x00" + c.Locator
}

func (f RiskFlag) identity() string {
	return f.Code + "\x00" + string(f.Severity)
}

// DedupCitations keeps the first citation per (source, locator) pair,
// preserving order.
func DedupCitations(citations []Citation) []Citation {
	return lo.UniqBy(citations, Citation.identity)
}

// DedupRiskFlags keeps the first flag per (code, severity) pair.
func DedupRiskFlags(flags []RiskFlag) []RiskFlag {
	return lo.UniqBy(flags, RiskFlag.identity)
}

// Normalize enforces the output invariants: confidence clamped to [0,1] and
// citations deduplicated by identity.
func (o *Output) Normalize() {
	if o.Confidence < 0 {
		o.Confidence = 0
	} else if o.Confidence > 1 {
		o.Confidence = 1
	}
	o.Citations = DedupCitations(o.Citations)
	o.RiskFlags = DedupRiskFlags(o.RiskFlags)
}

// degradeForMissingContext lowers confidence and records the gap instead of
// failing; absent matter fields are never an error.
func (o *Output) degradeForMissingContext() {
	o.Confidence -= 0.2
	if o.Confidence < 0.1 {
		o.Confidence = 0.1
	}
	o.RiskFlags = append(o.RiskFlags, RiskFlag{
		Code:     FlagInsufficientContext,
		Severity: SeverityMedium,
		Note:     "matter context is missing case type or jurisdiction; conclusions are provisional",
	})
}
