package config

import "time"

// OrchestratorConfig carries the routing tunables. The closeness fraction and
// risk weights come from the source system; they are configuration, not
// contract.
type OrchestratorConfig struct {
	// ActivationThreshold is the minimum classifier score an agent must reach
	// to be dispatched at all. Below it for every agent, the orchestrator asks
	// for clarification instead of guessing.
	ActivationThreshold float64 `json:"activationThreshold"`

	// CoRouteCloseness co-routes a second agent when its score is within this
	// fraction of the best score.
	CoRouteCloseness float64 `json:"coRouteCloseness"`

	// ContinuityBonus is added when the previous turn's primary agent's domain
	// keywords reappear in the query.
	ContinuityBonus float64 `json:"continuityBonus"`

	// AgentTimeout bounds each agent call; on expiry the agent's deterministic
	// template output is used instead.
	AgentTimeout time.Duration `json:"agentTimeout"`

	// RiskWeights are the Analyst factor weights; they must sum to 1.
	RiskWeights RiskWeights `json:"riskWeights"`

	// HighRiskThreshold is the composite score (0-10) at or above which the
	// Analyst emits a high-severity risk flag.
	HighRiskThreshold float64 `json:"highRiskThreshold"`
}

type RiskWeights struct {
	Liability        float64 `json:"liability"`
	Damages          float64 `json:"damages"`
	TimeBar          float64 `json:"timeBar"`
	ComparativeFault float64 `json:"comparativeFault"`
	Evidence         float64 `json:"evidence"`
	Deadline         float64 `json:"deadline"`
}

func (w RiskWeights) Sum() float64 {
	return w.Liability + w.Damages + w.TimeBar + w.ComparativeFault + w.Evidence + w.Deadline
}

func NewOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		ActivationThreshold: 3.0,
		CoRouteCloseness:    0.15,
		ContinuityBonus:     2.0,
		AgentTimeout:        getEnvDuration("COUNSEL_AGENT_TIMEOUT", 9*time.Second),
		RiskWeights: RiskWeights{
			Liability:        0.25,
			Damages:          0.20,
			TimeBar:          0.20,
			ComparativeFault: 0.15,
			Evidence:         0.10,
			Deadline:         0.10,
		},
		HighRiskThreshold: 6.5,
	}
}
