package orchestrator

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
)

//go:embed data/routing.yaml
var routingYAML []byte

type (
	// RoutingDecision is the classifier verdict for one query.
	RoutingDecision struct {
		Primary   agent.Type             `json:"primary"`
		CoAgent   agent.Type             `json:"co_agent,omitempty"`
		Scores    map[agent.Type]float64 `json:"scores"`
		Rationale string                 `json:"rationale"`

		// Clarify is set when no agent clears the activation threshold; the
		// orchestrator answers with a clarification prompt instead of
		// dispatching.
		Clarify bool `json:"clarify,omitempty"`
	}

	phraseRule struct {
		Terms  []string `yaml:"terms"`
		Weight float64  `yaml:"weight"`
	}

	agentSignals struct {
		Keywords []string     `yaml:"keywords"`
		Phrases  []phraseRule `yaml:"phrases"`
	}

	routingTables struct {
		KeywordWeight float64                 `yaml:"keywordWeight"`
		Agents        map[string]agentSignals `yaml:"agents"`
	}

	// Classifier scores queries against the embedded keyword tables. It is
	// deterministic and needs no provider.
	Classifier struct {
		tables routingTables
		conf   *config.OrchestratorConfig
	}
)

func NewClassifier(conf *config.OrchestratorConfig) (*Classifier, error) {
	if conf == nil {
		conf = config.NewOrchestratorConfig()
	}

	var tables routingTables
	if err := yaml.Unmarshal(routingYAML, &tables); err != nil {
		return nil, errors.Wrapf(err, "failed to parse routing tables")
	}
	for _, t := range agent.Priority {
		if _, ok := tables.Agents[string(t)]; !ok {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "routing tables missing agent %q", t)
		}
	}

	return &Classifier{tables: tables, conf: conf}, nil
}

// Classify scores every agent and applies the co-routing and clarification
// rules. Ties resolve by the fixed agent priority order, never map order.
func (c *Classifier) Classify(query string, history []agent.Turn) RoutingDecision {
	q := strings.ToLower(query)

	scores := make(map[agent.Type]float64, len(agent.Priority))
	for _, t := range agent.Priority {
		scores[t] = c.score(q, c.tables.Agents[string(t)])
	}

	// Continuity: reappearing vocabulary from the previous primary's domain
	// keeps the conversation with that agent.
	var continuity agent.Type
	if prev := lastPrimary(history); prev != "" && c.anyKeyword(q, prev) {
		scores[prev] += c.conf.ContinuityBonus
		continuity = prev
	}

	// Rank by score with priority order as the tie-break.
	best, second := agent.Type(""), agent.Type("")
	for _, t := range agent.Priority {
		switch {
		case best == "" || scores[t] > scores[best]:
			second = best
			best = t
		case second == "" || scores[t] > scores[second]:
			second = t
		}
	}

	decision := RoutingDecision{Primary: best, Scores: scores}

	if scores[best] < c.conf.ActivationThreshold {
		decision.Clarify = true
		decision.Rationale = fmt.Sprintf("no agent reached the %.1f activation threshold", c.conf.ActivationThreshold)
		return decision
	}

	decision.Rationale = fmt.Sprintf("%s scored %.1f", best, scores[best])
	if continuity == best {
		decision.Rationale += " (includes continuity bonus)"
	}

	if second != "" &&
		scores[second] >= c.conf.ActivationThreshold &&
		scores[second] >= scores[best]*(1.0-c.conf.CoRouteCloseness) {
		decision.CoAgent = second
		decision.Rationale += fmt.Sprintf("; co-routing %s at %.1f", second, scores[second])
	}

	return decision
}

func (c *Classifier) score(q string, signals agentSignals) float64 {
	var score float64
	for _, kw := range signals.Keywords {
		if strings.Contains(q, kw) {
			score += c.tables.KeywordWeight
		}
	}
	for _, rule := range signals.Phrases {
		for _, term := range rule.Terms {
			if strings.Contains(q, term) {
				score += rule.Weight
				break
			}
		}
	}
	return score
}

func (c *Classifier) anyKeyword(q string, t agent.Type) bool {
	for _, kw := range c.tables.Agents[string(t)].Keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func lastPrimary(history []agent.Turn) agent.Type {
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Primary
}
