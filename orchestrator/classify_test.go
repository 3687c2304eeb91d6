package orchestrator_test

import (
	"testing"

	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T) *orchestrator.Classifier {
	t.Helper()

	c, err := orchestrator.NewClassifier(nil)
	require.NoError(t, err)
	return c
}

func TestClassifyResearchQuery(t *testing.T) {
	c := newClassifier(t)

	d := c.Classify("What is the statute of limitations under K.S.A. 60-513?", nil)
	assert.Equal(t, agent.TypeResearcher, d.Primary)
	assert.False(t, d.Clarify)
	assert.Greater(t, d.Scores[agent.TypeResearcher], d.Scores[agent.TypeDrafter])
}

func TestClassifyDraftQuery(t *testing.T) {
	c := newClassifier(t)

	d := c.Classify("Draft a demand letter for my client", nil)
	assert.Equal(t, agent.TypeDrafter, d.Primary)
	assert.Empty(t, d.CoAgent)
}

func TestClassifyJurisdictionBoost(t *testing.T) {
	c := newClassifier(t)

	plain := c.Classify("what does the statute say", nil)
	boosted := c.Classify("what does the statute say, RSMo 516.120", nil)
	assert.Greater(t, boosted.Scores[agent.TypeResearcher], plain.Scores[agent.TypeResearcher],
		"statute-citation tokens add the jurisdiction bonus")
}

func TestClassifyTieBreaksByPriority(t *testing.T) {
	c := newClassifier(t)

	// researcher and analyst tie here; the fixed priority order decides.
	d := c.Classify("research the statute and assess the risk", nil)
	assert.Equal(t, d.Scores[agent.TypeResearcher], d.Scores[agent.TypeAnalyst])
	assert.Equal(t, agent.TypeResearcher, d.Primary)
	assert.Equal(t, agent.TypeAnalyst, d.CoAgent, "a tied runner-up is within any closeness fraction")
}

func TestClassifyClarifiesBelowThreshold(t *testing.T) {
	c := newClassifier(t)

	d := c.Classify("hello there, how are you today", nil)
	assert.True(t, d.Clarify)
	assert.Empty(t, d.CoAgent)
	for _, score := range d.Scores {
		assert.Less(t, score, 3.0)
	}
}

func TestClassifyContinuityBonus(t *testing.T) {
	c := newClassifier(t)

	history := []agent.Turn{{Query: "draft a demand letter", Primary: agent.TypeDrafter}}

	without := c.Classify("is the letter ready", nil)
	with := c.Classify("is the letter ready", history)
	assert.Greater(t, with.Scores[agent.TypeDrafter], without.Scores[agent.TypeDrafter])
	assert.Equal(t, agent.TypeDrafter, with.Primary)
	assert.Contains(t, with.Rationale, "continuity")
}

func TestClassifyCoRouteRespectsCloseness(t *testing.T) {
	conf := config.NewOrchestratorConfig()
	conf.CoRouteCloseness = 0.6

	c, err := orchestrator.NewClassifier(conf)
	require.NoError(t, err)

	d := c.Classify("Draft a demand letter and assess settlement value", nil)
	assert.Equal(t, agent.TypeDrafter, d.Primary)
	assert.Equal(t, agent.TypeStrategist, d.CoAgent,
		"settlement vocabulary puts the strategist within the widened closeness band")
}
