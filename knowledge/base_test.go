package knowledge_test

import (
	"testing"

	"github.com/lawyrs/counsel/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	base, err := knowledge.Load()
	require.NoError(t, err)

	assert.Equal(t, "missouri", base.DefaultJurisdiction())
	assert.Equal(t, "Kansas", base.Display("kansas"))
	assert.Equal(t, "Missouri", base.Display("missouri"))
	assert.Equal(t, "Missouri", base.Display(""), "empty jurisdiction should use the default")
}

func TestFactLookup(t *testing.T) {
	base, err := knowledge.Load()
	require.NoError(t, err)

	sol, ok := base.Fact("kansas", knowledge.TopicPersonalInjurySOL)
	require.True(t, ok)
	assert.Equal(t, "K.S.A. 60-513", sol.Statute)
	assert.Equal(t, 2, sol.Years)

	sol, ok = base.Fact("missouri", knowledge.TopicPersonalInjurySOL)
	require.True(t, ok)
	assert.Equal(t, "RSMo § 516.120", sol.Statute)
	assert.Equal(t, 5, sol.Years)

	// Unknown jurisdiction falls back to the default tables rather than
	// answering with nothing.
	sol, ok = base.Fact("federal", knowledge.TopicPersonalInjurySOL)
	require.True(t, ok)
	assert.Equal(t, "RSMo § 516.120", sol.Statute)

	_, ok = base.Fact("kansas", "no_such_topic")
	assert.False(t, ok)
}

func TestComparativeFaultDiffersByJurisdiction(t *testing.T) {
	base, err := knowledge.Load()
	require.NoError(t, err)

	ks, ok := base.Fact("kansas", knowledge.TopicComparativeFault)
	require.True(t, ok)
	assert.Contains(t, ks.Summary, "50%")

	mo, ok := base.Fact("missouri", knowledge.TopicComparativeFault)
	require.True(t, ok)
	assert.Contains(t, mo.Summary, "pure comparative fault")
}

func TestTemplateByTopic(t *testing.T) {
	base, err := knowledge.Load()
	require.NoError(t, err)

	tmpl, ok := base.TemplateByTopic("draft a demand letter for settlement")
	require.True(t, ok)
	assert.Equal(t, "demand_letter", tmpl.Type)
	assert.False(t, tmpl.RequiresFiling)

	tmpl, ok = base.TemplateByTopic("prepare a petition to file the lawsuit")
	require.True(t, ok)
	assert.Equal(t, "petition", tmpl.Type)
	assert.True(t, tmpl.RequiresFiling)

	_, ok = base.TemplateByTopic("what is the weather")
	assert.False(t, ok)
}

func TestClausesAndMilestones(t *testing.T) {
	base, err := knowledge.Load()
	require.NoError(t, err)

	assert.Contains(t, base.Clause("kansas", "limitations"), "60-513")
	assert.Contains(t, base.Clause("missouri", "limitations"), "516.120")

	milestones := base.Milestones("kansas")
	require.NotEmpty(t, milestones)
	assert.Equal(t, "Demand letter served", milestones[0].Name)
	for i := 1; i < len(milestones); i++ {
		assert.GreaterOrEqual(t, milestones[i].OffsetDays, milestones[i-1].OffsetDays,
			"milestones should be in chronological order")
	}
}
