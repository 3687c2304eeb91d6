package memory_test

import (
	"strings"
	"testing"

	"github.com/lawyrs/counsel/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleMatterContextCoercesLooseTypes(t *testing.T) {
	matter, err := memory.AssembleMatterContext(map[string]any{
		"case_id":         "case-42",
		"case_type":       "personal injury",
		"jurisdiction":    "kansas",
		"client_name":     "Jane Roe",
		"estimated_value": "125000", // string from a loose JSON producer
		"incident_date":   "2025-03-01T00:00:00Z",
		"unknown_field":   "ignored",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "case-42", matter.CaseID)
	assert.Equal(t, "personal injury", matter.CaseType)
	assert.InDelta(t, 125000.0, matter.EstimatedValue, 1e-9)
	require.NotNil(t, matter.IncidentDate)
	assert.Equal(t, 2025, matter.IncidentDate.Year())
	assert.True(t, matter.Complete())
}

func TestAssembleMatterContextEmptyInput(t *testing.T) {
	matter, err := memory.AssembleMatterContext(nil, nil)
	require.NoError(t, err)
	assert.False(t, matter.Complete())
}

func TestAssembleMatterContextFoldsAgentNotes(t *testing.T) {
	entries := []*memory.Entry{
		{AgentType: "researcher", Value: "SOL is two years"},
		{AgentType: "researcher", Value: "comparative fault applies"},
		{AgentType: "analyst", Value: "composite risk 7.1"},
		{AgentType: "strategist", Value: "aim for early settlement"},
	}

	matter, err := memory.AssembleMatterContext(map[string]any{"case_type": "negligence"}, entries)
	require.NoError(t, err)

	assert.Contains(t, matter.ResearchNotes, "SOL is two years")
	assert.Contains(t, matter.ResearchNotes, "comparative fault applies")
	assert.Contains(t, matter.RiskNotes, "composite risk 7.1")
	assert.Contains(t, matter.StrategyNotes, "early settlement")
	assert.Empty(t, matter.DraftNotes)
}

func TestAssembleMatterContextTruncatesLongNotes(t *testing.T) {
	long := strings.Repeat("limitations analysis repeated. ", 100)
	matter, err := memory.AssembleMatterContext(nil, []*memory.Entry{
		{AgentType: "researcher", Value: long},
		{AgentType: "researcher", Value: "most recent note"},
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(matter.ResearchNotes), 810)
	assert.Contains(t, matter.ResearchNotes, "most recent note", "truncation keeps the tail")
}
