package orchestrator_test

import (
	"path/filepath"
	"testing"

	"github.com/lawyrs/counsel/agent"
	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/errors"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/internal/mytesting"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/memory"
	"github.com/lawyrs/counsel/orchestrator"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/session"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/stretchr/testify/suite"
)

type OrchestratorTestSuite struct {
	mytesting.Suite

	orc *orchestrator.Orchestrator
}

func (s *OrchestratorTestSuite) newOrchestrator(conf *config.OrchestratorConfig) *orchestrator.Orchestrator {
	logger := mylog.NewLogger("error", "json")

	base, err := knowledge.Load()
	s.Require().NoError(err)

	agents, err := agent.NewRegistry(logger, provider.Unavailable(), base, conf)
	s.Require().NoError(err)

	mem := memory.NewServiceWithStores(logger, nil, nil,
		memory.NewInMemoryStore(), memory.NewInMemoryStore())

	sessions, err := session.NewManager(logger, filepath.Join(s.T().TempDir(), "sessions.db"))
	s.Require().NoError(err)

	orc, err := orchestrator.New(logger, conf, agents, mem, sessions,
		sideeffect.NewLogDispatcher(logger), nil)
	s.Require().NoError(err)
	return orc
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.Suite.SetupTest()
	s.orc = s.newOrchestrator(nil)
}

func (s *OrchestratorTestSuite) TestSubmitRejectsEmptyQuery() {
	_, err := s.orc.Submit(s.Context, orchestrator.Request{Query: "   "})
	s.Require().ErrorIs(err, errors.ErrInvalidParams)
}

func (s *OrchestratorTestSuite) TestSubmitResearchQuery() {
	resp, err := s.orc.Submit(s.Context, orchestrator.Request{
		SessionID:    "sess-research",
		Query:        "What is the statute of limitations for my negligence claim under K.S.A. 60-513?",
		Jurisdiction: "kansas",
		Matter:       map[string]any{"case_id": "case-1", "case_type": "personal injury"},
	})
	s.Require().NoError(err)

	s.Equal(agent.TypeResearcher, resp.Routing.Primary)
	s.NotEmpty(resp.Summary)
	s.Contains(resp.Summary, "[researcher]")
	s.Equal(orchestrator.Disclaimer, resp.Disclaimer)
	s.Greater(resp.Confidence, 0.0)

	// The turn is durably recorded.
	turns, err := s.orc.History(s.Context, "sess-research")
	s.Require().NoError(err)
	s.Require().Len(turns, 1)
	s.Equal("researcher", turns[0].Routing.Data().Primary)
}

func (s *OrchestratorTestSuite) TestSubmitClarifiesAmbiguousQuery() {
	resp, err := s.orc.Submit(s.Context, orchestrator.Request{
		SessionID: "sess-vague",
		Query:     "hello there, how are you",
	})
	s.Require().NoError(err)

	s.True(resp.NeedsClarification)
	s.True(resp.Routing.Clarify)
	s.Empty(resp.Agents)
	s.LessOrEqual(resp.Confidence, 0.3)
	s.NotEmpty(resp.Summary)
	s.Equal(orchestrator.Disclaimer, resp.Disclaimer)

	// Clarifications are part of the conversation record too.
	turns, err := s.orc.History(s.Context, "sess-vague")
	s.Require().NoError(err)
	s.Len(turns, 1)
}

func (s *OrchestratorTestSuite) TestCoRoutedDraftAndStrategy() {
	conf := config.NewOrchestratorConfig()
	conf.CoRouteCloseness = 0.6
	orc := s.newOrchestrator(conf)

	resp, err := orc.Submit(s.Context, orchestrator.Request{
		SessionID:    "sess-coroute",
		Query:        "Draft a demand letter and assess settlement value",
		Jurisdiction: "kansas",
		Matter: map[string]any{
			"case_id":         "case-7",
			"case_type":       "personal injury",
			"estimated_value": 100000,
		},
	})
	s.Require().NoError(err)

	s.Equal(agent.TypeDrafter, resp.Routing.Primary)
	s.Equal(agent.TypeStrategist, resp.Routing.CoAgent)
	s.Require().Len(resp.Agents, 2)

	s.Contains(resp.Summary, "[drafter]")
	s.Contains(resp.Summary, "[strategist]")

	var kinds []sideeffect.Kind
	for _, se := range resp.SideEffects {
		kinds = append(kinds, se.Kind)
	}
	s.Contains(kinds, sideeffect.KindCreateDocument)
	s.Contains(kinds, sideeffect.KindCreateTask)
	s.Contains(kinds, sideeffect.KindCreateCalendarEvent)

	// Citations from both agents are deduplicated by identity.
	seen := map[string]bool{}
	for _, c := range resp.Citations {
		key := c.Source + "|" + c.Locator
		s.False(seen[key], "duplicate citation %s", key)
		seen[key] = true
	}
}

func (s *OrchestratorTestSuite) TestAgentPinSkipsScoring() {
	resp, err := s.orc.Submit(s.Context, orchestrator.Request{
		SessionID: "sess-pin",
		Query:     "hello there",
		AgentType: "strategist",
	})
	s.Require().NoError(err)

	s.Equal(agent.TypeStrategist, resp.Routing.Primary)
	s.False(resp.Routing.Clarify)
	s.Contains(resp.Routing.Rationale, "pinned")
}

func (s *OrchestratorTestSuite) TestHistoryOrderAcrossTurns() {
	for _, q := range []string{
		"research the statute of limitations",
		"draft a demand letter",
	} {
		_, err := s.orc.Submit(s.Context, orchestrator.Request{SessionID: "sess-multi", Query: q})
		s.Require().NoError(err)
	}

	turns, err := s.orc.History(s.Context, "sess-multi")
	s.Require().NoError(err)
	s.Require().Len(turns, 2)
	s.Equal("research the statute of limitations", turns[0].Query)
	s.Equal("draft a demand letter", turns[1].Query)
}

func (s *OrchestratorTestSuite) TestClearSession() {
	_, err := s.orc.Submit(s.Context, orchestrator.Request{
		SessionID: "sess-clear",
		Query:     "research the statute of limitations",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.orc.Clear(s.Context, "sess-clear"))

	_, err = s.orc.History(s.Context, "sess-clear")
	s.Require().ErrorIs(err, errors.ErrNotFound)
}

func TestOrchestrator(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
