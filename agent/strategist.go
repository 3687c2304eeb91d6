package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/mokiat/gog"
)

// Strategist lays out settlement scenarios and a procedural timeline built
// from the jurisdiction's milestone table. Each milestone becomes a calendar
// event request so the case-management system can track the schedule.
type Strategist struct {
	logger *mylog.Logger
	client provider.Client
	base   knowledge.Base
}

var _ Agent = (*Strategist)(nil)

func NewStrategist(logger *mylog.Logger, client provider.Client, base knowledge.Base) *Strategist {
	return &Strategist{logger: logger, client: client, base: base}
}

func (s *Strategist) Type() Type {
	return TypeStrategist
}

func (s *Strategist) Run(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := s.Fallback(in)

	jurisdiction := jurisdictionOf(s.base, in)
	prompt := fmt.Sprintf("Develop case strategy under %s law:\n\n%s\n%s\n\nLay out settlement posture, negotiation leverage, a litigation timeline with procedural milestones, and decision points with value trade-offs.",
		s.base.Display(jurisdiction), in.Query, matterSummary(in.Matter))
	enrich(ctx, s.logger, s.client, out, systemPrompt(s.base, jurisdiction), prompt)

	out.Normalize()
	return out, nil
}

// scenario is one settlement posture with a value range derived from the
// matter's estimated value.
type scenario struct {
	name string
	low  float64
	high float64
	note string
}

func (s *Strategist) Fallback(in Input) *Output {
	jurisdiction := jurisdictionOf(s.base, in)

	out := &Output{
		AgentType:  TypeStrategist,
		Confidence: 0.87,
	}

	scenarios := s.scenarios(in)
	var lines []string
	for _, sc := range scenarios {
		if sc.low > 0 {
			lines = append(lines, fmt.Sprintf("%s: $%.0f-$%.0f (%s)", sc.name, sc.low, sc.high, sc.note))
		} else {
			lines = append(lines, fmt.Sprintf("%s: value range pending damages estimate (%s)", sc.name, sc.note))
		}
	}

	milestones := s.base.Milestones(jurisdiction)
	now := time.Now()
	caseID := ""
	if in.Matter != nil {
		caseID = in.Matter.CaseID
	}

	var timeline []string
	for _, m := range milestones {
		due := now.AddDate(0, 0, m.OffsetDays)
		timeline = append(timeline, fmt.Sprintf("%s (~%s)", m.Name, due.Format("Jan 2, 2006")))
		out.SideEffects = append(out.SideEffects, withAgent(TypeStrategist,
			sideeffect.NewCalendarEvent(caseID, m.Name, m.Note, due)))
	}

	out.Summary = fmt.Sprintf("Strategy under %s law. Settlement scenarios: %s. Timeline: %s.",
		s.base.Display(jurisdiction), strings.Join(lines, "; "), strings.Join(timeline, "; "))

	out.SideEffects = append(out.SideEffects, withAgent(TypeStrategist, sideeffect.NewTask(caseID,
		"Client strategy conference",
		"Walk the client through settlement scenarios and the litigation timeline.",
		gog.PtrOf(now.Add(reviewTaskLead)))))

	if cf, ok := s.base.Fact(jurisdiction, knowledge.TopicComparativeFault); ok {
		out.Citations = append(out.Citations, Citation{Source: cf.Statute, Locator: cf.URL, Confidence: cf.Confidence})
	}

	out.Recommendations = []string{
		"Open settlement dialogue before filing to preserve the early-resolution discount",
		"Revisit scenario values after written discovery closes",
	}

	if !in.Matter.Complete() {
		out.degradeForMissingContext()
	}

	out.Normalize()
	return out
}

// scenarios derives the three standard postures. Multipliers reflect the
// usual trade: early certainty discounts value, trial risk widens the range.
func (s *Strategist) scenarios(in Input) []scenario {
	var value float64
	if in.Matter != nil {
		value = in.Matter.EstimatedValue
	}

	return []scenario{
		{"early settlement", value * 0.50, value * 0.65, "pre-suit resolution, lowest cost and fastest recovery"},
		{"post-discovery settlement", value * 0.70, value * 0.85, "leverage from developed record, higher fees incurred"},
		{"trial", value * 0.60, value * 1.30, "widest range; verdict risk cuts both ways"},
	}
}
