package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lawyrs/counsel/config"
	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/mokiat/gog"
)

// Analyst scores case risk on six weighted factors, each on a 1-10 scale.
// The composite is deterministic: the same matter and jurisdiction always
// produce the same score, so repeated analysis of one case is comparable
// over time.
type Analyst struct {
	logger *mylog.Logger
	client provider.Client
	base   knowledge.Base
	conf   *config.OrchestratorConfig
}

var _ Agent = (*Analyst)(nil)

func NewAnalyst(logger *mylog.Logger, client provider.Client, base knowledge.Base, conf *config.OrchestratorConfig) *Analyst {
	return &Analyst{logger: logger, client: client, base: base, conf: conf}
}

func (a *Analyst) Type() Type {
	return TypeAnalyst
}

func (a *Analyst) Run(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := a.Fallback(in)

	jurisdiction := jurisdictionOf(a.base, in)
	prompt := fmt.Sprintf("Assess the risk profile of this matter under %s law:\n\n%s\n%s\n\nCover liability strength, damages exposure, limitations posture, comparative fault exposure, evidentiary gaps, and procedural deadlines. State an overall risk level with reasoning.",
		a.base.Display(jurisdiction), in.Query, matterSummary(in.Matter))
	enrich(ctx, a.logger, a.client, out, systemPrompt(a.base, jurisdiction), prompt)

	out.Normalize()
	return out, nil
}

// riskFactor is one scored dimension of the assessment.
type riskFactor struct {
	name   string
	score  float64
	weight float64
	note   string
}

func (a *Analyst) Fallback(in Input) *Output {
	jurisdiction := jurisdictionOf(a.base, in)

	out := &Output{
		AgentType:  TypeAnalyst,
		Confidence: 0.88,
	}

	factors := a.scoreFactors(jurisdiction, in.Matter)

	var composite float64
	var lines []string
	for _, f := range factors {
		composite += f.weight * f.score
		lines = append(lines, fmt.Sprintf("%s %.1f/10 (%s)", f.name, f.score, f.note))
	}

	level := "moderate"
	switch {
	case composite >= a.conf.HighRiskThreshold:
		level = "high"
	case composite < 4.0:
		level = "low"
	}

	out.Summary = fmt.Sprintf("Risk assessment under %s law: composite %.1f/10 (%s). Factors: %s.",
		a.base.Display(jurisdiction), composite, level, strings.Join(lines, "; "))

	if composite >= a.conf.HighRiskThreshold {
		out.RiskFlags = append(out.RiskFlags, RiskFlag{
			Code:     FlagHighRisk,
			Severity: SeverityHigh,
			Note:     fmt.Sprintf("composite risk %.1f meets the %.1f high-risk threshold", composite, a.conf.HighRiskThreshold),
		})
	}

	for _, f := range factors {
		if f.name == "time-bar" && f.score >= 8 {
			out.RiskFlags = append(out.RiskFlags, RiskFlag{
				Code:     FlagTimeBar,
				Severity: SeverityHigh,
				Note:     f.note,
			})
		}
	}

	if sol, ok := a.base.Fact(jurisdiction, knowledge.TopicPersonalInjurySOL); ok {
		out.Citations = append(out.Citations, Citation{Source: sol.Statute, Locator: sol.URL, Confidence: sol.Confidence})
	}
	if cf, ok := a.base.Fact(jurisdiction, knowledge.TopicComparativeFault); ok {
		out.Citations = append(out.Citations, Citation{Source: cf.Statute, Locator: cf.URL, Confidence: cf.Confidence})
	}

	caseID := ""
	if in.Matter != nil {
		caseID = in.Matter.CaseID
	}
	out.SideEffects = append(out.SideEffects, withAgent(TypeAnalyst, sideeffect.NewTask(caseID,
		"Review risk assessment",
		fmt.Sprintf("Composite risk %.1f/10 (%s); supervising counsel to confirm factor scores.", composite, level),
		gog.PtrOf(time.Now().Add(reviewTaskLead)))))

	out.Recommendations = []string{
		"Confirm the limitations analysis against the incident date in the file",
		"Document fault allocation evidence early; it drives the largest weighted factors",
	}
	if level == "high" {
		out.Recommendations = append(out.Recommendations,
			"Escalate to supervising counsel before advising the client on exposure")
	}

	if !in.Matter.Complete() {
		out.degradeForMissingContext()
	}

	out.Normalize()
	return out
}

// scoreFactors returns the six factors in a fixed order so summaries are
// stable. Every score lands in [1, 10]; unknowns score mid-scale rather than
// favorable.
func (a *Analyst) scoreFactors(jurisdiction string, m *entity.MatterContext) []riskFactor {
	w := a.conf.RiskWeights
	return []riskFactor{
		{"liability", a.liabilityScore(m), w.Liability, a.liabilityNote(m)},
		{"damages", a.damagesScore(m), w.Damages, a.damagesNote(m)},
		a.timeBarFactor(jurisdiction, m),
		a.comparativeFaultFactor(jurisdiction),
		{"evidence", a.evidenceScore(m), w.Evidence, "completeness of the matter record"},
		a.deadlineFactor(m),
	}
}

func (a *Analyst) liabilityScore(m *entity.MatterContext) float64 {
	if m == nil || m.CaseType == "" {
		return 5
	}
	switch ct := strings.ToLower(m.CaseType); {
	case strings.Contains(ct, "malpractice"):
		return 7 // expert-dependent proof
	case strings.Contains(ct, "personal injury"), strings.Contains(ct, "negligence"):
		return 6
	case strings.Contains(ct, "contract"):
		return 4
	default:
		return 5
	}
}

func (a *Analyst) liabilityNote(m *entity.MatterContext) string {
	if m == nil || m.CaseType == "" {
		return "case type unknown"
	}
	return "proof burden for " + strings.ToLower(m.CaseType)
}

func (a *Analyst) damagesScore(m *entity.MatterContext) float64 {
	if m == nil || m.EstimatedValue <= 0 {
		return 5
	}
	switch v := m.EstimatedValue; {
	case v < 25_000:
		return 3
	case v < 100_000:
		return 5
	case v < 500_000:
		return 7
	default:
		return 9
	}
}

func (a *Analyst) damagesNote(m *entity.MatterContext) string {
	if m == nil || m.EstimatedValue <= 0 {
		return "no damages estimate on file"
	}
	return fmt.Sprintf("estimated value $%.0f", m.EstimatedValue)
}

// timeBarFactor scores how much of the limitations period has run. An
// expired or nearly expired period pins the score at the top of the scale.
func (a *Analyst) timeBarFactor(jurisdiction string, m *entity.MatterContext) riskFactor {
	weight := a.conf.RiskWeights.TimeBar
	sol, ok := a.base.Fact(jurisdiction, knowledge.TopicPersonalInjurySOL)
	if m != nil && m.CaseType != "" && strings.Contains(strings.ToLower(m.CaseType), "malpractice") {
		if mm, mmOK := a.base.Fact(jurisdiction, knowledge.TopicMedMalSOL); mmOK {
			sol, ok = mm, true
		}
	}
	if !ok || sol.Years <= 0 || m == nil || m.IncidentDate == nil {
		return riskFactor{"time-bar", 5, weight, "incident date or limitations period unknown"}
	}

	deadline := m.IncidentDate.AddDate(sol.Years, 0, 0)
	remaining := time.Until(deadline)
	switch {
	case remaining <= 0:
		return riskFactor{"time-bar", 10, weight, fmt.Sprintf("%s period appears expired", sol.Statute)}
	case remaining < 90*24*time.Hour:
		return riskFactor{"time-bar", 9, weight, fmt.Sprintf("under 90 days remain on %s", sol.Statute)}
	case remaining < 365*24*time.Hour:
		return riskFactor{"time-bar", 7, weight, fmt.Sprintf("under one year remains on %s", sol.Statute)}
	default:
		return riskFactor{"time-bar", 3, weight, fmt.Sprintf("ample time remains on %s", sol.Statute)}
	}
}

// comparativeFaultFactor scores exposure from the fault regime itself: a
// modified rule with a recovery bar is riskier for a claimant than pure
// comparative fault.
func (a *Analyst) comparativeFaultFactor(jurisdiction string) riskFactor {
	weight := a.conf.RiskWeights.ComparativeFault
	cf, ok := a.base.Fact(jurisdiction, knowledge.TopicComparativeFault)
	if !ok {
		return riskFactor{"comparative-fault", 5, weight, "fault regime unknown"}
	}

	summary := strings.ToLower(cf.Summary + " " + cf.Title)
	if strings.Contains(summary, "barred") || strings.Contains(summary, "modified") {
		return riskFactor{"comparative-fault", 7, weight, cf.Statute + " bars recovery at the fault threshold"}
	}
	return riskFactor{"comparative-fault", 4, weight, cf.Statute + " permits proportional recovery"}
}

func (a *Analyst) evidenceScore(m *entity.MatterContext) float64 {
	if m == nil {
		return 8
	}
	missing := 0
	if m.CaseType == "" {
		missing++
	}
	if m.Jurisdiction == "" {
		missing++
	}
	if m.IncidentDate == nil {
		missing++
	}
	if m.EstimatedValue <= 0 {
		missing++
	}
	if m.ResearchNotes == "" && m.RiskNotes == "" {
		missing++
	}
	return float64(2 + missing*8/5) // 2 when complete, up to 10
}

func (a *Analyst) deadlineFactor(m *entity.MatterContext) riskFactor {
	weight := a.conf.RiskWeights.Deadline
	if m == nil || m.FilingDate == nil {
		return riskFactor{"deadline", 4, weight, "no filing date calendared"}
	}
	switch remaining := time.Until(*m.FilingDate); {
	case remaining <= 0:
		return riskFactor{"deadline", 10, weight, "filing date has passed"}
	case remaining < 14*24*time.Hour:
		return riskFactor{"deadline", 9, weight, "filing due within two weeks"}
	case remaining < 45*24*time.Hour:
		return riskFactor{"deadline", 7, weight, "filing due within 45 days"}
	default:
		return riskFactor{"deadline", 3, weight, "filing date comfortably out"}
	}
}
