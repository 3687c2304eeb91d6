package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/provider"
)

// Researcher answers statute and case-law questions from the embedded
// knowledge tables. Whenever the query carries personal-injury or negligence
// vocabulary it attaches the jurisdiction's statute-of-limitations fact and
// comparative-fault rule fact regardless of whether they were asked for; this
// auto-injection is the system's jurisdiction-correctness guarantee.
type Researcher struct {
	logger *mylog.Logger
	client provider.Client
	base   knowledge.Base
}

var _ Agent = (*Researcher)(nil)

func NewResearcher(logger *mylog.Logger, client provider.Client, base knowledge.Base) *Researcher {
	return &Researcher{logger: logger, client: client, base: base}
}

func (r *Researcher) Type() Type {
	return TypeResearcher
}

func (r *Researcher) Run(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := r.Fallback(in)

	jurisdiction := jurisdictionOf(r.base, in)
	prompt := fmt.Sprintf("Research the following legal question under %s law:\n\n%s\n\n%s\n\nProvide statutes with pinpoint citations, key case law, limitations analysis, comparative fault implications, and next actions.",
		r.base.Display(jurisdiction), in.Query, matterSummary(in.Matter))
	enrich(ctx, r.logger, r.client, out, systemPrompt(r.base, jurisdiction), prompt)

	out.Normalize()
	return out, nil
}

func (r *Researcher) Fallback(in Input) *Output {
	jurisdiction := jurisdictionOf(r.base, in)
	display := r.base.Display(jurisdiction)

	out := &Output{
		AgentType:  TypeResearcher,
		Confidence: 0.92,
	}

	facts := r.matchFacts(jurisdiction, in.Query)

	if matchesPersonalInjury(in.Query, in.Matter) {
		if sol, ok := r.base.Fact(jurisdiction, knowledge.TopicPersonalInjurySOL); ok {
			facts = append(facts, sol)
			out.RiskFlags = append(out.RiskFlags, RiskFlag{
				Code:     FlagTimeBar,
				Severity: SeverityHigh,
				Note:     fmt.Sprintf("%s: %s", sol.Statute, sol.Title),
			})
		}
		if cf, ok := r.base.Fact(jurisdiction, knowledge.TopicComparativeFault); ok {
			facts = append(facts, cf)
			out.RiskFlags = append(out.RiskFlags, RiskFlag{
				Code:     FlagComparativeFault,
				Severity: SeverityMedium,
				Note:     fmt.Sprintf("%s: %s", cf.Statute, cf.Title),
			})
		}
	}

	if len(facts) == 0 {
		// Nothing matched a topic; fall back to the full jurisdiction table
		// with reduced confidence.
		facts = r.base.Facts(jurisdiction)
		out.Confidence = 0.6
	}

	var lines []string
	for _, f := range facts {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", f.Statute, f.Title, f.Summary))
		out.Citations = append(out.Citations, Citation{
			Source:     f.Statute,
			Locator:    f.URL,
			Confidence: f.Confidence,
		})
	}

	out.Summary = fmt.Sprintf("Research under %s law: %s", display, strings.Join(lines, " "))
	out.Recommendations = []string{
		fmt.Sprintf("Verify citations on %s before filing", r.base.CitationSite(jurisdiction)),
		"Calendar the limitations deadline immediately",
	}

	if !in.Matter.Complete() {
		out.degradeForMissingContext()
	}

	out.Normalize()
	return out
}

// matchFacts maps query vocabulary to knowledge topics for one jurisdiction.
func (r *Researcher) matchFacts(jurisdiction, query string) []knowledge.Fact {
	q := strings.ToLower(query)
	topicVocab := []struct {
		topic string
		vocab []string
	}{
		{knowledge.TopicPersonalInjurySOL, []string{"statute of limitations", "limitation", "sol", "deadline to file", "time to file"}},
		{knowledge.TopicComparativeFault, []string{"comparative fault", "contributory", "percent at fault", "fault allocation"}},
		{knowledge.TopicMedMalSOL, []string{"medical malpractice", "med-mal", "med mal"}},
		{knowledge.TopicPleadingStandard, []string{"pleading", "fact pleading", "notice pleading"}},
		{knowledge.TopicJointLiability, []string{"joint and several", "joint liability"}},
		{knowledge.TopicGovernmentNotice, []string{"government", "tort claims act", "municipality", "presuit notice"}},
		{knowledge.TopicContractSOL, []string{"contract", "breach of contract", "written agreement"}},
		{knowledge.TopicAffidavitOfMerit, []string{"affidavit of merit"}},
	}

	var facts []knowledge.Fact
	for _, tv := range topicVocab {
		for _, kw := range tv.vocab {
			if strings.Contains(q, kw) {
				if f, ok := r.base.Fact(jurisdiction, tv.topic); ok {
					facts = append(facts, f)
				}
				break
			}
		}
	}

	return facts
}
