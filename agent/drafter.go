package agent

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/internal/mylog"
	"github.com/lawyrs/counsel/knowledge"
	"github.com/lawyrs/counsel/provider"
	"github.com/lawyrs/counsel/sideeffect"
	"github.com/mokiat/gog"
)

// Drafter produces documents from the fixed template set, filling
// jurisdiction-specific clause blocks. Every draft requests a document record
// and a review task; templates that imply a court filing also request a
// deadline task.
type Drafter struct {
	logger *mylog.Logger
	client provider.Client
	base   knowledge.Base
}

var _ Agent = (*Drafter)(nil)

const reviewTaskLead = 3 * 24 * time.Hour

func NewDrafter(logger *mylog.Logger, client provider.Client, base knowledge.Base) *Drafter {
	return &Drafter{logger: logger, client: client, base: base}
}

func (d *Drafter) Type() Type {
	return TypeDrafter
}

func (d *Drafter) Run(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := d.Fallback(in)

	jurisdiction := jurisdictionOf(d.base, in)
	prompt := fmt.Sprintf("Draft the requested document under %s law.\n\nInstructions: %s\n%s\n\nInclude proper caption, all substantive sections, jurisdiction-specific requirements, a certificate of service, and citation footnotes.",
		d.base.Display(jurisdiction), in.Query, matterSummary(in.Matter))
	enrich(ctx, d.logger, d.client, out, systemPrompt(d.base, jurisdiction), prompt)

	out.Normalize()
	return out, nil
}

func (d *Drafter) Fallback(in Input) *Output {
	jurisdiction := jurisdictionOf(d.base, in)

	out := &Output{
		AgentType:  TypeDrafter,
		Confidence: 0.85,
	}

	tmpl, ok := d.base.TemplateByTopic(in.Query)
	if !ok {
		// No topic match: a demand letter is the most common request.
		tmpl, _ = d.base.Template("demand_letter")
	}

	body := d.render(tmpl, jurisdiction, in)
	caseID := ""
	if in.Matter != nil {
		caseID = in.Matter.CaseID
	}

	out.Summary = fmt.Sprintf("Drafted %s under %s law; document and review task requested.",
		strings.ToLower(tmpl.Title), d.base.Display(jurisdiction))
	out.SideEffects = append(out.SideEffects,
		withAgent(TypeDrafter, sideeffect.NewDocument(caseID, tmpl.Type, tmpl.Title, body)),
		withAgent(TypeDrafter, sideeffect.NewTask(caseID,
			fmt.Sprintf("Review draft: %s", tmpl.Title),
			"Attorney review required before the draft leaves the office.",
			gog.PtrOf(time.Now().Add(reviewTaskLead)))),
	)

	if tmpl.RequiresFiling {
		due := d.filingDeadline(in.Matter)
		out.SideEffects = append(out.SideEffects, withAgent(TypeDrafter, sideeffect.NewTask(caseID,
			fmt.Sprintf("Filing deadline: %s", tmpl.Title),
			"Template implies a court filing; confirm the deadline against the limitations analysis.",
			&due)))
	}

	if sol, ok := d.base.Fact(jurisdiction, knowledge.TopicPersonalInjurySOL); ok {
		out.Citations = append(out.Citations, Citation{
			Source:     sol.Statute,
			Locator:    sol.URL,
			Confidence: sol.Confidence,
		})
	}

	out.Recommendations = []string{
		"Have supervising counsel review all bracketed fields",
		"Confirm caption and formatting against local rules before service",
	}

	if !in.Matter.Complete() {
		out.degradeForMissingContext()
	}

	out.Normalize()
	return out
}

func (d *Drafter) render(tmpl knowledge.DocumentTemplate, jurisdiction string, in Input) string {
	t, err := template.New(tmpl.Type).Funcs(sprig.FuncMap()).Parse(tmpl.Body)
	if err != nil {
		d.logger.Warn("document template failed to parse", mylog.Err(err))
		return tmpl.Title + "\n\n" + in.Query
	}

	matter := in.Matter
	if matter == nil {
		matter = &entity.MatterContext{}
	}

	data := map[string]any{
		"Matter":              matter,
		"JurisdictionDisplay": d.base.Display(jurisdiction),
		"Instructions":        in.Query,
		"Clauses": map[string]string{
			"comparative_fault": d.base.Clause(jurisdiction, "comparative_fault"),
			"limitations":       d.base.Clause(jurisdiction, "limitations"),
			"service":           d.base.Clause(jurisdiction, "service"),
		},
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		d.logger.Warn("document template failed to execute", mylog.Err(err))
		return tmpl.Title + "\n\n" + in.Query
	}

	return b.String()
}

// filingDeadline uses the matter's filing date when known, otherwise a
// conservative near-term default for attorney confirmation.
func (d *Drafter) filingDeadline(m *entity.MatterContext) time.Time {
	if m != nil && m.FilingDate != nil {
		return *m.FilingDate
	}
	return time.Now().Add(14 * 24 * time.Hour)
}

func withAgent(t Type, req sideeffect.Request) sideeffect.Request {
	req.AgentType = string(t)
	return req
}
