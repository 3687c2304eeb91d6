package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/knowledge"
)

// systemPrompt builds the shared senior-partner system prompt from the
// knowledge tables for the matter's jurisdiction.
func systemPrompt(base knowledge.Base, jurisdiction string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a senior partner licensed in Kansas and Missouri. Current date: %s.\n\n",
		time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "%s RULES (auto-apply):\n", strings.ToUpper(base.Display(jurisdiction)))
	for _, f := range base.Facts(jurisdiction) {
		fmt.Fprintf(&b, "- %s: %s\n", f.Statute, f.Title)
	}
	b.WriteString("\nCORE RULES:\n")
	b.WriteString("1. Never invent cases, statutes, or citations")
	if site := base.CitationSite(jurisdiction); site != "" {
		fmt.Fprintf(&b, "; verify on %s", site)
	}
	b.WriteString("\n2. Cite authoritative sources with pinpoint citations\n")
	b.WriteString("3. Flag limitations deadlines and comparative-fault implications immediately\n")
	b.WriteString("4. Structure: Summary, Analysis, Recommendations, Next Actions, Sources\n")

	return b.String()
}

func matterSummary(m *entity.MatterContext) string {
	if m == nil {
		return "Matter facts: not specified"
	}

	var parts []string
	if m.CaseType != "" {
		parts = append(parts, "case type: "+m.CaseType)
	}
	if m.Jurisdiction != "" {
		parts = append(parts, "jurisdiction: "+m.Jurisdiction)
	}
	if m.EstimatedValue > 0 {
		parts = append(parts, fmt.Sprintf("estimated value: $%.0f", m.EstimatedValue))
	}
	if m.IncidentDate != nil {
		parts = append(parts, "incident date: "+m.IncidentDate.Format("2006-01-02"))
	}
	if m.RiskNotes != "" {
		parts = append(parts, "prior risk notes: "+m.RiskNotes)
	}
	if m.StrategyNotes != "" {
		parts = append(parts, "prior strategy notes: "+m.StrategyNotes)
	}
	if len(parts) == 0 {
		return "Matter facts: not specified"
	}

	return "Matter facts: " + strings.Join(parts, "; ")
}

func jurisdictionOf(base knowledge.Base, in Input) string {
	if in.Matter != nil && in.Matter.Jurisdiction != "" {
		return in.Matter.Jurisdiction
	}
	return base.DefaultJurisdiction()
}

// matchesPersonalInjury reports whether the query carries personal-injury or
// negligence vocabulary. The researcher's SOL and comparative-fault
// auto-injection keys off this, unconditionally.
func matchesPersonalInjury(query string, m *entity.MatterContext) bool {
	q := strings.ToLower(query)
	for _, kw := range []string{"personal injury", "negligence", "negligent", "accident", "injured", "injury", "tort", "malpractice", "slip and fall", "car crash"} {
		if strings.Contains(q, kw) {
			return true
		}
	}
	if m != nil {
		ct := strings.ToLower(m.CaseType)
		return strings.Contains(ct, "personal injury") || strings.Contains(ct, "negligence")
	}
	return false
}
