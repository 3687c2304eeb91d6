package entity

import "time"

// MatterContext is a read-only snapshot of case facts owned by the external
// case-management store. The core never mutates it; co-routed agents share a
// single instance per request.
type MatterContext struct {
	CaseID         string     `json:"case_id,omitempty" mapstructure:"case_id"`
	CaseType       string     `json:"case_type,omitempty" mapstructure:"case_type"`
	Jurisdiction   string     `json:"jurisdiction,omitempty" mapstructure:"jurisdiction"`
	ClientName     string     `json:"client_name,omitempty" mapstructure:"client_name"`
	IncidentDate   *time.Time `json:"incident_date,omitempty" mapstructure:"incident_date"`
	FilingDate     *time.Time `json:"filing_date,omitempty" mapstructure:"filing_date"`
	EstimatedValue float64    `json:"estimated_value,omitempty" mapstructure:"estimated_value"`

	// Prior derived notes, assembled from memory per agent type.
	ResearchNotes string `json:"research_notes,omitempty" mapstructure:"research_notes"`
	RiskNotes     string `json:"risk_notes,omitempty" mapstructure:"risk_notes"`
	DraftNotes    string `json:"draft_notes,omitempty" mapstructure:"draft_notes"`
	StrategyNotes string `json:"strategy_notes,omitempty" mapstructure:"strategy_notes"`
}

// Complete reports whether the fields the agents rely on are present. Missing
// fields degrade agent confidence; they never abort a request.
func (m *MatterContext) Complete() bool {
	return m != nil && m.CaseType != "" && m.Jurisdiction != ""
}
