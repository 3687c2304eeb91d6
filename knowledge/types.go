package knowledge

type (
	// Fact is one statute or rule entry keyed by jurisdiction and topic.
	Fact struct {
		Topic      string  `yaml:"topic" json:"topic"`
		Statute    string  `yaml:"statute" json:"statute"`
		Title      string  `yaml:"title" json:"title"`
		Summary    string  `yaml:"summary" json:"summary"`
		URL        string  `yaml:"url" json:"url"`
		Confidence float64 `yaml:"confidence" json:"confidence"`

		// Years is the limitations period for *_sol topics; zero elsewhere.
		Years int `yaml:"years" json:"years,omitempty"`
	}

	// Milestone is a procedural step used for strategy timelines, offset in
	// days from the strategy date.
	Milestone struct {
		Name       string `yaml:"name" json:"name"`
		OffsetDays int    `yaml:"offsetDays" json:"offset_days"`
		Note       string `yaml:"note" json:"note"`
	}

	// DocumentTemplate is a drafting template; Body is a text/template with
	// sprig functions available.
	DocumentTemplate struct {
		Type           string   `yaml:"type" json:"type"`
		Title          string   `yaml:"title" json:"title"`
		Topics         []string `yaml:"topics" json:"topics"`
		RequiresFiling bool     `yaml:"requiresFiling" json:"requires_filing"`
		Body           string   `yaml:"body" json:"body"`
	}

	Jurisdiction struct {
		Display      string             `yaml:"display" json:"display"`
		CitationSite string             `yaml:"citationSite" json:"citation_site"`
		Facts        []Fact             `yaml:"facts" json:"facts"`
		Milestones   []Milestone        `yaml:"milestones" json:"milestones"`
		Clauses      map[string]string  `yaml:"clauses" json:"clauses"`
	}
)

// Topics used across agents. The researcher auto-injects the SOL and
// comparative-fault facts whenever personal-injury vocabulary matches.
const (
	TopicPersonalInjurySOL = "personal_injury_sol"
	TopicComparativeFault  = "comparative_fault"
	TopicMedMalSOL         = "medical_malpractice_sol"
	TopicPleadingStandard  = "pleading_standard"
	TopicJointLiability    = "joint_liability"
	TopicGovernmentNotice  = "government_notice"
	TopicContractSOL       = "contract_sol"
	TopicAffidavitOfMerit  = "affidavit_of_merit"
)
