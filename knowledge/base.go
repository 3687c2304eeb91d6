package knowledge

import (
	_ "embed"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lawyrs/counsel/errors"
)

//go:embed data/knowledge.yaml
var embeddedKnowledge []byte

type (
	// Base is the read-only lookup interface over the jurisdiction knowledge
	// tables. Implementations are immutable after load so they can be shared
	// across concurrent agents without locking.
	Base interface {
		Display(jurisdiction string) string
		CitationSite(jurisdiction string) string
		Fact(jurisdiction, topic string) (Fact, bool)
		Facts(jurisdiction string) []Fact
		Milestones(jurisdiction string) []Milestone
		Clause(jurisdiction, name string) string
		Template(docType string) (DocumentTemplate, bool)
		TemplateByTopic(query string) (DocumentTemplate, bool)
		DefaultJurisdiction() string
	}

	base struct {
		defaultJurisdiction string
		jurisdictions       map[string]Jurisdiction
		templates           []DocumentTemplate
	}

	document struct {
		DefaultJurisdiction string                  `yaml:"defaultJurisdiction"`
		Jurisdictions       map[string]Jurisdiction `yaml:"jurisdictions"`
		Templates           []DocumentTemplate      `yaml:"templates"`
	}
)

var _ Base = (*base)(nil)

// Load parses the embedded knowledge tables. Called once at process start;
// a parse failure is a startup error, not a per-request condition.
func Load() (Base, error) {
	return LoadFrom(embeddedKnowledge)
}

func LoadFrom(data []byte) (Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal knowledge tables")
	}
	if len(doc.Jurisdictions) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "no jurisdictions defined")
	}

	return &base{
		defaultJurisdiction: doc.DefaultJurisdiction,
		jurisdictions:       doc.Jurisdictions,
		templates:           doc.Templates,
	}, nil
}

func (b *base) DefaultJurisdiction() string {
	return b.defaultJurisdiction
}

func (b *base) lookup(jurisdiction string) (Jurisdiction, bool) {
	j, ok := b.jurisdictions[strings.ToLower(strings.TrimSpace(jurisdiction))]
	return j, ok
}

func (b *base) Display(jurisdiction string) string {
	if j, ok := b.lookup(jurisdiction); ok {
		return j.Display
	}
	if jurisdiction == "" {
		return b.Display(b.defaultJurisdiction)
	}
	return jurisdiction
}

func (b *base) CitationSite(jurisdiction string) string {
	if j, ok := b.lookup(jurisdiction); ok {
		return j.CitationSite
	}
	return ""
}

func (b *base) Fact(jurisdiction, topic string) (Fact, bool) {
	j, ok := b.lookup(jurisdiction)
	if !ok {
		j, ok = b.lookup(b.defaultJurisdiction)
		if !ok {
			return Fact{}, false
		}
	}
	for _, f := range j.Facts {
		if f.Topic == topic {
			return f, true
		}
	}
	return Fact{}, false
}

func (b *base) Facts(jurisdiction string) []Fact {
	if j, ok := b.lookup(jurisdiction); ok {
		return j.Facts
	}
	return nil
}

func (b *base) Milestones(jurisdiction string) []Milestone {
	j, ok := b.lookup(jurisdiction)
	if !ok {
		j, ok = b.lookup(b.defaultJurisdiction)
		if !ok {
			return nil
		}
	}
	return j.Milestones
}

func (b *base) Clause(jurisdiction, name string) string {
	j, ok := b.lookup(jurisdiction)
	if !ok {
		j, ok = b.lookup(b.defaultJurisdiction)
		if !ok {
			return ""
		}
	}
	return j.Clauses[name]
}

func (b *base) Template(docType string) (DocumentTemplate, bool) {
	for _, t := range b.templates {
		if t.Type == docType {
			return t, true
		}
	}
	return DocumentTemplate{}, false
}

// TemplateByTopic picks the template whose topic keywords best match the
// query; ties go to the first-listed template.
func (b *base) TemplateByTopic(query string) (DocumentTemplate, bool) {
	q := strings.ToLower(query)
	best := -1
	bestScore := 0
	for i, t := range b.templates {
		score := 0
		for _, topic := range t.Topics {
			if strings.Contains(q, topic) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return DocumentTemplate{}, false
	}
	return b.templates[best], true
}
