package memory

import (
	"strings"
	"time"

	"github.com/lawyrs/counsel/entity"
	"github.com/lawyrs/counsel/errors"
	"github.com/mitchellh/mapstructure"
)

// maxNotesLen caps each per-agent notes field so assembled context stays
// prompt-sized no matter how long a case runs.
const maxNotesLen = 800

// AssembleMatterContext builds the read-only matter snapshot from the
// caller-supplied fields plus the case's stored memory. The raw map comes
// from an external system and is decoded defensively: unknown fields are
// ignored, scalars are coerced, dates accept RFC 3339 strings.
func AssembleMatterContext(raw map[string]any, entries []*Entry) (*entity.MatterContext, error) {
	matter := &entity.MatterContext{}

	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           matter,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build matter decoder")
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidParams, "invalid matter context: %v", err)
		}
	}

	notes := map[string][]string{}
	for _, entry := range entries {
		if entry == nil || entry.Value == "" {
			continue
		}
		notes[entry.AgentType] = append(notes[entry.AgentType], entry.Value)
	}

	matter.ResearchNotes = joinNotes(matter.ResearchNotes, notes["researcher"])
	matter.RiskNotes = joinNotes(matter.RiskNotes, notes["analyst"])
	matter.DraftNotes = joinNotes(matter.DraftNotes, notes["drafter"])
	matter.StrategyNotes = joinNotes(matter.StrategyNotes, notes["strategist"])

	return matter, nil
}

// joinNotes appends stored notes after any caller-supplied ones and trims to
// the cap, keeping the most recent tail.
func joinNotes(existing string, stored []string) string {
	parts := stored
	if existing != "" {
		parts = append([]string{existing}, stored...)
	}
	joined := strings.Join(parts, " | ")
	if len(joined) > maxNotesLen {
		joined = "…" + joined[len(joined)-maxNotesLen:]
	}
	return joined
}
