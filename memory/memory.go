// Package memory persists derived case facts across turns. Entries are
// identified by (case, session, agent, key); writing the same identity twice
// replaces the value, so agents can re-derive facts idempotently.
package memory

import (
	"strings"
	"time"
)

type (
	Entry struct {
		CaseID     string   `json:"case_id"`
		SessionID  string   `json:"session_id"`
		AgentType  string   `json:"agent_type"`
		Key        string   `json:"key"`
		Value      string   `json:"value"`
		Tags       []string `json:"tags,omitempty"`
		Confidence float64  `json:"confidence,omitempty"`

		CreatedAt time.Time `json:"created_at,omitempty"`

		Embedding []float32 `json:"-"`
	}

	// ScoredEntry holds an entry with its similarity score in [0, 1].
	ScoredEntry struct {
		Entry *Entry  `json:"entry"`
		Score float64 `json:"score"`
	}
)

// Identity is the upsert key. Two writes with equal identity are the same
// logical fact; last write wins.
func (e *Entry) Identity() string {
	return strings.Join([]string{e.CaseID, e.SessionID, e.AgentType, e.Key}, "\x00")
}

// SearchText is what gets embedded and keyword-matched.
func (e *Entry) SearchText() string {
	if len(e.Tags) == 0 {
		return e.Value
	}
	return e.Value + " " + strings.Join(e.Tags, " ")
}
