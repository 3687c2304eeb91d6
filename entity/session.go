package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Model struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Session is the conversation log for one session id. Sessions are retained
// indefinitely until an explicit clear; the source system defines no expiry
// policy, so none is invented here.
type Session struct {
	Model

	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`
	CaseID    string `json:"case_id,omitempty"`

	Turns []Turn `json:"turns" gorm:"foreignKey:SessionRef"`
}

// Turn records one query/response exchange with its routing decision.
type Turn struct {
	Model

	SessionRef uint                             `json:"-"`
	Query      string                           `json:"query"`
	Response   datatypes.JSONType[TurnResponse] `json:"response"`
	Routing    datatypes.JSONType[TurnRouting]  `json:"routing"`
}

// TurnResponse is the persisted shape of a merged response. It is kept in
// entity to avoid an import cycle with the orchestrator package.
type TurnResponse struct {
	Summary    string   `json:"summary"`
	Agents     []string `json:"agents"`
	Confidence float64  `json:"confidence"`
	Disclaimer string   `json:"disclaimer"`
}

// TurnRouting is the persisted shape of a routing decision.
type TurnRouting struct {
	Primary   string             `json:"primary"`
	CoAgent   string             `json:"co_agent,omitempty"`
	Scores    map[string]float64 `json:"scores"`
	Rationale string             `json:"rationale"`
}
