// Package sideeffect models the instructions the pipeline emits for the
// external case-management collaborator. The orchestrator does not know
// whether materialization succeeded and never blocks on it.
package sideeffect

import (
	"time"
)

type Kind string

const (
	KindCreateDocument      Kind = "createDocument"
	KindCreateTask          Kind = "createTask"
	KindCreateCalendarEvent Kind = "createCalendarEvent"
)

// Request carries the minimal fields the collaborator needs to materialize a
// record of the given kind.
type Request struct {
	Kind    Kind   `json:"kind" jsonschema:"required,enum=createDocument,enum=createTask,enum=createCalendarEvent"`
	CaseID  string `json:"caseId,omitempty" jsonschema_description:"Case the record belongs to"`
	Title   string `json:"title" jsonschema:"required"`
	Body    string `json:"body,omitempty" jsonschema_description:"Document body or task detail"`
	DocType string `json:"docType,omitempty" jsonschema_description:"Document type for createDocument"`

	DueDate   *time.Time `json:"dueDate,omitempty" jsonschema_description:"Task deadline for createTask"`
	EventDate *time.Time `json:"eventDate,omitempty" jsonschema_description:"Event date for createCalendarEvent"`

	AgentType string `json:"agentType,omitempty" jsonschema_description:"Agent that requested the record"`
}

func NewDocument(caseID, docType, title, body string) Request {
	return Request{Kind: KindCreateDocument, CaseID: caseID, DocType: docType, Title: title, Body: body}
}

func NewTask(caseID, title, body string, due *time.Time) Request {
	return Request{Kind: KindCreateTask, CaseID: caseID, Title: title, Body: body, DueDate: due}
}

func NewCalendarEvent(caseID, title, body string, at time.Time) Request {
	return Request{Kind: KindCreateCalendarEvent, CaseID: caseID, Title: title, Body: body, EventDate: &at}
}
