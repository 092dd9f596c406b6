package model

import (
	"time"
)

// DocumentStatus is the lifecycle state of a UserDocument.
type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "draft"
	StatusInProgress DocumentStatus = "in_progress"
	StatusCompleted  DocumentStatus = "completed"
)

// UserDocument is one instantiation of a template for one user.
// GeneratedText is a derived cache of Answers and may also hold free-text
// edits made in preview; the two are reconciled only at explicit saves.
type UserDocument struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"document_id"`
	Tenant        string         `json:"tenant"`
	Owner         string         `json:"owner"`
	Answers       Answers        `json:"answers"`
	CurrentStep   int            `json:"current_step"`
	TotalSteps    int            `json:"total_steps"`
	Status        DocumentStatus `json:"status"`
	GeneratedText string         `json:"generated_text,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DocumentPayload is what the wizard writes on create and update.
// DocumentID, Tenant and Owner are only read on create.
type DocumentPayload struct {
	DocumentID    string
	Tenant        string
	Owner         string
	Answers       Answers
	CurrentStep   int
	TotalSteps    int
	Status        DocumentStatus
	GeneratedText string
}

// Apply copies the mutable fields of p onto d.
func (d *UserDocument) Apply(p DocumentPayload) {
	d.Answers = p.Answers.Clone()
	d.CurrentStep = p.CurrentStep
	d.TotalSteps = p.TotalSteps
	d.Status = p.Status
	d.GeneratedText = p.GeneratedText
}

// Clone returns a copy that shares no maps with d.
func (d *UserDocument) Clone() *UserDocument {
	cp := *d
	cp.Answers = d.Answers.Clone()
	return &cp
}
