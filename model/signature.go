package model

import "time"

// SignatureState tracks an e-signature envelope at the provider.
type SignatureState string

const (
	SignaturePending  SignatureState = "pending"
	SignatureSent     SignatureState = "sent"
	SignatureSigned   SignatureState = "signed"
	SignatureDeclined SignatureState = "declined"
	SignatureFailed   SignatureState = "failed"
)

// Terminal reports whether the provider will not change the state again.
func (s SignatureState) Terminal() bool {
	return s == SignatureSigned || s == SignatureDeclined || s == SignatureFailed
}

// SignatureRequest is one rendered PDF handed to the signing provider.
type SignatureRequest struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	Tenant      string         `json:"tenant"`
	Owner       string         `json:"owner"`
	Filename    string         `json:"filename"`
	ArtifactURL string         `json:"artifact_url,omitempty"`
	EnvelopeID  string         `json:"envelope_id,omitempty"`
	SignURL     string         `json:"sign_url,omitempty"`
	State       SignatureState `json:"state"`
	ErrorMsg    string         `json:"error_msg,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
