package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
)

// ESignService talks to the e-signature provider. Envelopes carry the PDF
// inline; status comes back either by polling or through the callback.
type ESignService struct {
	config     *config.ESignConfig
	httpClient *http.Client
}

// Signer is one party that must sign an envelope.
type Signer struct {
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Role     string `json:"role"`
}

// EnvelopeRequest represents the request to create an envelope
type EnvelopeRequest struct {
	Name     string   `json:"name"`
	Content  string   `json:"content"` // base64 PDF
	Signers  []Signer `json:"signers"`
	Callback string   `json:"callback,omitempty"`
	Seed     string   `json:"seed,omitempty"`
	DataID   string   `json:"data_id,omitempty"`
}

// EnvelopeResponse represents the response from envelope creation
type EnvelopeResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    struct {
		EnvelopeID string `json:"envelope_id"`
		SignURL    string `json:"sign_url"`
	} `json:"data"`
}

// EnvelopeStatus is the provider view of an envelope. It is also the
// payload delivered to the callback.
type EnvelopeStatus struct {
	EnvelopeID string `json:"envelope_id"`
	DataID     string `json:"data_id"`
	State      string `json:"state"` // pending, sent, signed, declined, failed
	SignURL    string `json:"sign_url,omitempty"`
	ErrorMsg   string `json:"err_msg,omitempty"`
}

type EnvelopeStatusResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"msg"`
	TraceID string         `json:"trace_id"`
	Data    EnvelopeStatus `json:"data"`
}

// SignatureState maps the provider state onto ours. Unknown states count
// as sent.
func (s EnvelopeStatus) SignatureState() model.SignatureState {
	switch model.SignatureState(s.State) {
	case model.SignaturePending, model.SignatureSigned, model.SignatureDeclined, model.SignatureFailed:
		return model.SignatureState(s.State)
	}
	return model.SignatureSent
}

func NewESignService(cfg *config.ESignConfig) *ESignService {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ESignService{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a provider is configured.
func (s *ESignService) Enabled() bool {
	return s != nil && s.config.APIURL != ""
}

// CreateEnvelope uploads a PDF and asks the provider to collect signatures.
func (s *ESignService) CreateEnvelope(ctx context.Context, name string, pdf []byte, signers []Signer, dataID string) (*EnvelopeResponse, error) {
	reqBody := EnvelopeRequest{
		Name:    name,
		Content: base64.StdEncoding.EncodeToString(pdf),
		Signers: signers,
		DataID:  dataID,
	}
	if s.config.CallbackURL != "" {
		reqBody.Callback = s.config.CallbackURL
		reqBody.Seed = s.config.Seed
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/envelopes", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result EnvelopeResponse
	if err := s.do(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("e-sign API error: %s", result.Message)
	}
	return &result, nil
}

// GetEnvelopeStatus queries the status of an envelope
func (s *ESignService) GetEnvelopeStatus(ctx context.Context, envelopeID string) (*EnvelopeStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/envelopes/%s", s.config.APIURL, envelopeID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var result EnvelopeStatusResponse
	if err := s.do(req, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("e-sign API error: %s", result.Message)
	}
	return &result, nil
}

func (s *ESignService) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.config.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// VerifyCallback checks checksum = SHA256(uid + seed + content).
func (s *ESignService) VerifyCallback(checksum, content, uid string) bool {
	hash := sha256.Sum256([]byte(uid + s.config.Seed + content))
	return checksum == hex.EncodeToString(hash[:])
}
