package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
)

func TestNewESignService(t *testing.T) {
	cfg := &config.ESignConfig{APIURL: "https://sign.example.test", TimeoutSec: 5}
	svc := NewESignService(cfg)
	if svc.httpClient.Timeout.Seconds() != 5 {
		t.Errorf("Expected 5s timeout, got %v", svc.httpClient.Timeout)
	}
	if !svc.Enabled() {
		t.Error("Expected service with api url to be enabled")
	}

	if NewESignService(&config.ESignConfig{}).Enabled() {
		t.Error("Expected service without api url to be disabled")
	}
	var nilSvc *ESignService
	if nilSvc.Enabled() {
		t.Error("Expected nil service to be disabled")
	}
}

func TestESignServiceCreateEnvelope(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/envelopes" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("Expected Authorization header")
		}
		var body EnvelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		raw, _ := base64.StdEncoding.DecodeString(body.Content)
		if string(raw) != string(pdf) {
			t.Error("Expected PDF bytes in content")
		}
		if len(body.Signers) != 3 || body.DataID != "req-1" {
			t.Errorf("Unexpected envelope %+v", body)
		}
		if body.Callback != "http://callback.test" || body.Seed != "test-seed" {
			t.Errorf("Expected callback and seed, got %q %q", body.Callback, body.Seed)
		}

		resp := EnvelopeResponse{Code: 0, Message: "ok"}
		resp.Data.EnvelopeID = "env-123"
		resp.Data.SignURL = "https://sign.example.test/s/env-123"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewESignService(&config.ESignConfig{
		APIURL:      server.URL,
		APIToken:    "test-token",
		CallbackURL: "http://callback.test",
		Seed:        "test-seed",
	})
	signers := Signers(serviceTemplate())
	resp, err := svc.CreateEnvelope(context.Background(), "Contrato.pdf", pdf, signers, "req-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Data.EnvelopeID != "env-123" {
		t.Errorf("Expected envelope id env-123, got %s", resp.Data.EnvelopeID)
	}
}

func TestESignServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api error code", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(EnvelopeResponse{Code: 1, Message: "quota exceeded"})
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := NewESignService(&config.ESignConfig{APIURL: server.URL})
			if _, err := svc.CreateEnvelope(context.Background(), "a.pdf", []byte("x"), nil, "id"); err == nil {
				t.Error("Expected CreateEnvelope error")
			}
			if _, err := svc.GetEnvelopeStatus(context.Background(), "env"); err == nil {
				t.Error("Expected GetEnvelopeStatus error")
			}
		})
	}
}

func TestESignServiceGetEnvelopeStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/envelopes/env-123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(EnvelopeStatusResponse{
			Code: 0,
			Data: EnvelopeStatus{EnvelopeID: "env-123", DataID: "req-1", State: "signed"},
		})
	}))
	defer server.Close()

	svc := NewESignService(&config.ESignConfig{APIURL: server.URL})
	resp, err := svc.GetEnvelopeStatus(context.Background(), "env-123")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Data.SignatureState() != model.SignatureSigned {
		t.Errorf("Expected signed, got %s", resp.Data.SignatureState())
	}
}

func TestEnvelopeStatusSignatureState(t *testing.T) {
	tests := []struct {
		state string
		want  model.SignatureState
	}{
		{"signed", model.SignatureSigned},
		{"declined", model.SignatureDeclined},
		{"failed", model.SignatureFailed},
		{"pending", model.SignaturePending},
		{"waiting_signers", model.SignatureSent},
	}
	for _, tt := range tests {
		if got := (EnvelopeStatus{State: tt.state}).SignatureState(); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestESignServiceVerifyCallback(t *testing.T) {
	svc := NewESignService(&config.ESignConfig{Seed: "test-seed"})

	uid := "user-123"
	content := `{"envelope_id":"env-1","data_id":"req-1","state":"signed"}`
	hash := sha256.Sum256([]byte(uid + "test-seed" + content))
	checksum := hex.EncodeToString(hash[:])

	if !svc.VerifyCallback(checksum, content, uid) {
		t.Error("Expected checksum to verify")
	}
	if svc.VerifyCallback(checksum, content+" ", uid) {
		t.Error("Expected tampered content to fail")
	}
	if svc.VerifyCallback("invalid", content, uid) {
		t.Error("Expected invalid checksum to fail")
	}
}
