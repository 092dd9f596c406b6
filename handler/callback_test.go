package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
	"github.com/gin-gonic/gin"
)

func checksum(uid, seed, content string) string {
	sum := sha256.Sum256([]byte(uid + seed + content))
	return hex.EncodeToString(sum[:])
}

func TestCallbackHandlerHandleCallback(t *testing.T) {
	const seed = "test-seed"
	env := newTestEnv(t, &config.ESignConfig{APIURL: "http://esign.invalid", Seed: seed})

	tests := []struct {
		name           string
		content        string
		checksum       string
		expectedStatus int
		expectedState  model.SignatureState
	}{
		{
			name:           "signed callback",
			content:        `{"envelope_id":"env-1","data_id":"sig-1","state":"signed"}`,
			expectedStatus: http.StatusOK,
			expectedState:  model.SignatureSigned,
		},
		{
			name:           "declined callback",
			content:        `{"envelope_id":"env-1","data_id":"sig-1","state":"declined","err_msg":"recusado"}`,
			expectedStatus: http.StatusOK,
			expectedState:  model.SignatureDeclined,
		},
		{
			name:           "unknown state keeps request open",
			content:        `{"envelope_id":"env-1","data_id":"sig-1","state":"viewed"}`,
			expectedStatus: http.StatusOK,
			expectedState:  model.SignaturePending,
		},
		{
			name:           "bad checksum",
			content:        `{"data_id":"sig-1","state":"signed"}`,
			checksum:       "deadbeef",
			expectedStatus: http.StatusUnauthorized,
			expectedState:  model.SignaturePending,
		},
		{
			name:           "non-existent request",
			content:        `{"data_id":"nope","state":"signed"}`,
			expectedStatus: http.StatusNotFound,
			expectedState:  model.SignaturePending,
		},
		{
			name:           "invalid content format",
			content:        "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedState:  model.SignaturePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.signatures.Save(&model.SignatureRequest{
				ID:         "sig-1",
				DocumentID: "doc-1",
				State:      model.SignaturePending,
				CreatedAt:  time.Now(),
			})

			sum := tt.checksum
			if sum == "" {
				sum = checksum("provider", seed, tt.content)
			}
			w := env.do(t, http.MethodPost, "/api/esign/callback", gin.H{
				"checksum": sum,
				"content":  tt.content,
				"uid":      "provider",
			}, "")

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if got := env.signatures.Get("sig-1").State; got != tt.expectedState {
				t.Errorf("Expected state %s, got %s", tt.expectedState, got)
			}
		})
	}
}

func TestCallbackWithoutProvider(t *testing.T) {
	env := newTestEnv(t, nil)
	content := `{"data_id":"sig-1","state":"signed"}`
	w := env.do(t, http.MethodPost, "/api/esign/callback", gin.H{
		"checksum": checksum("", "", content),
		"content":  content,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected callbacks to be rejected without a provider, got %d", w.Code)
	}
}
