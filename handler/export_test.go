package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnTengye/jurieasy/model"
	"github.com/gin-gonic/gin"
)

func pngLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExportDocumentDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	st := env.generate(t)

	tests := []struct {
		format      string
		contentType string
		magic       string
	}{
		{"pdf", "application/pdf", "%PDF"},
		{"doc", "application/msword", "<html"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/documents/"+st.DocumentID+"/export?format="+tt.format, nil, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Expected content type %s, got %s", tt.contentType, ct)
			}
			cd := w.Header().Get("Content-Disposition")
			if !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "Contrato_de_Presta") {
				t.Errorf("Unexpected Content-Disposition %q", cd)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte(tt.magic)) {
				t.Errorf("Expected body to start with %q", tt.magic)
			}
			if w.Header().Get("X-Page-Count") == "" {
				t.Error("Expected X-Page-Count header")
			}
		})
	}
}

func TestExportWithLogoUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	st := env.generate(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("format", "pdf")
	part, err := mw.CreateFormFile("logo", "logo.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngLogo(t))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+st.DocumentID+"/export", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("Expected a PDF body")
	}
}

func TestExportRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	st := env.generate(t)
	docPath := "/api/documents/" + st.DocumentID + "/export"

	tests := []struct {
		name   string
		path   string
		user   string
		status int
	}{
		{"unknown format", docPath + "?format=odt", "", http.StatusUnprocessableEntity},
		{"esign without provider", docPath + "?format=esign", "", http.StatusUnprocessableEntity},
		{"store without storage", docPath + "?store=true", "", http.StatusUnprocessableEntity},
		{"bad store flag", docPath + "?store=talvez", "", http.StatusUnprocessableEntity},
		{"other owner", docPath, "joao", http.StatusForbidden},
		{"missing document", "/api/documents/nope/export", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, tt.path, nil, tt.user); w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestExportSessionPersistsPreviewEdits(t *testing.T) {
	env := newTestEnv(t, nil)
	var completed []*model.UserDocument
	env.manager.SetOnComplete(func(doc *model.UserDocument, _ *model.DocumentTemplate) {
		completed = append(completed, doc)
	})

	fresh := env.startSession(t)
	if w := env.do(t, http.MethodPost, "/api/wizard/"+fresh.ID+"/export?format=doc", nil, ""); w.Code != http.StatusConflict {
		t.Errorf("Expected export before generate to conflict, got %d", w.Code)
	}

	st := env.generate(t)
	base := "/api/wizard/" + st.ID
	edited := "CLÁUSULA ÚNICA\nTexto ajustado na revisão."
	if w := env.do(t, http.MethodPut, base+"/text", gin.H{"text": edited}, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPut, base+"/preview/answers/cidade", gin.H{"value": "olinda"}, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodPost, base+"/export?format=pdf", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("Expected a PDF download")
	}

	stored, err := env.store.GetDocument(context.Background(), st.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.GeneratedText != edited {
		t.Errorf("Expected download to persist the edited text, got %q", stored.GeneratedText)
	}
	if stored.Answers["cidade"].String() != "olinda" || stored.Status != model.StatusCompleted {
		t.Errorf("Expected edited answer and completed status, got %q %s", stored.Answers["cidade"].String(), stored.Status)
	}
	if len(completed) != 1 || completed[0].ID != st.DocumentID {
		t.Errorf("Expected one completion for %s, got %d", st.DocumentID, len(completed))
	}

	w = env.do(t, http.MethodPost, base+"/export?format=doc", nil, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Texto ajustado na revis") {
		t.Errorf("Expected the saved edit in a second download, got %d", w.Code)
	}

	if w := env.do(t, http.MethodPut, base+"/text", gin.H{"text": "   "}, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, base+"/export", nil, ""); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected blank text export to be rejected, got %d", w.Code)
	}
	stored, _ = env.store.GetDocument(context.Background(), st.DocumentID)
	if stored.GeneratedText != edited {
		t.Errorf("Expected a rejected export to leave the saved text, got %q", stored.GeneratedText)
	}
}
