package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/render"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func boolPtr(b bool) *bool { return &b }

func testTemplate() model.DocumentTemplate {
	return model.DocumentTemplate{
		ID:       "prestacao-servicos",
		Title:    "Contrato de Prestação de Serviços",
		Category: "contratos",
		Variables: []model.TemplateVariable{
			{ID: "contractor_name", Label: "Contratante", Type: model.TypeText},
			{ID: "cidade", Label: "Cidade", Type: model.TypeText},
			{ID: "data_inicio", Label: "Data de início", Type: model.TypeDate},
			{ID: "observacoes", Label: "Observações", Type: model.TypeTextarea, Required: boolPtr(false)},
		},
		TemplateText: "CONTRATANTE: {{contractor_name}}\n\nCLÁUSULA PRIMEIRA\nServiços prestados em {{cidade}} a partir de {{data_inicio}}.",
		Witnesses:    []model.Witness{{Name: "Ana Souza", Document: "123.456.789-00"}},
	}
}

type testEnv struct {
	router     *gin.Engine
	store      *service.MemoryStore
	manager    *service.SessionManager
	hub        *LiveHub
	signatures *service.SignatureStore
}

// testAuth stands in for the JWT middleware: the user comes from
// X-Test-User and defaults to maria.
func testAuth(c *gin.Context) {
	user := c.GetHeader("X-Test-User")
	if user == "" {
		user = "maria"
	}
	c.Set("username", user)
	c.Set("tenant", "acme")
	c.Next()
}

func testExporter() *render.Exporter {
	return render.NewExporter(render.OptionsFromConfig(config.RenderConfig{
		PageSize:      "A4",
		Margin:        20,
		FontFamily:    "Times",
		FontSize:      12,
		LogoMaxWidth:  50,
		LogoMaxHeight: 25,
	}))
}

func newTestEnv(t *testing.T, esign *config.ESignConfig) *testEnv {
	t.Helper()
	store := service.NewMemoryStore(&config.StoreConfig{})
	if err := store.PutTemplate(context.Background(), testTemplate()); err != nil {
		t.Fatal(err)
	}

	manager := service.NewSessionManager(store, store, nil, time.Hour)
	hub := NewLiveHub()
	manager.SetNotifier(hub.Publish)

	var signer *service.ESignService
	if esign != nil {
		signer = service.NewESignService(esign)
	}
	signatures := service.NewSignatureStore(0)
	exports := service.NewExportService(testExporter(), nil, signer, signatures)

	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 1}}
	h := &Handlers{
		Auth:      NewAuthHandler(cfg),
		Templates: NewTemplateHandler(store),
		Documents: NewDocumentHandler(store, manager, exports),
		Wizard:    NewWizardHandler(manager),
		Export:    NewExportHandler(manager, exports),
		Library:   NewLibraryHandler(store, service.NewSuggester(store, 10)),
		Callback:  NewCallbackHandler(exports),
		Live:      hub,
	}
	router := gin.New()
	h.Register(router.Group("/api"), testAuth)

	return &testEnv{router: router, store: store, manager: manager, hub: hub, signatures: signatures}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

// startSession opens a wizard over the test template for maria.
func (e *testEnv) startSession(t *testing.T) service.SessionState {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/wizard", gin.H{"template_id": "prestacao-servicos"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[service.SessionState](t, w)
}

// generate answers every step of a fresh session and returns its state.
func (e *testEnv) generate(t *testing.T) service.SessionState {
	t.Helper()
	st := e.startSession(t)
	w := e.do(t, http.MethodPost, "/api/wizard/"+st.ID+"/submit-all", gin.H{"answers": gin.H{
		"contractor_name": "maria da silva",
		"cidade":          "recife",
		"data_inicio":     "2024-03-01",
	}}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	return decode[service.SessionState](t, w)
}
