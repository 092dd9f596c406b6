package service

import (
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
)

func boolPtr(b bool) *bool { return &b }

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

// serviceTemplate has two required text steps, a required date step and an
// optional textarea.
func serviceTemplate() *model.DocumentTemplate {
	return &model.DocumentTemplate{
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

func newTestStore(maxDocuments int) *MemoryStore {
	s := NewMemoryStore(&config.StoreConfig{MaxDocuments: maxDocuments})
	s.now = func() time.Time { return fixedNow }
	return s
}
