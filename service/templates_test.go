package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTemplateFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestLoadTemplateDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "locacao.yaml", `
title: Contrato de Locação
category: imóveis
template_text: |
  LOCADOR: {{nome_locador}}
  Cidade: {{cidade}}
variables:
  - id: nome_locador
    label: Nome do locador
    type: text
  - id: cidade
    label: Cidade
    type: select
    options: [Recife, Olinda]
witnesses:
  - name: Ana Souza
    document: 123.456.789-00
`)
	writeTemplateFile(t, dir, "declaracao.yml", `
id: declaracao-residencia
title: Declaração de Residência
variables:
  - id: endereco
    label: Endereço
    type: textarea
    required: false
`)
	writeTemplateFile(t, dir, "README.md", "not a template")

	templates, err := LoadTemplateDir(dir)
	if err != nil {
		t.Fatalf("LoadTemplateDir failed: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(templates))
	}
	// files are read in name order
	if templates[0].ID != "declaracao-residencia" {
		t.Errorf("Expected explicit id, got %s", templates[0].ID)
	}
	if templates[0].Variables[0].IsRequired() {
		t.Error("Expected required: false to be honoured")
	}
	if templates[1].ID != "locacao" {
		t.Errorf("Expected id from file name, got %s", templates[1].ID)
	}
	if got := templates[1].Variables[1].Options; len(got) != 2 {
		t.Errorf("Expected 2 options, got %v", got)
	}
	if len(templates[1].Witnesses) != 1 {
		t.Errorf("Expected 1 witness, got %d", len(templates[1].Witnesses))
	}

	store := newTestStore(0)
	if err := SeedTemplates(context.Background(), store, templates); err != nil {
		t.Fatalf("SeedTemplates failed: %v", err)
	}
	if _, err := store.FetchTemplate(context.Background(), "locacao"); err != nil {
		t.Errorf("Expected seeded template, got %v", err)
	}
}

func TestLoadTemplateDirErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "title: [unclosed"},
		{"duplicate ids", "title: X\nvariables:\n  - {id: a, label: A, type: text}\n  - {id: a, label: B, type: text}\n"},
		{"choice without options", "title: X\nvariables:\n  - {id: a, label: A, type: radio}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTemplateFile(t, dir, "bad.yaml", tt.content)
			if _, err := LoadTemplateDir(dir); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := LoadTemplateDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestShippedTemplates(t *testing.T) {
	templates, err := LoadTemplateDir(filepath.Join("..", "templates"))
	if err != nil {
		t.Fatalf("Shipped templates must load: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("Expected shipped templates")
	}
	for _, tmpl := range templates {
		if unknown := tmpl.UnknownPlaceholders(); len(unknown) > 0 {
			t.Errorf("%s: placeholders without variables %v", tmpl.ID, unknown)
		}
	}
}
