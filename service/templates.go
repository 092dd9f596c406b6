package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnTengye/jurieasy/model"
	"gopkg.in/yaml.v3"
)

// TemplateWriter accepts validated templates.
type TemplateWriter interface {
	PutTemplate(ctx context.Context, t model.DocumentTemplate) error
}

// LoadTemplateDir reads every .yaml/.yml file in dir as one template. A file
// without an id takes its base name as id.
func LoadTemplateDir(dir string) ([]model.DocumentTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	templates := make([]model.DocumentTemplate, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", name, err)
		}
		var t model.DocumentTemplate
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("validating template %s: %w", name, err)
		}
		if unknown := t.UnknownPlaceholders(); len(unknown) > 0 {
			slog.Warn("template has placeholders without variables", "template_id", t.ID, "placeholders", unknown)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// SeedTemplates writes templates into dst.
func SeedTemplates(ctx context.Context, dst TemplateWriter, templates []model.DocumentTemplate) error {
	for _, t := range templates {
		if err := dst.PutTemplate(ctx, t); err != nil {
			return fmt.Errorf("seeding template %s: %w", t.ID, err)
		}
	}
	slog.Info("templates seeded", "count", len(templates))
	return nil
}
