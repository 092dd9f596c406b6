package service

import (
	"context"
	"testing"
	"time"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
)

func TestMemoryStoreTemplates(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	if err := store.PutTemplate(ctx, *serviceTemplate()); err != nil {
		t.Fatalf("PutTemplate failed: %v", err)
	}
	if err := store.PutTemplate(ctx, model.DocumentTemplate{ID: "vazio", Title: "Vazio"}); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error for empty template, got %v", err)
	}

	got, err := store.FetchTemplate(ctx, "prestacao-servicos")
	if err != nil {
		t.Fatalf("FetchTemplate failed: %v", err)
	}
	if got.TotalSteps() != 4 {
		t.Errorf("Expected 4 steps, got %d", got.TotalSteps())
	}

	if _, err := store.FetchTemplate(ctx, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}

	list, err := store.ListTemplates(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("Expected 1 template, got %d (%v)", len(list), err)
	}
}

func TestMemoryStoreDocumentLifecycle(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	doc, err := store.CreateDocument(ctx, model.DocumentPayload{
		DocumentID:  "prestacao-servicos",
		Tenant:      "acme",
		Owner:       "maria",
		Answers:     model.Answers{"contractor_name": model.TextAnswer("maria silva")},
		CurrentStep: 1,
		TotalSteps:  4,
		Status:      model.StatusDraft,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if doc.ID == "" || !doc.CreatedAt.Equal(fixedNow) {
		t.Errorf("Expected id and timestamps, got %+v", doc)
	}

	// mutating the returned copy must not leak into the store
	doc.Answers["contractor_name"] = model.TextAnswer("outro")

	later := fixedNow.Add(time.Minute)
	store.now = func() time.Time { return later }
	updated, err := store.UpdateDocument(ctx, doc.ID, model.DocumentPayload{
		Answers:     model.Answers{"contractor_name": model.TextAnswer("maria silva"), "cidade": model.TextAnswer("recife")},
		CurrentStep: 2,
		TotalSteps:  4,
		Status:      model.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}
	if updated.Owner != "maria" || updated.DocumentID != "prestacao-servicos" {
		t.Errorf("Expected identity fields to survive update, got %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) || !updated.CreatedAt.Equal(fixedNow) {
		t.Errorf("Unexpected timestamps created=%v updated=%v", updated.CreatedAt, updated.UpdatedAt)
	}

	got, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Status != model.StatusInProgress || got.CurrentStep != 2 {
		t.Errorf("Expected in_progress at step 2, got %s at %d", got.Status, got.CurrentStep)
	}
	if got.Answers["contractor_name"].String() != "maria silva" {
		t.Errorf("Expected stored answer, got %q", got.Answers["contractor_name"].String())
	}

	if _, err := store.UpdateDocument(ctx, "missing", model.DocumentPayload{}); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found on update, got %v", err)
	}
	if _, err := store.GetDocument(ctx, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found on get, got %v", err)
	}
}

func TestMemoryStoreListDocuments(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	base := fixedNow
	for i, owner := range []string{"maria", "joao", "maria"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		if _, err := store.CreateDocument(ctx, model.DocumentPayload{DocumentID: "t", Owner: owner, Status: model.StatusDraft}); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := store.ListDocuments(ctx, "maria")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents for maria, got %d", len(docs))
	}
	if !docs[0].UpdatedAt.After(docs[1].UpdatedAt) {
		t.Error("Expected most recently updated first")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	store := newTestStore(3)
	ctx := context.Background()

	var first string
	for i := 0; i < 5; i++ {
		at := fixedNow.Add(time.Duration(i) * time.Second)
		store.now = func() time.Time { return at }
		doc, err := store.CreateDocument(ctx, model.DocumentPayload{DocumentID: "t", Owner: "maria"})
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = doc.ID
		}
	}

	if store.Count() != 3 {
		t.Errorf("Expected 3 documents after cleanup, got %d", store.Count())
	}
	if _, err := store.GetDocument(ctx, first); !apperr.IsNotFound(err) {
		t.Error("Expected oldest document to be removed")
	}
}

func TestMemoryStoreLibrary(t *testing.T) {
	store := newTestStore(0)
	ctx := context.Background()

	items := []model.LibraryItem{
		{Owner: "maria", Name: "Escritório", Value: "Rua X, 123", Tags: []string{"endereco"}},
		{Owner: "maria", Name: "Banco", Value: "Agência 0001", FrequentUse: true},
		{Owner: "joao", Name: "Escritório SP", Value: "Av. Paulista, 1000"},
	}
	var created []*model.LibraryItem
	for _, it := range items {
		c, err := store.CreateLibraryItem(ctx, it)
		if err != nil {
			t.Fatalf("CreateLibraryItem failed: %v", err)
		}
		created = append(created, c)
	}

	tests := []struct {
		name  string
		owner string
		query string
		want  []string
	}{
		{"empty query lists owner items frequent first", "maria", "", []string{"Banco", "Escritório"}},
		{"matches name case-insensitively", "maria", "escr", []string{"Escritório"}},
		{"matches tags", "maria", "ENDERECO", []string{"Escritório"}},
		{"scoped to owner", "joao", "", []string{"Escritório SP"}},
		{"no match", "maria", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.SearchLibrary(ctx, tt.owner, tt.query, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %d items", tt.want, len(got))
			}
			for i := range got {
				if got[i].Name != tt.want[i] {
					t.Errorf("Item %d: expected %s, got %s", i, tt.want[i], got[i].Name)
				}
			}
		})
	}

	if _, err := store.CreateLibraryItem(ctx, model.LibraryItem{Owner: "maria", Name: "sem valor"}); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if err := store.DeleteLibraryItem(ctx, "joao", created[0].ID); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found when deleting another owner's item, got %v", err)
	}
	if err := store.DeleteLibraryItem(ctx, "maria", created[0].ID); err != nil {
		t.Errorf("DeleteLibraryItem failed: %v", err)
	}
}
