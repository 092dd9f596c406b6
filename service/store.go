package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/google/uuid"
)

// MemoryStore keeps templates, user documents and library items in process.
// It backs the "memory" database driver and tests.
type MemoryStore struct {
	templates    map[string]model.DocumentTemplate
	documents    map[string]*model.UserDocument
	library      map[string]model.LibraryItem
	mu           sync.RWMutex
	maxDocuments int // 0 = unlimited
	now          func() time.Time
}

func NewMemoryStore(cfg *config.StoreConfig) *MemoryStore {
	maxDocuments := cfg.MaxDocuments
	if maxDocuments < 0 {
		maxDocuments = 0
	}
	slog.Info("memory store initialized", "max_documents", maxDocuments)
	return &MemoryStore{
		templates:    make(map[string]model.DocumentTemplate),
		documents:    make(map[string]*model.UserDocument),
		library:      make(map[string]model.LibraryItem),
		maxDocuments: maxDocuments,
		now:          time.Now,
	}
}

// PutTemplate adds or replaces a template after validating it.
func (s *MemoryStore) PutTemplate(_ context.Context, t model.DocumentTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
	return nil
}

func (s *MemoryStore) FetchTemplate(_ context.Context, id string) (*model.DocumentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("modelo %s não encontrado", id))
	}
	return &t, nil
}

func (s *MemoryStore) ListTemplates(_ context.Context) ([]model.DocumentTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DocumentTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, p model.DocumentPayload) (*model.UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	doc := &model.UserDocument{
		ID:         uuid.New().String(),
		DocumentID: p.DocumentID,
		Tenant:     p.Tenant,
		Owner:      p.Owner,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	doc.Apply(p)
	s.documents[doc.ID] = doc

	s.cleanupIfNeeded()
	return doc.Clone(), nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, id string, p model.DocumentPayload) (*model.UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("documento %s não encontrado", id))
	}
	doc.Apply(p)
	doc.UpdatedAt = s.now().UTC()
	return doc.Clone(), nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*model.UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("documento %s não encontrado", id))
	}
	return doc.Clone(), nil
}

// ListDocuments returns the owner's documents, most recently updated first.
func (s *MemoryStore) ListDocuments(_ context.Context, owner string) ([]*model.UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.UserDocument
	for _, d := range s.documents {
		if d.Owner == owner {
			result = append(result, d.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (s *MemoryStore) SearchLibrary(_ context.Context, owner, query string, limit int) ([]model.LibraryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.LibraryItem
	for _, it := range s.library {
		if it.Owner == owner {
			items = append(items, it)
		}
	}
	return model.SearchLibrary(items, query, limit), nil
}

func (s *MemoryStore) CreateLibraryItem(_ context.Context, item model.LibraryItem) (*model.LibraryItem, error) {
	if err := validateLibraryItem(item); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = s.now().UTC()
	s.library[item.ID] = item
	return &item, nil
}

func (s *MemoryStore) DeleteLibraryItem(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.library[id]
	if !ok || it.Owner != owner {
		return apperr.NotFound(fmt.Sprintf("item %s não encontrado", id))
	}
	delete(s.library, id)
	return nil
}

func validateLibraryItem(item model.LibraryItem) error {
	if strings.TrimSpace(item.Owner) == "" {
		return apperr.Validation("owner", "dono do item é obrigatório")
	}
	if strings.TrimSpace(item.Name) == "" {
		return apperr.Validation("name", "nome do item é obrigatório")
	}
	if strings.TrimSpace(item.Value) == "" {
		return apperr.Validation("value", "valor do item é obrigatório")
	}
	return nil
}

// cleanupIfNeeded removes the oldest documents once maxDocuments is exceeded.
// Must be called with lock held
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxDocuments <= 0 || len(s.documents) <= s.maxDocuments {
		return
	}

	docs := make([]*model.UserDocument, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	removeCount := len(docs) - s.maxDocuments
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old document",
			"document_id", docs[i].ID,
			"created_at", docs[i].CreatedAt,
		)
		delete(s.documents, docs[i].ID)
	}
}

// Count returns the number of documents in the store
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
