package service

import (
	"context"
	"errors"

	"github.com/AnTengye/jurieasy/model"
)

// TemplateSource provides read-only templates.
type TemplateSource interface {
	FetchTemplate(ctx context.Context, id string) (*model.DocumentTemplate, error)
	ListTemplates(ctx context.Context) ([]model.DocumentTemplate, error)
}

// DocumentRepository persists user documents. Timestamps are set by the
// implementation.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, p model.DocumentPayload) (*model.UserDocument, error)
	UpdateDocument(ctx context.Context, id string, p model.DocumentPayload) (*model.UserDocument, error)
	GetDocument(ctx context.Context, id string) (*model.UserDocument, error)
	ListDocuments(ctx context.Context, owner string) ([]*model.UserDocument, error)
}

// LibraryRepository stores per-owner reusable snippets.
type LibraryRepository interface {
	SearchLibrary(ctx context.Context, owner, query string, limit int) ([]model.LibraryItem, error)
	CreateLibraryItem(ctx context.Context, item model.LibraryItem) (*model.LibraryItem, error)
	DeleteLibraryItem(ctx context.Context, owner, id string) error
}

var (
	// ErrSaveInProgress is returned when a save for the same document is
	// already running.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNoTemplate is returned when a session is built without a template.
	ErrNoTemplate = errors.New("template is required")
)
