package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists templates, user documents and library items in a
// local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at dbPath, enables WAL
// mode and foreign keys, and applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

type templateRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Category     string    `db:"category"`
	Variables    string    `db:"variables"`
	TemplateText string    `db:"template_text"`
	Witnesses    string    `db:"witnesses"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r templateRow) toModel() (*model.DocumentTemplate, error) {
	t := &model.DocumentTemplate{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		TemplateText: r.TemplateText,
	}
	if err := json.Unmarshal([]byte(r.Variables), &t.Variables); err != nil {
		return nil, fmt.Errorf("unmarshaling variables for template %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Witnesses), &t.Witnesses); err != nil {
		return nil, fmt.Errorf("unmarshaling witnesses for template %s: %w", r.ID, err)
	}
	return t, nil
}

// PutTemplate validates t and inserts or replaces it.
func (s *SQLiteStore) PutTemplate(ctx context.Context, t model.DocumentTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	variables, err := json.Marshal(t.Variables)
	if err != nil {
		return fmt.Errorf("marshaling variables for template %s: %w", t.ID, err)
	}
	witnesses := []byte("[]")
	if len(t.Witnesses) > 0 {
		if witnesses, err = json.Marshal(t.Witnesses); err != nil {
			return fmt.Errorf("marshaling witnesses for template %s: %w", t.ID, err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (id, title, description, category, variables, template_text, witnesses, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, description = excluded.description, category = excluded.category,
			variables = excluded.variables, template_text = excluded.template_text,
			witnesses = excluded.witnesses, updated_at = excluded.updated_at`,
		t.ID, t.Title, t.Description, t.Category, string(variables), t.TemplateText, string(witnesses), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting template %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLiteStore) FetchTemplate(ctx context.Context, id string) (*model.DocumentTemplate, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM templates WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(fmt.Sprintf("modelo %s não encontrado", id))
	}
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", id, err)
	}
	return row.toModel()
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.DocumentTemplate, error) {
	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM templates ORDER BY title"); err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	out := make([]model.DocumentTemplate, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

type documentRow struct {
	ID            string    `db:"id"`
	DocumentID    string    `db:"document_id"`
	Tenant        string    `db:"tenant"`
	Owner         string    `db:"owner"`
	Answers       string    `db:"answers"`
	CurrentStep   int       `db:"current_step"`
	TotalSteps    int       `db:"total_steps"`
	Status        string    `db:"status"`
	GeneratedText string    `db:"generated_text"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r documentRow) toModel() (*model.UserDocument, error) {
	d := &model.UserDocument{
		ID:            r.ID,
		DocumentID:    r.DocumentID,
		Tenant:        r.Tenant,
		Owner:         r.Owner,
		CurrentStep:   r.CurrentStep,
		TotalSteps:    r.TotalSteps,
		Status:        model.DocumentStatus(r.Status),
		GeneratedText: r.GeneratedText,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Answers), &d.Answers); err != nil {
		return nil, fmt.Errorf("unmarshaling answers for document %s: %w", r.ID, err)
	}
	if d.Answers == nil {
		d.Answers = model.Answers{}
	}
	return d, nil
}

func marshalAnswers(a model.Answers) (string, error) {
	if a == nil {
		return "{}", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, p model.DocumentPayload) (*model.UserDocument, error) {
	answers, err := marshalAnswers(p.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshaling answers: %w", err)
	}
	id := uuid.New().String()
	now := s.now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_documents (
			id, document_id, tenant, owner, answers,
			current_step, total_steps, status, generated_text,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.DocumentID, p.Tenant, p.Owner, answers,
		p.CurrentStep, p.TotalSteps, string(p.Status), p.GeneratedText,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	return s.GetDocument(ctx, id)
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, id string, p model.DocumentPayload) (*model.UserDocument, error) {
	answers, err := marshalAnswers(p.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshaling answers: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE user_documents SET
			answers = ?, current_step = ?, total_steps = ?,
			status = ?, generated_text = ?, updated_at = ?
		WHERE id = ?`,
		answers, p.CurrentStep, p.TotalSteps,
		string(p.Status), p.GeneratedText, s.now().UTC(),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating document %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("documento %s não encontrado", id))
	}
	return s.GetDocument(ctx, id)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.UserDocument, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM user_documents WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(fmt.Sprintf("documento %s não encontrado", id))
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	return row.toModel()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, owner string) ([]*model.UserDocument, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM user_documents WHERE owner = ? ORDER BY updated_at DESC", owner)
	if err != nil {
		return nil, fmt.Errorf("listing documents for %s: %w", owner, err)
	}
	out := make([]*model.UserDocument, 0, len(rows))
	for _, r := range rows {
		d, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type libraryRow struct {
	ID          string    `db:"id"`
	Owner       string    `db:"owner"`
	Name        string    `db:"name"`
	Value       string    `db:"value"`
	Tags        string    `db:"tags"`
	FrequentUse bool      `db:"frequent_use"`
	CreatedAt   time.Time `db:"created_at"`
}

// SearchLibrary loads the owner's items and applies the shared matching
// and ordering rules.
func (s *SQLiteStore) SearchLibrary(ctx context.Context, owner, query string, limit int) ([]model.LibraryItem, error) {
	var rows []libraryRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM library_items WHERE owner = ?", owner); err != nil {
		return nil, fmt.Errorf("listing library items for %s: %w", owner, err)
	}
	items := make([]model.LibraryItem, 0, len(rows))
	for _, r := range rows {
		it := model.LibraryItem{
			ID:          r.ID,
			Owner:       r.Owner,
			Name:        r.Name,
			Value:       r.Value,
			FrequentUse: r.FrequentUse,
			CreatedAt:   r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Tags), &it.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags for library item %s: %w", r.ID, err)
		}
		items = append(items, it)
	}
	return model.SearchLibrary(items, query, limit), nil
}

func (s *SQLiteStore) CreateLibraryItem(ctx context.Context, item model.LibraryItem) (*model.LibraryItem, error) {
	if err := validateLibraryItem(item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.CreatedAt = s.now().UTC()
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshaling tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO library_items (id, owner, name, value, tags, frequent_use, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Owner, item.Name, item.Value, string(tags), item.FrequentUse, item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating library item: %w", err)
	}
	return &item, nil
}

func (s *SQLiteStore) DeleteLibraryItem(ctx context.Context, owner, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM library_items WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return fmt.Errorf("deleting library item %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound(fmt.Sprintf("item %s não encontrado", id))
	}
	return nil
}
