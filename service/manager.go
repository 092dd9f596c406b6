package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/pkg/textfmt"
)

type sessionEntry struct {
	session  *Session
	lastUsed time.Time
}

// SessionManager keeps one live session per user document and evicts
// sessions that have been idle longer than the TTL.
type SessionManager struct {
	templates TemplateSource
	documents DocumentRepository
	autosaver *Autosaver
	ttl       time.Duration
	now       func() time.Time
	notify    func(Event)
	completed func(*model.UserDocument, *model.DocumentTemplate)

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionManager(templates TemplateSource, documents DocumentRepository, autosaver *Autosaver, ttl time.Duration) *SessionManager {
	return &SessionManager{
		templates: templates,
		documents: documents,
		autosaver: autosaver,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}
}

// SetNotifier routes session events to fn. Call before creating sessions.
func (m *SessionManager) SetNotifier(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// SetOnComplete registers fn to run whenever a session finalizes its
// document, by finalize or by download. fn runs under the session lock and
// must not block. Call before creating sessions.
func (m *SessionManager) SetOnComplete(fn func(*model.UserDocument, *model.DocumentTemplate)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = fn
}

func (m *SessionManager) deps() SessionDeps {
	completed := m.completed
	return SessionDeps{
		Documents: m.documents,
		Autosaver: m.autosaver,
		Notify:    m.notify,
		Now:       m.now,
		OnComplete: func(doc *model.UserDocument, tmpl *model.DocumentTemplate) {
			slog.Info("wizard document completed", "document_id", doc.ID, "template_id", tmpl.ID, "owner", doc.Owner)
			if completed != nil {
				completed(doc, tmpl)
			}
		},
	}
}

// Start opens a fresh wizard over a template.
func (m *SessionManager) Start(ctx context.Context, owner, tenant, templateID string) (*Session, error) {
	tmpl, err := m.templates.FetchTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := NewSession(tmpl, owner, tenant, m.deps())
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = &sessionEntry{session: s, lastUsed: m.now()}
	slog.Debug("wizard session started", "session_id", s.ID(), "template_id", templateID, "owner", owner)
	return s, nil
}

// Resume returns the live session of a document, or rebuilds one from the
// saved document.
func (m *SessionManager) Resume(ctx context.Context, owner, documentID string) (*Session, error) {
	if s := m.findByDocument(documentID); s != nil {
		if s.Owner() != owner {
			return nil, apperr.Forbidden("documento pertence a outro usuário")
		}
		return s, nil
	}

	doc, err := m.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Owner != owner {
		return nil, apperr.Forbidden("documento pertence a outro usuário")
	}
	tmpl, err := m.templates.FetchTemplate(ctx, doc.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading template of document %s: %w", doc.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have resumed it meanwhile
	for _, e := range m.sessions {
		if e.session.DocumentID() == documentID {
			e.lastUsed = m.now()
			return e.session, nil
		}
	}
	s, err := ResumeSession(doc, tmpl, m.deps())
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = &sessionEntry{session: s, lastUsed: m.now()}
	slog.Debug("wizard session resumed", "session_id", s.ID(), "document_id", documentID, "step", doc.CurrentStep)
	return s, nil
}

func (m *SessionManager) findByDocument(documentID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.sessions {
		if e.session.DocumentID() == documentID {
			e.lastUsed = m.now()
			return e.session
		}
	}
	return nil
}

// Get returns a live session owned by owner.
func (m *SessionManager) Get(owner, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("sessão %s não encontrada", sessionID))
	}
	if e.session.Owner() != owner {
		return nil, apperr.Forbidden("sessão pertence a outro usuário")
	}
	e.lastUsed = m.now()
	return e.session, nil
}

// Close cancels and forgets a session.
func (m *SessionManager) Close(owner, sessionID string) error {
	s, err := m.Get(owner, sessionID)
	if err != nil {
		return err
	}
	s.Cancel()
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// EvictIdle drops sessions idle for longer than the TTL. Sessions with a
// pending or running autosave are kept until it completes. The registry
// lock is not held while sessions are inspected.
func (m *SessionManager) EvictIdle() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	cutoff := m.now().Add(-m.ttl)
	idle := make(map[string]*Session)
	for id, e := range m.sessions {
		if !e.lastUsed.After(cutoff) {
			idle[id] = e.session
		}
	}
	m.mu.Unlock()

	for id, s := range idle {
		if s.autosavePending() {
			delete(idle, id)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range idle {
		e, ok := m.sessions[id]
		// used again meanwhile
		if !ok || e.session != s || e.lastUsed.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	if evicted > 0 {
		slog.Info("evicted idle wizard sessions", "count", evicted)
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is done.
func (m *SessionManager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// LoadDocument returns an owner's document with its generated text filled
// in from the answers when the stored copy is empty.
func (m *SessionManager) LoadDocument(ctx context.Context, owner, documentID string) (*model.UserDocument, *model.DocumentTemplate, error) {
	doc, err := m.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if doc.Owner != owner {
		return nil, nil, apperr.Forbidden("documento pertence a outro usuário")
	}
	tmpl, err := m.templates.FetchTemplate(ctx, doc.DocumentID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading template of document %s: %w", doc.ID, err)
	}
	if doc.GeneratedText == "" {
		doc.GeneratedText = textfmt.Compose(tmpl, doc.Answers, m.now())
	}
	return doc, tmpl, nil
}
