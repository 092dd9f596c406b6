package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/pkg/textfmt"
	"github.com/google/uuid"
)

// Phase is the wizard state of a session.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseGenerating Phase = "generating"
	PhasePreviewing Phase = "previewing"
	PhaseCompleted  Phase = "completed"
	PhaseCancelled  Phase = "cancelled"
)

type EventKind string

const (
	EventSaved          EventKind = "saved"
	EventAutosaved      EventKind = "autosaved"
	EventAutosaveFailed EventKind = "autosave_failed"
	EventGenerated      EventKind = "generated"
	EventFinalized      EventKind = "finalized"
)

// Event reports a persistence outcome of a session.
type Event struct {
	Kind       EventKind            `json:"type"`
	SessionID  string               `json:"session_id"`
	DocumentID string               `json:"document_id,omitempty"`
	Status     model.DocumentStatus `json:"status,omitempty"`
	Step       int                  `json:"step"`
	Error      string               `json:"error,omitempty"`
	At         time.Time            `json:"at"`
}

// SessionDeps are the collaborators of a wizard session. Autosaver and
// Notify are optional.
type SessionDeps struct {
	Documents  DocumentRepository
	Autosaver  *Autosaver
	Notify     func(Event)
	OnComplete func(*model.UserDocument, *model.DocumentTemplate)
	Now        func() time.Time
}

// Session walks one user through the variables of a template. All methods
// are safe for concurrent use; autosave callbacks run on timer goroutines.
type Session struct {
	mu     sync.Mutex
	id     string
	owner  string
	tenant string
	tmpl   *model.DocumentTemplate
	deps   SessionDeps

	phase   Phase
	step    int
	answers model.Answers
	docID   string
	status  model.DocumentStatus
	text    string

	// published mirrors docID for readers that must not wait on mu.
	published atomic.Value
}

// SessionState is a read-only snapshot of a session.
type SessionState struct {
	ID            string                  `json:"session_id"`
	DocumentID    string                  `json:"document_id,omitempty"`
	TemplateID    string                  `json:"template_id"`
	Phase         Phase                   `json:"phase"`
	Step          int                     `json:"step"`
	TotalSteps    int                     `json:"total_steps"`
	Current       *model.TemplateVariable `json:"current,omitempty"`
	Answers       model.Answers           `json:"answers"`
	Status        model.DocumentStatus    `json:"status,omitempty"`
	GeneratedText string                  `json:"generated_text,omitempty"`
}

// NewSession starts a wizard at step 0 with no backing document.
func NewSession(tmpl *model.DocumentTemplate, owner, tenant string, deps SessionDeps) (*Session, error) {
	if tmpl == nil {
		return nil, ErrNoTemplate
	}
	if deps.Documents == nil {
		return nil, fmt.Errorf("document repository is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		id:      uuid.New().String(),
		owner:   owner,
		tenant:  tenant,
		tmpl:    tmpl,
		deps:    deps,
		phase:   PhaseEditing,
		answers: model.Answers{},
	}, nil
}

// ResumeSession rebuilds a session from a saved document. Step and answers
// are restored as saved; the step count comes from the current template.
func ResumeSession(doc *model.UserDocument, tmpl *model.DocumentTemplate, deps SessionDeps) (*Session, error) {
	if doc.DocumentID != tmpl.ID {
		return nil, apperr.Validation("document_id", fmt.Sprintf("documento %s não pertence ao modelo %s", doc.ID, tmpl.ID))
	}
	s, err := NewSession(tmpl, doc.Owner, doc.Tenant, deps)
	if err != nil {
		return nil, err
	}
	s.docID = doc.ID
	s.published.Store(doc.ID)
	s.status = doc.Status
	s.answers = doc.Answers.Clone()
	if s.answers == nil {
		s.answers = model.Answers{}
	}
	s.text = doc.GeneratedText

	total := tmpl.TotalSteps()
	if doc.Status == model.StatusCompleted {
		s.phase = PhasePreviewing
		s.step = total
		if strings.TrimSpace(s.text) == "" {
			s.text = textfmt.Compose(tmpl, s.answers, s.deps.Now())
		}
		return s, nil
	}
	s.step = doc.CurrentStep
	if s.step >= total {
		s.step = total - 1
	}
	if s.step < 0 {
		s.step = 0
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Owner() string { return s.owner }

func (s *Session) Template() *model.DocumentTemplate { return s.tmpl }

// DocumentID is the backing user document, empty before the first save.
// It never blocks on a running save.
func (s *Session) DocumentID() string {
	id, _ := s.published.Load().(string)
	return id
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) GeneratedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Session) Answers() model.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionState{
		ID:            s.id,
		DocumentID:    s.docID,
		TemplateID:    s.tmpl.ID,
		Phase:         s.phase,
		Step:          s.step,
		TotalSteps:    s.tmpl.TotalSteps(),
		Answers:       s.answers.Clone(),
		Status:        s.status,
		GeneratedText: s.text,
	}
	if s.phase == PhaseEditing && s.step < st.TotalSteps {
		v := s.tmpl.Variables[s.step]
		st.Current = &v
	}
	return st
}

func (s *Session) wrongPhase(op string) error {
	return apperr.Conflict(fmt.Sprintf("%s não é permitido na fase %s", op, s.phase))
}

// Current returns the variable asked at the current step.
func (s *Session) Current() (model.TemplateVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return model.TemplateVariable{}, s.wrongPhase("current")
	}
	if s.step >= s.tmpl.TotalSteps() {
		return model.TemplateVariable{}, apperr.Conflict("modelo sem perguntas")
	}
	return s.tmpl.Variables[s.step], nil
}

// SetAnswer records a value without validating or advancing, as typed.
func (s *Session) SetAnswer(id string, value model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return s.wrongPhase("set answer")
	}
	if _, ok := s.tmpl.Variable(id); !ok {
		return apperr.Validation(id, fmt.Sprintf("campo %s não existe no modelo", id))
	}
	s.answers[id] = value
	s.scheduleAutosave()
	return nil
}

// Submit answers the current step. A blank value for a required variable
// is rejected and the step does not change. The last step generates.
func (s *Session) Submit(ctx context.Context, value model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return s.wrongPhase("submit")
	}
	total := s.tmpl.TotalSteps()
	if s.step >= total {
		return apperr.Conflict("modelo sem perguntas")
	}
	v := s.tmpl.Variables[s.step]
	if err := v.CheckAnswer(value); err != nil {
		return err
	}
	s.answers[v.ID] = value
	if s.step+1 < total {
		s.step++
		s.scheduleAutosave()
		return nil
	}
	return s.generateLocked(ctx)
}

// SubmitAll answers every variable at once and generates.
func (s *Session) SubmitAll(ctx context.Context, answers model.Answers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return s.wrongPhase("submit all")
	}
	for _, v := range s.tmpl.Variables {
		if err := v.CheckAnswer(answers[v.ID]); err != nil {
			return err
		}
	}
	for _, v := range s.tmpl.Variables {
		if a, ok := answers[v.ID]; ok {
			s.answers[v.ID] = a
		}
	}
	if total := s.tmpl.TotalSteps(); total > 0 {
		s.step = total - 1
	}
	return s.generateLocked(ctx)
}

// Back moves one step back, or cancels the wizard from the first step.
// Cancelling never persists.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return s.wrongPhase("back")
	}
	if s.step > 0 {
		s.step--
		s.scheduleAutosave()
		return nil
	}
	s.cancelLocked()
	return nil
}

// Cancel leaves the wizard. Already persisted drafts are kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseCompleted {
		return
	}
	s.cancelLocked()
}

func (s *Session) cancelLocked() {
	s.phase = PhaseCancelled
	s.cancelAutosave()
}

// SaveDraft persists answers and step and stays on the step. The first
// save creates the document as a draft; later saves mark it in progress.
func (s *Session) SaveDraft(ctx context.Context) (*model.UserDocument, error) {
	s.mu.Lock()
	if s.phase != PhaseEditing {
		err := s.wrongPhase("save draft")
		s.mu.Unlock()
		return nil, err
	}
	key := s.saveKey()
	s.mu.Unlock()

	var doc *model.UserDocument
	save := func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase != PhaseEditing {
			return s.wrongPhase("save draft")
		}
		status := model.StatusDraft
		if s.docID != "" {
			status = model.StatusInProgress
		}
		d, err := s.persistLocked(ctx, status, textfmt.Compose(s.tmpl, s.answers, s.deps.Now()))
		if err != nil {
			return err
		}
		doc = d
		s.emit(EventSaved, nil)
		return nil
	}

	var err error
	if s.deps.Autosaver != nil {
		err = s.deps.Autosaver.SaveNow(ctx, key, save)
	} else {
		err = save(ctx)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Generate composes the final text and persists the document as completed.
// On failure the session returns to editing and nothing is persisted.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return s.wrongPhase("generate")
	}
	return s.generateLocked(ctx)
}

func (s *Session) generateLocked(ctx context.Context) error {
	for _, v := range s.tmpl.Variables {
		if err := v.CheckAnswer(s.answers[v.ID]); err != nil {
			return err
		}
	}

	prevPhase, prevStep := s.phase, s.step
	s.phase = PhaseGenerating
	s.cancelAutosave()

	s.step = s.tmpl.TotalSteps()
	text := textfmt.Compose(s.tmpl, s.answers, s.deps.Now())
	if _, err := s.persistLocked(ctx, model.StatusCompleted, text); err != nil {
		s.phase, s.step = prevPhase, prevStep
		return err
	}
	s.phase = PhasePreviewing
	s.emit(EventGenerated, nil)
	return nil
}

// EditText replaces the generated text with a free-text edit. Answers are
// not touched.
func (s *Session) EditText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhasePreviewing && s.phase != PhaseCompleted {
		return s.wrongPhase("edit text")
	}
	s.text = text
	s.phase = PhasePreviewing
	return nil
}

// EditAnswer changes one answer from the preview. The text is not
// re-substituted.
func (s *Session) EditAnswer(id string, value model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhasePreviewing && s.phase != PhaseCompleted {
		return s.wrongPhase("edit answer")
	}
	v, ok := s.tmpl.Variable(id)
	if !ok {
		return apperr.Validation(id, fmt.Sprintf("campo %s não existe no modelo", id))
	}
	if err := v.CheckAnswer(value); err != nil {
		return err
	}
	s.answers[id] = value
	s.phase = PhasePreviewing
	return nil
}

// Finalize persists preview edits to text and answers together and marks
// the session completed. It may be called again after further edits.
// OnComplete runs with the session locked and must not block.
func (s *Session) Finalize(ctx context.Context) (*model.UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhasePreviewing && s.phase != PhaseCompleted {
		return nil, s.wrongPhase("finalize")
	}
	prevStep := s.step
	s.step = s.tmpl.TotalSteps()
	doc, err := s.persistLocked(ctx, model.StatusCompleted, s.text)
	if err != nil {
		s.step = prevStep
		return nil, err
	}
	s.phase = PhaseCompleted
	s.emit(EventFinalized, nil)
	if s.deps.OnComplete != nil {
		s.deps.OnComplete(doc.Clone(), s.tmpl)
	}
	return doc, nil
}

// persistLocked writes the session with text to the repository. The session
// text changes only once the write succeeds. Must be called with lock held.
func (s *Session) persistLocked(ctx context.Context, status model.DocumentStatus, text string) (*model.UserDocument, error) {
	p := model.DocumentPayload{
		DocumentID:    s.tmpl.ID,
		Tenant:        s.tenant,
		Owner:         s.owner,
		Answers:       s.answers.Clone(),
		CurrentStep:   s.step,
		TotalSteps:    s.tmpl.TotalSteps(),
		Status:        status,
		GeneratedText: text,
	}
	var (
		doc *model.UserDocument
		err error
	)
	if s.docID == "" {
		doc, err = s.deps.Documents.CreateDocument(ctx, p)
	} else {
		doc, err = s.deps.Documents.UpdateDocument(ctx, s.docID, p)
	}
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	s.docID = doc.ID
	s.published.Store(doc.ID)
	s.status = doc.Status
	s.text = text
	return doc, nil
}

// saveKey identifies the document for the in-flight guard.
func (s *Session) saveKey() string {
	if s.docID != "" {
		return s.docID
	}
	return "session:" + s.id
}

// scheduleAutosave arms a debounced save once a backing document exists.
// Must be called with lock held.
func (s *Session) scheduleAutosave() {
	if s.deps.Autosaver == nil || s.docID == "" || s.phase != PhaseEditing {
		return
	}
	s.deps.Autosaver.Schedule(s.docID, s.autosave)
}

func (s *Session) cancelAutosave() {
	if s.deps.Autosaver != nil && s.docID != "" {
		s.deps.Autosaver.Cancel(s.docID)
	}
}

// autosavePending does not take mu, so a slow save cannot stall callers.
func (s *Session) autosavePending() bool {
	id := s.DocumentID()
	if s.deps.Autosaver == nil || id == "" {
		return false
	}
	return s.deps.Autosaver.Pending(id) || s.deps.Autosaver.InFlight(id)
}

func (s *Session) autosave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing || s.docID == "" {
		return nil
	}
	if _, err := s.persistLocked(ctx, model.StatusInProgress, textfmt.Compose(s.tmpl, s.answers, s.deps.Now())); err != nil {
		s.emit(EventAutosaveFailed, err)
		return err
	}
	s.emit(EventAutosaved, nil)
	return nil
}

// emit must be called with lock held; Notify must not call back into the
// session.
func (s *Session) emit(kind EventKind, err error) {
	if s.deps.Notify == nil {
		return
	}
	ev := Event{
		Kind:       kind,
		SessionID:  s.id,
		DocumentID: s.docID,
		Status:     s.status,
		Step:       s.step,
		At:         s.deps.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.deps.Notify(ev)
}
