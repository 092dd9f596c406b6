package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AnTengye/jurieasy/model"
)

// SignatureStore is an in-memory registry of e-signature requests. Requests
// are short-lived hand-off state; the provider holds the signed document.
type SignatureStore struct {
	requests    map[string]*model.SignatureRequest
	mu          sync.RWMutex
	maxRequests int // 0 = unlimited
}

func NewSignatureStore(maxRequests int) *SignatureStore {
	if maxRequests < 0 {
		maxRequests = 0
	}
	return &SignatureStore{
		requests:    make(map[string]*model.SignatureRequest),
		maxRequests: maxRequests,
	}
}

func (s *SignatureStore) Save(req *model.SignatureRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.UpdatedAt = time.Now()
	cp := *req
	s.requests[req.ID] = &cp

	s.cleanupIfNeeded()
}

func (s *SignatureStore) Get(id string) *model.SignatureRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

// ListByDocument returns requests for one user document, newest first.
func (s *SignatureStore) ListByDocument(documentID string) []*model.SignatureRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.SignatureRequest
	for _, r := range s.requests {
		if r.DocumentID == documentID {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *SignatureStore) UpdateStatus(id string, state model.SignatureState, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		r.State = state
		r.ErrorMsg = errMsg
		r.UpdatedAt = time.Now()
	}
}

// UpdateEnvelope records the provider's envelope after submission.
func (s *SignatureStore) UpdateEnvelope(id, envelopeID, signURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		r.EnvelopeID = envelopeID
		r.SignURL = signURL
		r.State = model.SignatureSent
		r.UpdatedAt = time.Now()
	}
}

// cleanupIfNeeded removes oldest requests if store exceeds maxRequests
// Must be called with lock held
func (s *SignatureStore) cleanupIfNeeded() {
	if s.maxRequests <= 0 || len(s.requests) <= s.maxRequests {
		return
	}

	requests := make([]*model.SignatureRequest, 0, len(s.requests))
	for _, r := range s.requests {
		requests = append(requests, r)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	removeCount := len(requests) - s.maxRequests
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old signature request",
			"request_id", requests[i].ID,
			"created_at", requests[i].CreatedAt,
		)
		delete(s.requests, requests[i].ID)
	}
}

func (s *SignatureStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}
