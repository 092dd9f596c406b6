package service

import (
	"testing"
	"time"

	"github.com/AnTengye/jurieasy/model"
)

func TestSignatureStoreSaveAndGet(t *testing.T) {
	store := NewSignatureStore(0)
	req := &model.SignatureRequest{ID: "r1", DocumentID: "doc-1", State: model.SignaturePending, CreatedAt: fixedNow}
	store.Save(req)

	got := store.Get("r1")
	if got == nil || got.State != model.SignaturePending {
		t.Fatalf("Expected pending request, got %+v", got)
	}
	got.State = model.SignatureSigned
	if store.Get("r1").State != model.SignaturePending {
		t.Error("Expected Get to return a copy")
	}
	if store.Get("missing") != nil {
		t.Error("Expected nil for unknown id")
	}
}

func TestSignatureStoreUpdates(t *testing.T) {
	store := NewSignatureStore(0)
	store.Save(&model.SignatureRequest{ID: "r1", State: model.SignaturePending, CreatedAt: fixedNow})

	store.UpdateEnvelope("r1", "env-1", "https://sign/env-1")
	if r := store.Get("r1"); r.State != model.SignatureSent || r.EnvelopeID != "env-1" {
		t.Errorf("Expected sent with envelope, got %+v", r)
	}
	store.UpdateStatus("r1", model.SignatureFailed, "timeout")
	if r := store.Get("r1"); r.State != model.SignatureFailed || r.ErrorMsg != "timeout" {
		t.Errorf("Expected failed, got %+v", r)
	}
	// unknown ids are ignored
	store.UpdateStatus("missing", model.SignatureSigned, "")
	if store.Count() != 1 {
		t.Errorf("Expected 1 request, got %d", store.Count())
	}
}

func TestSignatureStoreListAndCleanup(t *testing.T) {
	store := NewSignatureStore(2)
	for i, id := range []string{"r1", "r2", "r3"} {
		store.Save(&model.SignatureRequest{ID: id, DocumentID: "doc-1", CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute)})
	}

	if store.Count() != 2 {
		t.Errorf("Expected cleanup to keep 2, got %d", store.Count())
	}
	if store.Get("r1") != nil {
		t.Error("Expected oldest request removed")
	}
	list := store.ListByDocument("doc-1")
	if len(list) != 2 || list[0].ID != "r3" {
		t.Errorf("Expected newest first, got %+v", list)
	}
}
