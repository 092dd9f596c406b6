package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/apperr"
	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/render"
	"github.com/google/uuid"
)

// ExportInput is one export of a user document. Text overrides the
// document's stored text when set.
type ExportInput struct {
	Document *model.UserDocument
	Template *model.DocumentTemplate
	Text     string
	Logo     []byte
	Format   render.Format
	// Store uploads the artifact and returns a download URL instead of bytes.
	Store bool
}

type ExportResult struct {
	Artifact  *render.Artifact
	URL       string
	Signature *model.SignatureRequest
}

// ExportService renders documents and routes the artifact to download,
// object storage or the signing provider.
type ExportService struct {
	exporter   *render.Exporter
	artifacts  ArtifactStore
	esign      *ESignService
	signatures *SignatureStore

	pollInterval time.Duration
	pollAttempts int
}

// NewExportService wires the exporter; artifacts and esign may be nil.
func NewExportService(exporter *render.Exporter, artifacts ArtifactStore, esign *ESignService, signatures *SignatureStore) *ExportService {
	return &ExportService{
		exporter:     exporter,
		artifacts:    artifacts,
		esign:        esign,
		signatures:   signatures,
		pollInterval: 5 * time.Second,
		pollAttempts: 60,
	}
}

// SetPolling overrides the e-sign status polling schedule.
func (s *ExportService) SetPolling(interval time.Duration, attempts int) {
	s.pollInterval = interval
	s.pollAttempts = attempts
}

func (s *ExportService) Storing() bool { return s.artifacts != nil }

func (s *ExportService) Signing() bool { return s.esign.Enabled() && s.signatures != nil }

func (s *ExportService) request(in ExportInput) render.Request {
	text := in.Text
	if text == "" {
		text = in.Document.GeneratedText
	}
	return render.Request{
		Title:     in.Template.Title,
		Text:      text,
		Witnesses: in.Template.Witnesses,
		Logo:      in.Logo,
		Format:    in.Format,
	}
}

// Export renders the document. For the esign format the PDF is submitted
// to the provider in the background and a pending request is returned.
func (s *ExportService) Export(ctx context.Context, in ExportInput) (*ExportResult, error) {
	if in.Document == nil || in.Template == nil {
		return nil, ErrNoTemplate
	}
	if in.Format == render.FormatESign && !s.Signing() {
		return nil, apperr.Validation("format", "assinatura eletrônica não configurada")
	}
	if in.Store && s.artifacts == nil {
		return nil, apperr.Validation("store", "armazenamento de arquivos não configurado")
	}

	ctx = logger.WithDocumentID(ctx, in.Document.ID)
	artifact, err := s.exporter.Export(ctx, s.request(in))
	if err != nil {
		return nil, err
	}
	result := &ExportResult{Artifact: artifact}

	if in.Store || in.Format == render.FormatESign {
		if s.artifacts != nil {
			name := ArtifactObjectName(in.Document.Tenant, in.Document.ID, artifact.Filename)
			url, err := s.artifacts.SaveArtifact(ctx, name, artifact.Data, artifact.ContentType)
			if err != nil {
				return nil, apperr.IO("falha ao armazenar o arquivo", err)
			}
			result.URL = url
			logger.Info(ctx, "artifact stored", "object", name)
		}
	}

	if in.Format == render.FormatESign {
		now := time.Now()
		req := &model.SignatureRequest{
			ID:          uuid.New().String(),
			DocumentID:  in.Document.ID,
			Tenant:      in.Document.Tenant,
			Owner:       in.Document.Owner,
			Filename:    artifact.Filename,
			ArtifactURL: result.URL,
			State:       model.SignaturePending,
			CreatedAt:   now,
		}
		s.signatures.Save(req)
		result.Signature = s.signatures.Get(req.ID)
		go s.submitSignature(context.WithoutCancel(ctx), req.ID, artifact, Signers(in.Template))
	}
	return result, nil
}

// Archive stores the PDF of a completed document in object storage. It is a
// no-op without storage.
func (s *ExportService) Archive(ctx context.Context, doc *model.UserDocument, tmpl *model.DocumentTemplate) error {
	if !s.Storing() {
		return nil
	}
	res, err := s.Export(ctx, ExportInput{Document: doc, Template: tmpl, Format: render.FormatPDF, Store: true})
	if err != nil {
		return fmt.Errorf("archiving document %s: %w", doc.ID, err)
	}
	logger.Info(logger.WithDocumentID(ctx, doc.ID), "completed document archived", "filename", res.Artifact.Filename)
	return nil
}

// Signers lists the two parties and the template witnesses.
func Signers(tmpl *model.DocumentTemplate) []Signer {
	signers := make([]Signer, 0, len(render.PartyCaptions)+len(tmpl.Witnesses))
	for i := range render.PartyCaptions {
		signers = append(signers, Signer{Name: fmt.Sprintf("Parte %d", i+1), Role: "parte"})
	}
	for _, w := range tmpl.Witnesses {
		signers = append(signers, Signer{Name: w.Name, Document: w.Document, Role: "testemunha"})
	}
	return signers
}

func (s *ExportService) submitSignature(ctx context.Context, requestID string, artifact *render.Artifact, signers []Signer) {
	resp, err := s.esign.CreateEnvelope(ctx, artifact.Filename, artifact.Data, signers, requestID)
	if err != nil {
		logger.Error(ctx, "e-sign envelope creation failed", "request_id", requestID, "error", err)
		s.signatures.UpdateStatus(requestID, model.SignatureFailed, err.Error())
		return
	}
	s.signatures.UpdateEnvelope(requestID, resp.Data.EnvelopeID, resp.Data.SignURL)
	logger.Info(ctx, "e-sign envelope created", "request_id", requestID, "envelope_id", resp.Data.EnvelopeID)

	s.pollSignature(ctx, requestID, resp.Data.EnvelopeID)
}

// pollSignature follows the envelope until a terminal state. A callback
// may settle the request first, which ends the loop.
func (s *ExportService) pollSignature(ctx context.Context, requestID, envelopeID string) {
	for i := 0; i < s.pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
		}

		if r := s.signatures.Get(requestID); r == nil || r.State.Terminal() {
			return
		}
		status, err := s.esign.GetEnvelopeStatus(ctx, envelopeID)
		if err != nil {
			logger.Debug(ctx, "e-sign poll failed", "attempt", i+1, "error", err)
			continue
		}
		state := status.Data.SignatureState()
		if state.Terminal() {
			s.signatures.UpdateStatus(requestID, state, status.Data.ErrorMsg)
			logger.Info(ctx, "e-sign envelope settled", "request_id", requestID, "state", state)
			return
		}
	}
	logger.Warn(ctx, "e-sign polling gave up", "request_id", requestID, "envelope_id", envelopeID)
}

// ApplyCallback records a provider status pushed to the callback endpoint.
func (s *ExportService) ApplyCallback(ctx context.Context, status EnvelopeStatus) error {
	r := s.signatures.Get(status.DataID)
	if r == nil {
		return apperr.NotFound(fmt.Sprintf("solicitação de assinatura %s não encontrada", status.DataID))
	}
	if status.EnvelopeID != "" && r.EnvelopeID == "" {
		s.signatures.UpdateEnvelope(r.ID, status.EnvelopeID, status.SignURL)
	}
	state := status.SignatureState()
	if state != model.SignatureSent {
		s.signatures.UpdateStatus(r.ID, state, status.ErrorMsg)
	}
	logger.Info(ctx, "e-sign callback applied", "request_id", r.ID, "state", state)
	return nil
}

// Signatures lists the signing requests of a document.
func (s *ExportService) Signatures(documentID string) []*model.SignatureRequest {
	if s.signatures == nil {
		return nil
	}
	return s.signatures.ListByDocument(documentID)
}

// VerifyCallback checks a provider callback checksum.
func (s *ExportService) VerifyCallback(checksum, content, uid string) bool {
	return s.Signing() && s.esign.VerifyCallback(checksum, content, uid)
}
