package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aliintelligence/document-filler/model"
	"github.com/aliintelligence/document-filler/pkg/logger"
	"github.com/aliintelligence/document-filler/store"
)

// Mock dispatch reasons
const (
	MockReasonUnconfigured  = "unconfigured"
	MockReasonProviderError = "provider_error"
)

// FormFiller fills AcroForm values into a template PDF.
type FormFiller interface {
	Fill(template []byte, values FieldValues) ([]byte, error)
}

// DispatchService runs the fill-and-send workflow: resolve the template,
// fill it, and send it out for signature. When SignNow is unavailable the
// workflow completes against a mock document so sales reps are never
// blocked by the provider.
type DispatchService struct {
	store        *store.Store
	filler       FormFiller
	signNow      *SignNowService
	sms          *SMSService
	archive      *ArchiveService
	templatesDir string
}

type DispatchRequest struct {
	CustomerID       string        `json:"customer_id"`
	DocumentType     string        `json:"document_type"`
	Language         string        `json:"language"`
	DeliveryMethod   string        `json:"delivery_method"`
	SMSNumber        string        `json:"sms_number"`
	AdditionalFields model.JSONMap `json:"additional_fields"`
}

type DispatchResult struct {
	Document     *model.Document `json:"document"`
	DocumentID   string          `json:"document_id"`
	SignatureURL string          `json:"signature_url"`
	Mock         bool            `json:"mock"`
	MockReason   string          `json:"mock_reason,omitempty"`
	SMS          *SMSResult      `json:"sms,omitempty"`
}

func NewDispatchService(st *store.Store, filler FormFiller, signNow *SignNowService, sms *SMSService, archive *ArchiveService, templatesDir string) *DispatchService {
	return &DispatchService{
		store:        st,
		filler:       filler,
		signNow:      signNow,
		sms:          sms,
		archive:      archive,
		templatesDir: templatesDir,
	}
}

// Dispatch fills the contract for a customer and sends it for signature.
// Validation failures (unknown customer, bad phone number) return an error;
// provider failures after that point degrade to a mock dispatch that still
// persists the document.
func (d *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	customer, err := d.store.GetCustomer(req.CustomerID)
	if err != nil {
		return nil, err
	}

	if req.Language == "" {
		req.Language = model.LangEnglish
	}
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = model.DeliveryEmail
	}

	var smsNumber string
	if req.DeliveryMethod == model.DeliverySMS {
		raw := req.SMSNumber
		if raw == "" {
			raw = customer.Phone
		}
		smsNumber, err = NormalizePhone(raw)
		if err != nil {
			return nil, err
		}
	}

	doc := &model.Document{
		CustomerID:       customer.ID,
		DocumentType:     req.DocumentType,
		Language:         req.Language,
		DeliveryMethod:   req.DeliveryMethod,
		SMSNumber:        smsNumber,
		AdditionalFields: req.AdditionalFields,
	}

	template, err := d.loadTemplate(req.DocumentType, req.Language)
	if err != nil {
		return nil, err
	}

	filled, err := d.filler.Fill(template, MapFields(customer, doc, time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to fill template: %w", err)
	}

	if !d.signNow.Configured() {
		logger.Warn(ctx, "signnow not configured, dispatching as mock", "customer_id", customer.ID)
		return d.dispatchMock(ctx, doc, customer, MockReasonUnconfigured)
	}

	fileName := fmt.Sprintf("%s_%s_%d.pdf", lastNameOr(customer), req.DocumentType, time.Now().UnixMilli())
	documentID, err := d.signNow.UploadDocument(filled, fileName)
	if err != nil {
		logger.Error(ctx, "signnow upload failed, dispatching as mock", "error", err)
		return d.dispatchMock(ctx, doc, customer, MockReasonProviderError)
	}

	if d.archive != nil {
		if _, err := d.archive.ArchiveFilled(ctx, documentID, filled); err != nil {
			logger.Warn(ctx, "failed to archive filled pdf", "document_id", documentID, "error", err)
		}
	}

	// Partial placement failures are tolerated: signers can still place
	// signatures manually in the SignNow editor.
	if err := d.signNow.AddSignatureFields(documentID, req.DocumentType, req.Language); err != nil {
		logger.Warn(ctx, "failed to add signature fields", "document_id", documentID, "error", err)
	}

	var inviteID string
	if req.DeliveryMethod == model.DeliverySMS {
		inviteID, err = d.signNow.CreateSMSInvite(documentID, smsNumber)
	} else {
		inviteID, err = d.signNow.CreateEmailInvite(documentID, customer.Email)
	}
	if err != nil {
		logger.Error(ctx, "signnow invite failed, dispatching as mock", "document_id", documentID, "error", err)
		return d.dispatchMock(ctx, doc, customer, MockReasonProviderError)
	}

	signatureURL := d.signNow.SigningLink(documentID, inviteID)

	result := &DispatchResult{DocumentID: documentID, SignatureURL: signatureURL}

	if req.DeliveryMethod == model.DeliverySMS && d.sms != nil {
		message := fmt.Sprintf("Hi %s, please review and sign your document: %s", customer.FirstName, signatureURL)
		smsResult, err := d.sms.Send(smsNumber, message)
		if err != nil {
			logger.Warn(ctx, "failed to send sms with signing link", "document_id", documentID, "error", err)
		} else {
			result.SMS = smsResult
		}
	}

	saved, err := d.persist(doc, documentID, signatureURL)
	if err != nil {
		return nil, err
	}
	result.Document = saved

	logger.Info(ctx, "document dispatched",
		"document_id", saved.ID,
		"signnow_id", documentID,
		"delivery_method", req.DeliveryMethod,
	)

	return result, nil
}

// dispatchMock records a document as sent against a synthetic SignNow ID.
// The workflow still reports success so the customer record stays usable.
func (d *DispatchService) dispatchMock(ctx context.Context, doc *model.Document, customer *model.Customer, reason string) (*DispatchResult, error) {
	documentID := fmt.Sprintf("MOCK-DOC-%d", time.Now().UnixMilli())
	signatureURL := d.signNow.DocumentURL(documentID)

	saved, err := d.persist(doc, documentID, signatureURL)
	if err != nil {
		return nil, err
	}

	d.store.AddSignatureEvent(&model.SignatureEvent{
		DocumentID: saved.ID,
		EventType:  "dispatch.mock",
		EventData:  model.JSONMap{"reason": reason},
	})

	logger.Info(ctx, "document dispatched as mock",
		"document_id", saved.ID,
		"signnow_id", documentID,
		"reason", reason,
		"customer_id", customer.ID,
	)

	return &DispatchResult{
		Document:     saved,
		DocumentID:   documentID,
		SignatureURL: signatureURL,
		Mock:         true,
		MockReason:   reason,
	}, nil
}

func (d *DispatchService) persist(doc *model.Document, documentID, signatureURL string) (*model.Document, error) {
	now := time.Now()
	doc.SignNowDocumentID = documentID
	doc.SignNowSignatureURL = signatureURL
	if doc.DeliveryMethod == model.DeliverySMS {
		doc.SMSSentAt = &now
	} else {
		doc.EmailSentAt = &now
	}

	if err := d.store.CreateDocument(doc); err != nil {
		return nil, err
	}

	// Transition through the store so sent_at is stamped and the status
	// event is recorded.
	return d.store.UpdateDocumentStatus(doc.ID, model.StatusSent)
}

// loadTemplate resolves the template PDF for a document type and language.
// Managed templates in the store win; otherwise the templates directory is
// probed using the conventional file names.
func (d *DispatchService) loadTemplate(documentType, language string) ([]byte, error) {
	if t, err := d.store.FindTemplate(documentType, language); err == nil {
		path := t.FilePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(d.templatesDir, path)
		}
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	for _, name := range []string{
		fmt.Sprintf("%s-%s.pdf", documentType, language),
		documentType + ".pdf",
	} {
		if data, err := os.ReadFile(filepath.Join(d.templatesDir, name)); err == nil {
			return data, nil
		}
	}

	return nil, fmt.Errorf("no template for %s (%s)", documentType, language)
}

func lastNameOr(c *model.Customer) string {
	if c.LastName != "" {
		return c.LastName
	}
	return "Customer"
}
