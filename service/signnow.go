package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/aliintelligence/document-filler/config"
)

// ErrNotConfigured is returned when no SignNow API key is set. Callers are
// expected to fall back to the mock dispatch path.
var ErrNotConfigured = errors.New("signnow API key not configured")

type SignNowService struct {
	config     *config.SignNowConfig
	httpClient *http.Client
}

// signatureField describes one signature box placed on the document
type signatureField struct {
	Type       string `json:"type"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PageNumber int    `json:"page_number"`
	Role       string `json:"role"`
	Required   bool   `json:"required"`
	FieldID    string `json:"field_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

type fieldsRequest struct {
	Fields []signatureField `json:"fields"`
}

type inviteRecipient struct {
	Email          string `json:"email,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Role           string `json:"role"`
	Order          int    `json:"order"`
	ExpirationDays int    `json:"expiration_days"`
}

type inviteRequest struct {
	To   []inviteRecipient `json:"to"`
	From string            `json:"from,omitempty"`
}

type inviteResponse struct {
	ID string `json:"id"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

type signingLinkResponse struct {
	SigningLink string `json:"signing_link"`
}

// HistoryEvent is one entry of a document's full history
type HistoryEvent struct {
	UniqueID string `json:"unique_id"`
	Event    string `json:"event"`
	Created  int64  `json:"created"`
	Email    string `json:"email"`
}

const signerRole = "Signer 1"

func NewSignNowService(cfg *config.SignNowConfig) *SignNowService {
	return &SignNowService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured reports whether an API key is present.
func (s *SignNowService) Configured() bool {
	return s.config.APIKey != ""
}

// UploadDocument uploads a filled PDF and returns the SignNow document ID.
func (s *SignNowService) UploadDocument(pdf []byte, fileName string) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close form writer: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.APIURL+"/document", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := s.do(req)
	if err != nil {
		return "", err
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload response missing document id")
	}

	return result.ID, nil
}

// AddSignatureFields places the signature boxes for the document type and
// language. All fields are sent in one request first; if that fails, each
// field is added individually with a unique field_id so earlier boxes are
// not overwritten.
func (s *SignNowService) AddSignatureFields(documentID, documentType, language string) error {
	fields := signatureLayout(documentType, language)

	if err := s.putFields(documentID, fields); err == nil {
		return nil
	}

	var lastErr error
	for i, field := range fields {
		field.FieldID = fmt.Sprintf("signature_field_%d_%d", i+1, time.Now().UnixMilli())
		field.Name = fmt.Sprintf("signature_%d", i+1)
		if err := s.putFields(documentID, []signatureField{field}); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

func (s *SignNowService) putFields(documentID string, fields []signatureField) error {
	payload, err := json.Marshal(fieldsRequest{Fields: fields})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("PUT", fmt.Sprintf("%s/document/%s", s.config.APIURL, documentID), bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	_, err = s.do(req)
	return err
}

// signatureLayout returns the signature box placement for a document type
// and language. Unknown combinations get a single default box on page one.
func signatureLayout(documentType, language string) []signatureField {
	sig := func(x, y, w, h, page int) signatureField {
		return signatureField{
			Type: "signature", X: x, Y: y, Width: w, Height: h,
			PageNumber: page, Role: signerRole, Required: true,
		}
	}

	switch documentType + "_" + language {
	case "hd-docs_english":
		return []signatureField{
			sig(149, 645, 340, 14, 0),
			sig(43, 569, 433, 14, 1),
			sig(305, 650, 200, 20, 12),
		}
	case "hd-docs_spanish":
		return []signatureField{
			sig(149, 682, 340, 14, 0),
			sig(43, 592, 433, 14, 1),
			sig(265, 688, 226, 14, 12),
		}
	case "charge-slip_english", "charge-slip_spanish":
		return []signatureField{
			sig(20, 447, 180, 24, 0),
		}
	default:
		return []signatureField{
			sig(150, 100, 250, 60, 0),
		}
	}
}

// CreateEmailInvite sends a signing invitation to the customer's email and
// returns the invite ID. The payload stays minimal: custom subject and
// message require an upgraded subscription (SignNow error 65582).
func (s *SignNowService) CreateEmailInvite(documentID, email string) (string, error) {
	payload := inviteRequest{
		To: []inviteRecipient{{
			Email:          email,
			Role:           signerRole,
			Order:          1,
			ExpirationDays: 30,
		}},
		From: s.config.SenderEmail,
	}
	return s.postInvite(documentID, payload)
}

// CreateSMSInvite sends a signing invitation by SMS. The phone number must
// already be in E.164 form (see NormalizePhone).
func (s *SignNowService) CreateSMSInvite(documentID, phone string) (string, error) {
	payload := inviteRequest{
		To: []inviteRecipient{{
			PhoneNumber:    phone,
			Role:           signerRole,
			Order:          1,
			ExpirationDays: 30,
		}},
	}
	return s.postInvite(documentID, payload)
}

func (s *SignNowService) postInvite(documentID string, payload inviteRequest) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/document/%s/invite", s.config.APIURL, documentID), bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return "", err
	}

	var result inviteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	return result.ID, nil
}

// DocumentURL returns the generic web app URL for a document.
func (s *SignNowService) DocumentURL(documentID string) string {
	return fmt.Sprintf("%s/document/%s", s.config.AppURL, documentID)
}

// SigningLink resolves the invite-specific signing link. When the lookup
// fails or the invite ID is unknown, the generic document URL is returned.
func (s *SignNowService) SigningLink(documentID, inviteID string) string {
	fallback := fmt.Sprintf("%s/document/%s", s.config.AppURL, documentID)
	if inviteID == "" || !s.Configured() {
		return fallback
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/document/%s/invite/%s", s.config.APIURL, documentID, inviteID), nil)
	if err != nil {
		return fallback
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	body, err := s.do(req)
	if err != nil {
		return fallback
	}

	var result signingLinkResponse
	if err := json.Unmarshal(body, &result); err != nil || result.SigningLink == "" {
		return fallback
	}

	return result.SigningLink
}

// DocumentHistory fetches the full event history of a document.
func (s *SignNowService) DocumentHistory(documentID string) ([]HistoryEvent, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/document/%s/historyfull", s.config.APIURL, documentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var history []HistoryEvent
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	return history, nil
}

// IsComplete reports whether the history contains a signing completion event.
func IsComplete(history []HistoryEvent) bool {
	for _, event := range history {
		switch event.Event {
		case "document_signing_session_completed", "document_complete", "document_signed":
			return true
		}
	}
	return false
}

// Download fetches the document PDF with all signatures collapsed into it,
// optionally with the history appended.
func (s *SignNowService) Download(documentID string, withHistory bool) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/document/%s/download?type=collapsed", s.config.APIURL, documentID)
	if withHistory {
		url += "&with_history=1"
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	return s.do(req)
}

// do executes a request and returns the body, treating any non-2xx status
// as an error.
func (s *SignNowService) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("SignNow API error: status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
