package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aliintelligence/document-filler/config"
)

func signNowConfig(apiURL string) *config.SignNowConfig {
	return &config.SignNowConfig{
		APIURL:      apiURL,
		AppURL:      "https://app.signnow.test",
		APIKey:      "test-key",
		SenderEmail: "sender@example.com",
	}
}

func TestSignNowServiceConfigured(t *testing.T) {
	svc := NewSignNowService(&config.SignNowConfig{})
	if svc.Configured() {
		t.Error("Expected unconfigured service without API key")
	}

	svc = NewSignNowService(signNowConfig("https://api.signnow.test"))
	if !svc.Configured() {
		t.Error("Expected configured service with API key")
	}
}

func TestSignNowServiceUploadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/document" {
			t.Errorf("Expected /document, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Expected Authorization header")
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Expected multipart content type, got %s", r.Header.Get("Content-Type"))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Expected file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "Doe_charge-slip.pdf" {
			t.Errorf("Expected filename 'Doe_charge-slip.pdf', got '%s'", header.Filename)
		}

		json.NewEncoder(w).Encode(uploadResponse{ID: "doc-123"})
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	id, err := svc.UploadDocument([]byte("%PDF-1.7 fake"), "Doe_charge-slip.pdf")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "doc-123" {
		t.Errorf("Expected document ID 'doc-123', got '%s'", id)
	}
}

func TestSignNowServiceUploadDocumentUnconfigured(t *testing.T) {
	svc := NewSignNowService(&config.SignNowConfig{APIURL: "https://api.signnow.test"})
	_, err := svc.UploadDocument([]byte("pdf"), "file.pdf")
	if err != ErrNotConfigured {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestSignNowServiceAddSignatureFields(t *testing.T) {
	var requests []fieldsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		var req fieldsRequest
		json.NewDecoder(r.Body).Decode(&req)
		requests = append(requests, req)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	if err := svc.AddSignatureFields("doc-1", "hd-docs", "english"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(requests) != 1 {
		t.Fatalf("Expected single batch request, got %d", len(requests))
	}
	if len(requests[0].Fields) != 3 {
		t.Fatalf("Expected 3 signature fields, got %d", len(requests[0].Fields))
	}
	first := requests[0].Fields[0]
	if first.X != 149 || first.Y != 645 || first.PageNumber != 0 {
		t.Errorf("Unexpected first field placement: %+v", first)
	}
	if requests[0].Fields[2].PageNumber != 12 {
		t.Errorf("Expected third field on page 12, got %d", requests[0].Fields[2].PageNumber)
	}
}

func TestSignNowServiceAddSignatureFieldsFallback(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req fieldsRequest
		json.NewDecoder(r.Body).Decode(&req)

		// Reject the batch, accept individual fields
		if len(req.Fields) > 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Fields[0].FieldID == "" || req.Fields[0].Name == "" {
			t.Error("Expected unique field_id and name on individual retry")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	if err := svc.AddSignatureFields("doc-1", "hd-docs", "spanish"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// one failed batch, then one request per field
	if calls != 4 {
		t.Errorf("Expected 4 requests, got %d", calls)
	}
}

func TestSignatureLayout(t *testing.T) {
	tests := []struct {
		name         string
		documentType string
		language     string
		expected     int
	}{
		{"hd-docs english", "hd-docs", "english", 3},
		{"hd-docs spanish", "hd-docs", "spanish", 3},
		{"charge slip english", "charge-slip", "english", 1},
		{"charge slip spanish", "charge-slip", "spanish", 1},
		{"unknown type gets default", "membership-plan", "english", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := signatureLayout(tt.documentType, tt.language)
			if len(fields) != tt.expected {
				t.Errorf("Expected %d fields, got %d", tt.expected, len(fields))
			}
			for _, f := range fields {
				if f.Type != "signature" || f.Role != signerRole || !f.Required {
					t.Errorf("Unexpected field attributes: %+v", f)
				}
			}
		})
	}
}

func TestSignNowServiceCreateEmailInvite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/doc-1/invite" {
			t.Errorf("Expected invite path, got %s", r.URL.Path)
		}

		var req inviteRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.To) != 1 {
			t.Fatalf("Expected one recipient, got %d", len(req.To))
		}
		to := req.To[0]
		if to.Email != "jane@x.com" || to.Role != "Signer 1" || to.Order != 1 || to.ExpirationDays != 30 {
			t.Errorf("Unexpected recipient: %+v", to)
		}
		if req.From != "sender@example.com" {
			t.Errorf("Expected sender email, got '%s'", req.From)
		}

		json.NewEncoder(w).Encode(inviteResponse{ID: "invite-1"})
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	id, err := svc.CreateEmailInvite("doc-1", "jane@x.com")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "invite-1" {
		t.Errorf("Expected invite ID 'invite-1', got '%s'", id)
	}
}

func TestSignNowServiceCreateSMSInvite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req inviteRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.To[0].PhoneNumber != "+15551234567" {
			t.Errorf("Expected E.164 phone, got '%s'", req.To[0].PhoneNumber)
		}
		if req.To[0].Email != "" {
			t.Error("Expected no email on SMS invite")
		}
		if req.From != "" {
			t.Error("Expected no sender on SMS invite")
		}
		json.NewEncoder(w).Encode(inviteResponse{ID: "invite-2"})
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	id, err := svc.CreateSMSInvite("doc-1", "+15551234567")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "invite-2" {
		t.Errorf("Expected invite ID 'invite-2', got '%s'", id)
	}
}

func TestSignNowServiceSigningLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/doc-1/invite/invite-1" {
			t.Errorf("Expected invite link path, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(signingLinkResponse{SigningLink: "https://sign.example.com/s/abc"})
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	if got := svc.SigningLink("doc-1", "invite-1"); got != "https://sign.example.com/s/abc" {
		t.Errorf("Expected specific signing link, got '%s'", got)
	}
}

func TestSignNowServiceSigningLinkFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))

	expected := "https://app.signnow.test/document/doc-1"
	if got := svc.SigningLink("doc-1", "invite-1"); got != expected {
		t.Errorf("Expected fallback '%s', got '%s'", expected, got)
	}
	if got := svc.SigningLink("doc-1", ""); got != expected {
		t.Errorf("Expected fallback for empty invite ID, got '%s'", got)
	}
}

func TestSignNowServiceDocumentHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/doc-1/historyfull" {
			t.Errorf("Expected historyfull path, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]HistoryEvent{
			{UniqueID: "e1", Event: "created_document", Created: 1700000000},
			{UniqueID: "e2", Event: "document_signing_session_completed", Created: 1700003600},
		})
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	history, err := svc.DocumentHistory("doc-1")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(history))
	}
	if !IsComplete(history) {
		t.Error("Expected history with completion event to be complete")
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		expected bool
	}{
		{"session completed", []string{"created_document", "document_signing_session_completed"}, true},
		{"document complete", []string{"document_complete"}, true},
		{"document signed", []string{"document_signed"}, true},
		{"only viewed", []string{"created_document", "document_viewed"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []HistoryEvent
			for _, e := range tt.events {
				history = append(history, HistoryEvent{Event: e})
			}
			if got := IsComplete(history); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSignNowServiceDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/doc-1/download" {
			t.Errorf("Expected download path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "collapsed" {
			t.Error("Expected type=collapsed")
		}
		if r.URL.Query().Get("with_history") != "1" {
			t.Error("Expected with_history=1")
		}
		w.Write([]byte("%PDF-1.7 signed"))
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	data, err := svc.Download("doc-1", true)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != "%PDF-1.7 signed" {
		t.Errorf("Unexpected download body: %s", data)
	}
}

func TestSignNowServiceAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"code":1537,"message":"invalid token"}]}`))
	}))
	defer server.Close()

	svc := NewSignNowService(signNowConfig(server.URL))
	_, err := svc.DocumentHistory("doc-1")

	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("Expected status in error, got: %v", err)
	}
}
