package store

import (
	"testing"
	"time"

	"github.com/aliintelligence/document-filler/model"
)

// Tests run against a Store without a database connection, which exercises
// the in-memory mirror path end to end.

func newTestStore() *Store {
	return New(nil)
}

func TestCustomerLifecycle(t *testing.T) {
	s := newTestStore()

	customer := &model.Customer{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Phone:     "5551234567",
	}
	if err := s.CreateCustomer(customer); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if customer.ID == "" {
		t.Fatal("Expected generated customer ID")
	}

	got, err := s.GetCustomer(customer.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.FullName() != "Jane Doe" {
		t.Errorf("Expected 'Jane Doe', got '%s'", got.FullName())
	}

	got.Phone = "5559876543"
	if err := s.UpdateCustomer(got); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	updated, _ := s.GetCustomer(customer.ID)
	if updated.Phone != "5559876543" {
		t.Errorf("Expected updated phone, got '%s'", updated.Phone)
	}

	if err := s.DeleteCustomer(customer.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := s.GetCustomer(customer.ID); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCustomerNotFound(t *testing.T) {
	s := newTestStore()
	err := s.UpdateCustomer(&model.Customer{ID: "missing"})
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSearchCustomers(t *testing.T) {
	s := newTestStore()

	s.CreateCustomer(&model.Customer{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com"})
	s.CreateCustomer(&model.Customer{FirstName: "John", LastName: "Smith", Phone: "5551234567"})

	tests := []struct {
		name     string
		term     string
		expected int
	}{
		{"by first name", "jane", 1},
		{"by last name", "smith", 1},
		{"by email", "x.com", 1},
		{"by phone", "555123", 1},
		{"no match", "nobody", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.SearchCustomers(tt.term)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(result) != tt.expected {
				t.Errorf("Expected %d results, got %d", tt.expected, len(result))
			}
		})
	}
}

func TestDocumentStatusTransitions(t *testing.T) {
	s := newTestStore()

	doc := &model.Document{
		CustomerID:   "cust-1",
		DocumentType: model.TypeChargeSlip,
		Language:     model.LangEnglish,
	}
	if err := s.CreateDocument(doc); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Status != model.StatusPending {
		t.Errorf("Expected default status pending, got '%s'", doc.Status)
	}

	sent, err := s.UpdateDocumentStatus(doc.ID, model.StatusSent)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sent.SentAt == nil {
		t.Error("Expected sent_at to be stamped")
	}
	if sent.SignedAt != nil {
		t.Error("Expected signed_at to stay unset")
	}

	signed, err := s.UpdateDocumentStatus(doc.ID, model.StatusSigned)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if signed.SignedAt == nil {
		t.Error("Expected signed_at to be stamped on signed transition")
	}

	// Each transition appends a status event
	events, err := s.DocumentEvents(doc.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	types := map[string]bool{}
	for _, e := range events {
		types[e.EventType] = true
	}
	if !types["status.sent"] || !types["status.signed"] {
		t.Errorf("Expected status.sent and status.signed events, got %v", types)
	}
}

func TestListDocumentsByStatus(t *testing.T) {
	s := newTestStore()

	for i, status := range []string{model.StatusSent, model.StatusSent, model.StatusSigned} {
		doc := &model.Document{
			CustomerID:   "cust-1",
			DocumentType: model.TypeChargeSlip,
			Status:       status,
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Second),
		}
		s.CreateDocument(doc)
	}

	sent, total, err := s.ListDocuments(model.StatusSent, 1, 20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(sent) != 2 || total != 2 {
		t.Errorf("Expected 2 sent documents, got %d (total %d)", len(sent), total)
	}

	all, total, err := s.ListDocuments("", 1, 20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 3 || total != 3 {
		t.Errorf("Expected 3 documents, got %d (total %d)", len(all), total)
	}

	// Pagination slices the result
	page2, _, err := s.ListDocuments("", 2, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("Expected 1 document on page 2, got %d", len(page2))
	}
}

func TestCustomerStats(t *testing.T) {
	s := newTestStore()

	customer := &model.Customer{FirstName: "Jane", LastName: "Doe"}
	s.CreateCustomer(customer)

	statuses := []string{model.StatusSent, model.StatusSent, model.StatusSigned, model.StatusFailed}
	for _, status := range statuses {
		s.CreateDocument(&model.Document{CustomerID: customer.ID, Status: status})
	}

	stats, err := s.CustomerStats(customer.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats.TotalDocuments != 4 {
		t.Errorf("Expected 4 total, got %d", stats.TotalDocuments)
	}
	if stats.SentDocuments != 2 {
		t.Errorf("Expected 2 sent, got %d", stats.SentDocuments)
	}
	if stats.SignedDocuments != 1 {
		t.Errorf("Expected 1 signed, got %d", stats.SignedDocuments)
	}
	if stats.FailedDocuments != 1 {
		t.Errorf("Expected 1 failed, got %d", stats.FailedDocuments)
	}
}

func TestGetDocumentWithCustomer(t *testing.T) {
	s := newTestStore()

	customer := &model.Customer{FirstName: "Jane", LastName: "Doe"}
	s.CreateCustomer(customer)

	doc := &model.Document{CustomerID: customer.ID, DocumentType: model.TypeHDDocs}
	s.CreateDocument(doc)

	got, err := s.GetDocument(doc.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Customer == nil {
		t.Fatal("Expected customer to be attached")
	}
	if got.Customer.FirstName != "Jane" {
		t.Errorf("Expected customer 'Jane', got '%s'", got.Customer.FirstName)
	}
}

func TestTemplateOperationsRequireDatabase(t *testing.T) {
	s := newTestStore()

	if _, err := s.ListTemplates(); err != ErrNoDatabase {
		t.Errorf("Expected ErrNoDatabase, got %v", err)
	}
	if err := s.CreateTemplate(&model.ContractTemplate{Name: "t"}); err != ErrNoDatabase {
		t.Errorf("Expected ErrNoDatabase, got %v", err)
	}
	if err := s.UpsertPermission("id", model.RoleSalesRep, true); err != ErrNoDatabase {
		t.Errorf("Expected ErrNoDatabase, got %v", err)
	}
}
