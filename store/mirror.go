package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/aliintelligence/document-filler/model"
)

// Mirror is an in-memory copy of customers, documents and signature events.
// Writes that reach the database are mirrored here, and reads fall back to
// it when the database errors, mirroring the original offline behavior.
type Mirror struct {
	mu        sync.RWMutex
	customers map[string]*model.Customer
	documents map[string]*model.Document
	events    map[string][]model.SignatureEvent
}

func NewMirror() *Mirror {
	return &Mirror{
		customers: make(map[string]*model.Customer),
		documents: make(map[string]*model.Document),
		events:    make(map[string][]model.SignatureEvent),
	}
}

func (m *Mirror) SaveCustomer(customer *model.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *customer
	clone.Documents = nil
	m.customers[customer.ID] = &clone
}

func (m *Mirror) GetCustomer(id string) (*model.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	customer, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *customer
	clone.Documents = m.customerDocumentsLocked(id)
	return &clone, nil
}

func (m *Mirror) ListCustomers() []model.Customer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	customers := make([]model.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		clone := *c
		clone.Documents = m.customerDocumentsLocked(c.ID)
		customers = append(customers, clone)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	return customers
}

func (m *Mirror) SearchCustomers(term string) []model.Customer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(term)
	var result []model.Customer
	for _, c := range m.customers {
		if strings.Contains(strings.ToLower(c.FirstName), needle) ||
			strings.Contains(strings.ToLower(c.LastName), needle) ||
			strings.Contains(strings.ToLower(c.Email), needle) ||
			strings.Contains(c.Phone, term) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *Mirror) DeleteCustomer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, id)
}

func (m *Mirror) CustomerStats(customerID string) *model.DocumentStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &model.DocumentStats{}
	for _, d := range m.documents {
		if d.CustomerID != customerID {
			continue
		}
		stats.TotalDocuments++
		switch d.Status {
		case model.StatusPending:
			stats.PendingDocuments++
		case model.StatusSent:
			stats.SentDocuments++
		case model.StatusSigned:
			stats.SignedDocuments++
		case model.StatusFailed:
			stats.FailedDocuments++
		}
	}
	return stats
}

func (m *Mirror) SaveDocument(doc *model.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *doc
	clone.Customer = nil
	m.documents[doc.ID] = &clone
}

func (m *Mirror) GetDocument(id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *doc
	if customer, exists := m.customers[doc.CustomerID]; exists {
		customerClone := *customer
		clone.Customer = &customerClone
	}
	return &clone, nil
}

// ListDocuments returns documents filtered by status; empty status means all
func (m *Mirror) ListDocuments(status string) []model.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []model.Document
	for _, d := range m.documents {
		if status != "" && d.Status != status {
			continue
		}
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

func (m *Mirror) DeleteDocument(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
}

func (m *Mirror) SaveEvent(event *model.SignatureEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.DocumentID] = append(m.events[event.DocumentID], *event)
}

func (m *Mirror) DocumentEvents(documentID string) []model.SignatureEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]model.SignatureEvent, len(m.events[documentID]))
	copy(events, m.events[documentID])
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events
}

// Count returns the number of mirrored documents
func (m *Mirror) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

func (m *Mirror) customerDocumentsLocked(customerID string) []model.Document {
	var docs []model.Document
	for _, d := range m.documents {
		if d.CustomerID == customerID {
			docs = append(docs, *d)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}
