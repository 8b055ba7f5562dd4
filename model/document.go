package model

import (
	"time"
)

// Document lifecycle statuses
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusSigned  = "signed"
	StatusFailed  = "failed"
)

// Delivery methods
const (
	DeliveryEmail = "email"
	DeliverySMS   = "sms"
)

// Known document types with hand-authored field maps
const (
	TypeHDDocs         = "hd-docs"
	TypeMembershipPlan = "membership-plan"
	TypeChargeSlip     = "charge-slip"
)

// Languages templates are available in
const (
	LangEnglish = "english"
	LangSpanish = "spanish"
)

// Document is one template instance filled for one customer and routed
// through the signing workflow
type Document struct {
	ID                  string     `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID          string     `json:"customer_id" gorm:"type:uuid;index"`
	Customer            *Customer  `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	DocumentType        string     `json:"document_type"`
	Language            string     `json:"language"`
	DeliveryMethod      string     `json:"delivery_method"`
	SMSNumber           string     `json:"sms_number,omitempty"`
	SignNowDocumentID   string     `json:"signnow_document_id"`
	SignNowSignatureURL string     `json:"signnow_signature_url"`
	Status              string     `json:"status"`
	AdditionalFields    JSONMap    `json:"additional_fields,omitempty" gorm:"type:jsonb"`
	SentAt              *time.Time `json:"sent_at,omitempty"`
	EmailSentAt         *time.Time `json:"email_sent_at,omitempty"`
	SMSSentAt           *time.Time `json:"sms_sent_at,omitempty"`
	SignedAt            *time.Time `json:"signed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SignatureEvent is an append-only log entry tied to a document
type SignatureEvent struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	DocumentID string    `json:"document_id" gorm:"type:uuid;index"`
	EventType  string    `json:"event_type"`
	EventData  JSONMap   `json:"event_data,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}
