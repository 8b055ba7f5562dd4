package model

import (
	"strings"
	"time"
)

// Customer represents a customer record with contact and financing details
type Customer struct {
	ID                  string     `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Address             string     `json:"address"`
	City                string     `json:"city"`
	State               string     `json:"state"`
	ZipCode             string     `json:"zip_code"`
	Equipment           string     `json:"equipment"`
	FinanceCompany      string     `json:"finance_company"`
	InterestRate        string     `json:"interest_rate"`
	MonthlyPayment      string     `json:"monthly_payment"`
	TotalEquipmentPrice string     `json:"total_equipment_price"`
	Documents           []Document `json:"documents,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FullName returns "First Last" with missing parts trimmed
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// DocumentStats summarizes a customer's documents by status
type DocumentStats struct {
	TotalDocuments   int64 `json:"total_documents"`
	PendingDocuments int64 `json:"pending_documents"`
	SentDocuments    int64 `json:"sent_documents"`
	SignedDocuments  int64 `json:"signed_documents"`
	FailedDocuments  int64 `json:"failed_documents"`
}
