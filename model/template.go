package model

import (
	"time"
)

// ContractTemplate is a fillable PDF template keyed by (document type, language)
type ContractTemplate struct {
	ID               string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string    `json:"name"`
	DocumentType     string    `json:"document_type" gorm:"index:idx_template_type_lang"`
	Language         string    `json:"language" gorm:"index:idx_template_type_lang"`
	FilePath         string    `json:"file_path"`
	Description      string    `json:"description"`
	IsActive         bool      `json:"is_active"`
	OriginalFileName string    `json:"original_file_name"`
	FileSize         int64     `json:"file_size"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ContractPermission grants or denies a role access to a template
type ContractPermission struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	ContractID string    `json:"contract_id" gorm:"type:uuid;uniqueIndex:idx_permission_contract_role"`
	Role       string    `json:"role" gorm:"uniqueIndex:idx_permission_contract_role"`
	CanAccess  bool      `json:"can_access"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
