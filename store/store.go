package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/aliintelligence/document-filler/model"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrNoDatabase is returned by operations that have no in-memory fallback
// when the store was built without a database connection
var ErrNoDatabase = errors.New("database not configured")

// Store persists customers, documents, templates and related records in
// Postgres. Customer, document and event operations fall back to an
// in-memory mirror when the database is unavailable, so the workflow keeps
// working in offline/demo mode.
type Store struct {
	db     *gorm.DB
	mirror *Mirror
}

// Open connects to Postgres and migrates the schema
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Document{},
		&model.SignatureEvent{},
		&model.ContractTemplate{},
		&model.ContractPermission{},
		&model.UserProfile{},
		&model.ActivityLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// New creates a Store. db may be nil, in which case every operation runs
// against the in-memory mirror only.
func New(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		mirror: NewMirror(),
	}
}

// Mirror exposes the in-memory fallback, mainly for tests
func (s *Store) Mirror() *Mirror {
	return s.mirror
}

// Customer operations

func (s *Store) ListCustomers(page, limit int) ([]model.Customer, int64, error) {
	if s.db == nil {
		customers := s.mirror.ListCustomers()
		return paginate(customers, page, limit), int64(len(customers)), nil
	}

	var customers []model.Customer
	var total int64
	offset := (page - 1) * limit

	if err := s.db.Model(&model.Customer{}).Count(&total).Error; err != nil {
		fallback := s.mirror.ListCustomers()
		return paginate(fallback, page, limit), int64(len(fallback)), nil
	}

	err := s.db.Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error
	if err != nil {
		fallback := s.mirror.ListCustomers()
		return paginate(fallback, page, limit), int64(len(fallback)), nil
	}

	return customers, total, nil
}

func (s *Store) SearchCustomers(term string) ([]model.Customer, error) {
	if s.db == nil {
		return s.mirror.SearchCustomers(term), nil
	}

	var customers []model.Customer
	pattern := "%" + term + "%"
	err := s.db.Where(
		"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone LIKE ?",
		pattern, pattern, pattern, pattern,
	).Order("created_at DESC").Find(&customers).Error
	if err != nil {
		return s.mirror.SearchCustomers(term), nil
	}

	return customers, nil
}

func (s *Store) GetCustomer(id string) (*model.Customer, error) {
	if s.db == nil {
		return s.mirror.GetCustomer(id)
	}

	var customer model.Customer
	err := s.db.Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	}).First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return s.mirror.GetCustomer(id)
	}

	return &customer, nil
}

func (s *Store) CreateCustomer(customer *model.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if s.db != nil {
		if err := s.db.Create(customer).Error; err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
	}

	s.mirror.SaveCustomer(customer)
	return nil
}

func (s *Store) UpdateCustomer(customer *model.Customer) error {
	customer.UpdatedAt = time.Now()

	if s.db != nil {
		result := s.db.Model(&model.Customer{}).Where("id = ?", customer.ID).Updates(customer)
		if result.Error != nil {
			return fmt.Errorf("failed to update customer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
	} else if _, err := s.mirror.GetCustomer(customer.ID); err != nil {
		return ErrNotFound
	}

	s.mirror.SaveCustomer(customer)
	return nil
}

func (s *Store) DeleteCustomer(id string) error {
	if s.db != nil {
		if err := s.db.Delete(&model.Customer{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
	}

	s.mirror.DeleteCustomer(id)
	return nil
}

// CustomerStats counts a customer's documents per status
func (s *Store) CustomerStats(customerID string) (*model.DocumentStats, error) {
	if s.db == nil {
		return s.mirror.CustomerStats(customerID), nil
	}

	stats := &model.DocumentStats{}
	base := s.db.Model(&model.Document{}).Where("customer_id = ?", customerID)

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalDocuments).Error; err != nil {
		return s.mirror.CustomerStats(customerID), nil
	}
	base.Session(&gorm.Session{}).Where("status = ?", model.StatusPending).Count(&stats.PendingDocuments)
	base.Session(&gorm.Session{}).Where("status = ?", model.StatusSent).Count(&stats.SentDocuments)
	base.Session(&gorm.Session{}).Where("status = ?", model.StatusSigned).Count(&stats.SignedDocuments)
	base.Session(&gorm.Session{}).Where("status = ?", model.StatusFailed).Count(&stats.FailedDocuments)

	return stats, nil
}

// Document operations

func (s *Store) CreateDocument(doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = model.StatusPending
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if s.db != nil {
		if err := s.db.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
	}

	s.mirror.SaveDocument(doc)
	return nil
}

func (s *Store) GetDocument(id string) (*model.Document, error) {
	if s.db == nil {
		return s.mirror.GetDocument(id)
	}

	var doc model.Document
	err := s.db.Preload("Customer").First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return s.mirror.GetDocument(id)
	}

	return &doc, nil
}

// ListDocuments returns a page of documents, optionally filtered by status.
// An empty status returns all documents.
func (s *Store) ListDocuments(status string, page, limit int) ([]model.Document, int64, error) {
	if s.db == nil {
		docs := s.mirror.ListDocuments(status)
		return paginate(docs, page, limit), int64(len(docs)), nil
	}

	query := s.db.Model(&model.Document{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		docs := s.mirror.ListDocuments(status)
		return paginate(docs, page, limit), int64(len(docs)), nil
	}

	var docs []model.Document
	offset := (page - 1) * limit
	err := query.Preload("Customer").Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error
	if err != nil {
		fallback := s.mirror.ListDocuments(status)
		return paginate(fallback, page, limit), int64(len(fallback)), nil
	}

	return docs, total, nil
}

// UpdateDocumentStatus transitions a document and stamps sent_at/signed_at
// for the matching transitions. A signature event row records the change.
func (s *Store) UpdateDocumentStatus(id, status string) (*model.Document, error) {
	doc, err := s.GetDocument(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc.Status = status
	doc.UpdatedAt = now
	switch status {
	case model.StatusSent:
		doc.SentAt = &now
	case model.StatusSigned:
		doc.SignedAt = &now
	}

	if s.db != nil {
		updates := map[string]any{
			"status":     status,
			"updated_at": now,
		}
		if doc.SentAt != nil {
			updates["sent_at"] = doc.SentAt
		}
		if doc.SignedAt != nil {
			updates["signed_at"] = doc.SignedAt
		}
		if err := s.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update document status: %w", err)
		}
	}

	s.mirror.SaveDocument(doc)

	s.AddSignatureEvent(&model.SignatureEvent{
		DocumentID: id,
		EventType:  "status." + status,
		EventData: model.JSONMap{
			"new_status": status,
			"updated_at": now.Format(time.RFC3339),
		},
	})

	return doc, nil
}

func (s *Store) UpdateDocument(doc *model.Document) error {
	doc.UpdatedAt = time.Now()

	if s.db != nil {
		result := s.db.Model(&model.Document{}).Where("id = ?", doc.ID).Updates(doc)
		if result.Error != nil {
			return fmt.Errorf("failed to update document: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
	} else if _, err := s.mirror.GetDocument(doc.ID); err != nil {
		return ErrNotFound
	}

	s.mirror.SaveDocument(doc)
	return nil
}

func (s *Store) DeleteDocument(id string) error {
	if s.db != nil {
		if err := s.db.Delete(&model.Document{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}

	s.mirror.DeleteDocument(id)
	return nil
}

// Signature event operations

func (s *Store) AddSignatureEvent(event *model.SignatureEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if s.db != nil {
		if err := s.db.Create(event).Error; err != nil {
			s.mirror.SaveEvent(event)
			return nil
		}
	}

	s.mirror.SaveEvent(event)
	return nil
}

func (s *Store) DocumentEvents(documentID string) ([]model.SignatureEvent, error) {
	if s.db == nil {
		return s.mirror.DocumentEvents(documentID), nil
	}

	var events []model.SignatureEvent
	err := s.db.Where("document_id = ?", documentID).Order("created_at DESC").Find(&events).Error
	if err != nil {
		return s.mirror.DocumentEvents(documentID), nil
	}

	return events, nil
}

// Template operations

func (s *Store) ListTemplates() ([]model.ContractTemplate, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var templates []model.ContractTemplate
	if err := s.db.Order("name").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// ListTemplatesForRole returns active templates the role may access on the
// document-selection screen. A template with no permission row for the role
// is accessible; an explicit can_access=false row hides it. Admins see all
// active templates.
func (s *Store) ListTemplatesForRole(role string) ([]model.ContractTemplate, error) {
	templates, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}

	var permissions []model.ContractPermission
	if role != model.RoleAdmin {
		if err := s.db.Where("role = ?", role).Find(&permissions).Error; err != nil {
			return nil, fmt.Errorf("failed to load permissions: %w", err)
		}
	}

	denied := make(map[string]bool)
	for _, p := range permissions {
		if !p.CanAccess {
			denied[p.ContractID] = true
		}
	}

	var allowed []model.ContractTemplate
	for _, t := range templates {
		if t.IsActive && !denied[t.ID] {
			allowed = append(allowed, t)
		}
	}

	return allowed, nil
}

func (s *Store) GetTemplate(id string) (*model.ContractTemplate, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var template model.ContractTemplate
	if err := s.db.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// FindTemplate resolves the active template for a document type and language
func (s *Store) FindTemplate(documentType, language string) (*model.ContractTemplate, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var template model.ContractTemplate
	err := s.db.Where("document_type = ? AND language = ? AND is_active = ?", documentType, language, true).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find template: %w", err)
	}
	return &template, nil
}

func (s *Store) CreateTemplate(template *model.ContractTemplate) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	now := time.Now()
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := s.db.Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (s *Store) UpdateTemplate(template *model.ContractTemplate) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	template.UpdatedAt = time.Now()
	if err := s.db.Save(template).Error; err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func (s *Store) SetTemplateActive(id string, active bool) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	result := s.db.Model(&model.ContractTemplate{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to toggle template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTemplate(id string) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	if err := s.db.Delete(&model.ContractTemplate{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// Permission operations

func (s *Store) ListPermissions() ([]model.ContractPermission, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var permissions []model.ContractPermission
	if err := s.db.Order("role").Find(&permissions).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}

// UpsertPermission sets the access flag for a (template, role) pair
func (s *Store) UpsertPermission(contractID, role string, canAccess bool) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	var existing model.ContractPermission
	err := s.db.Where("contract_id = ? AND role = ?", contractID, role).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up permission: %w", err)
		}
		permission := model.ContractPermission{
			ID:         uuid.New().String(),
			ContractID: contractID,
			Role:       role,
			CanAccess:  canAccess,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := s.db.Create(&permission).Error; err != nil {
			return fmt.Errorf("failed to create permission: %w", err)
		}
		return nil
	}

	existing.CanAccess = canAccess
	existing.UpdatedAt = time.Now()
	if err := s.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	return nil
}

// User profile operations

func (s *Store) ListUsers() ([]model.UserProfile, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var users []model.UserProfile
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUserRole(id, role string) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	result := s.db.Model(&model.UserProfile{}).Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update user role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserActive(id string, active bool) error {
	if s.db == nil {
		return ErrNoDatabase
	}
	result := s.db.Model(&model.UserProfile{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to toggle user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Activity log operations

func (s *Store) LogActivity(userID, action, entityType, entityID string, details model.JSONMap) error {
	entry := model.ActivityLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if s.db == nil {
		return nil
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(limit int) ([]model.ActivityLog, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	var entries []model.ActivityLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
