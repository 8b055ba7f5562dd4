package model

import (
	"time"
)

// User roles
const (
	RoleAdmin    = "admin"
	RoleSalesRep = "sales_rep"
)

// UserProfile holds the role and status of an application user
type UserProfile struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityLog records an admin or workflow action for auditing
type ActivityLog struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     string    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    JSONMap   `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}
