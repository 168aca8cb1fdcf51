package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UserStatus tracks a registration through admin approval
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending_approval"
	UserStatusActive   UserStatus = "active"
	UserStatusRejected UserStatus = "rejected"
)

// Role values stored on users
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a dashboard account
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Username         string     `json:"username" db:"username"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	FullName         *string    `json:"full_name,omitempty" db:"full_name"`
	Status           UserStatus `json:"status" db:"status"`
	Role             string     `json:"role" db:"role"`
	ApprovalToken    *string    `json:"-" db:"approval_token"`
	ResetToken       *string    `json:"-" db:"reset_token"`
	ResetTokenExpiry *time.Time `json:"-" db:"reset_token_expiry"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy       *string    `json:"approved_by,omitempty" db:"approved_by"`
	LastLogin        *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the account may log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsAdmin reports whether the account holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName prefers the full name
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}

// JSONBMap is a custom type for PostgreSQL JSONB columns that maps to map[string]interface{}
type JSONBMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONBMap) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	}

	if len(bytes) == 0 {
		*j = make(JSONBMap)
		return nil
	}

	result := make(JSONBMap)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// AuditEntry is one row of audit_logs
type AuditEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Action    string     `json:"action" db:"action"`
	Details   JSONBMap   `json:"details" db:"details"`
	IPAddress string     `json:"ip_address" db:"ip_address"`
	UserAgent string     `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditRegistrationRequest  = "registration_request"
	AuditAccountApproved      = "account_approved"
	AuditPasswordResetRequest = "password_reset_requested"
	AuditPasswordReset        = "password_reset"
	AuditLogin                = "login"
	AuditProjectCreated       = "project_created"
	AuditProjectUpdated       = "project_updated"
	AuditProjectDeleted       = "project_deleted"
)

// RequestMeta carries the caller details recorded in audit rows
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Actor     string
	UserID    *uuid.UUID
}
