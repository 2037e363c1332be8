package objects

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantID"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateUserInput struct {
	// TenantID is optional for callers with exactly one tenant; multi-tenant
	// and root callers must name the target tenant.
	TenantID    *uuid.UUID `json:"tenantID,omitempty"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
}

type UpdateUserInput struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}
