package objects

import (
	"time"

	"github.com/google/uuid"
)

type City struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantID"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateCityInput struct {
	TenantID *uuid.UUID `json:"tenantID,omitempty"`
	Name     string     `json:"name"`
	Country  string     `json:"country"`
}

type UpdateCityInput struct {
	Name    *string `json:"name,omitempty"`
	Country *string `json:"country,omitempty"`
}
