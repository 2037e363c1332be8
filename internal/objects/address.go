package objects

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenantID"`
	UserID     uuid.UUID `json:"userID"`
	CityID     uuid.UUID `json:"cityID"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postalCode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateAddressInput struct {
	UserID     uuid.UUID `json:"userID"`
	CityID     uuid.UUID `json:"cityID"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postalCode"`
}

type UpdateAddressInput struct {
	CityID     *uuid.UUID `json:"cityID,omitempty"`
	Street     *string    `json:"street,omitempty"`
	PostalCode *string    `json:"postalCode,omitempty"`
}

// UpsertAddressInput is the body of a put on a user's address. The same
// shape creates the address on first put and updates it afterwards.
type UpsertAddressInput struct {
	CityID     uuid.UUID `json:"cityID"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postalCode"`
}
