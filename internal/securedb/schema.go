package securedb

import "github.com/tenantguard/tenantguard/internal/authz"

// Logical fields the policy layer may constrain, beyond the tenant baseline.
const (
	FieldOwnerID = "owner_id"
	FieldCityID  = "city_id"
)

// TableUsers holds user accounts. Users carry no ownership field, so
// ownership constraints do not narrow them. Email is declared so list
// callers can filter on it.
var TableUsers = Table{
	Name: "users",
	PK:   "id",
	Columns: []Column{
		{Name: "id", Type: TypeUUID},
		{Name: "tenant_id", Type: TypeUUID},
		{Name: "email", Type: TypeString},
		{Name: "display_name", Type: TypeString},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	},
	Fields: map[string]string{
		authz.FieldTenantID: "tenant_id",
		"email":             "email",
	},
}

// TableCities holds cities. A city_id constraint narrows the table to the
// named city itself; country is declared for list filtering.
var TableCities = Table{
	Name: "cities",
	PK:   "id",
	Columns: []Column{
		{Name: "id", Type: TypeUUID},
		{Name: "tenant_id", Type: TypeUUID},
		{Name: "name", Type: TypeString},
		{Name: "country", Type: TypeString},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	},
	Fields: map[string]string{
		authz.FieldTenantID: "tenant_id",
		FieldCityID:         "id",
		"country":           "country",
	},
}

// TableAddresses holds user addresses. The owning user is the address
// owner, so ownership constraints map onto user_id.
var TableAddresses = Table{
	Name: "addresses",
	PK:   "id",
	Columns: []Column{
		{Name: "id", Type: TypeUUID},
		{Name: "tenant_id", Type: TypeUUID},
		{Name: "user_id", Type: TypeUUID},
		{Name: "city_id", Type: TypeUUID},
		{Name: "street", Type: TypeString},
		{Name: "postal_code", Type: TypeString},
		{Name: "created_at", Type: TypeTime},
		{Name: "updated_at", Type: TypeTime},
	},
	Fields: map[string]string{
		authz.FieldTenantID: "tenant_id",
		FieldOwnerID:        "user_id",
		FieldCityID:         "city_id",
	},
}
