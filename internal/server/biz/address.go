package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

const resourceAddresses = "addresses"

type AddressServiceParams struct {
	fx.In

	DB     *securedb.Client
	Policy policy.Client
}

type AddressService struct {
	*AbstractService
}

func NewAddressService(params AddressServiceParams) *AddressService {
	return &AddressService{
		AbstractService: &AbstractService{
			db:     params.DB,
			policy: params.Policy,
		},
	}
}

// CreateAddress creates an address under a user. The stored tenant is always
// the parent user's tenant, re-derived from the stored row inside the
// transaction; the caller has no say in it.
func (s *AddressService) CreateAddress(ctx context.Context, input objects.CreateAddressInput) (*objects.Address, error) {
	if err := validateAddressInput(input.UserID, input.CityID, input.Street, input.PostalCode); err != nil {
		return nil, err
	}

	id := uuid.New()

	var out *objects.Address

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.prefetch(ctx, securedb.TableUsers, input.UserID)
		if err != nil {
			return err
		}

		tenant := parent.UUID("tenant_id")

		scope, err := s.authorize(ctx, "create", resourceAddresses, map[string]any{
			securedb.FieldOwnerID: input.UserID,
			securedb.FieldCityID:  input.CityID,
			authz.FieldTenantID:   tenant,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		err = s.db.InsertValidated(ctx, securedb.TableAddresses, map[string]any{
			"id":          id,
			"tenant_id":   tenant,
			"user_id":     input.UserID,
			"city_id":     input.CityID,
			"street":      input.Street,
			"postal_code": input.PostalCode,
			"created_at":  now,
			"updated_at":  now,
		}, scope)
		if err != nil {
			if securedb.IsUniqueViolation(err) {
				return fmt.Errorf("%w: user already has an address", ErrValidation)
			}

			return taxonomyError(err)
		}

		row, err := s.db.FindScoped(ctx, securedb.TableAddresses, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = addressFromRow(row)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *AddressService) GetAddress(ctx context.Context, id uuid.UUID) (*objects.Address, error) {
	scope, err := s.authorize(ctx, "read", resourceAddresses, nil)
	if err != nil {
		return nil, err
	}

	row, err := s.db.FindScoped(ctx, securedb.TableAddresses, id, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return addressFromRow(row), nil
}

type ListAddressesQuery struct {
	UserID *uuid.UUID
	Limit  int
	Offset int
}

func (s *AddressService) ListAddresses(ctx context.Context, q ListAddressesQuery) ([]*objects.Address, error) {
	scope, err := s.authorize(ctx, "list", resourceAddresses, nil)
	if err != nil {
		return nil, err
	}

	query := securedb.Query{
		OrderBy: "created_at",
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.UserID != nil {
		query.Filters = append(query.Filters, authz.Eq(securedb.FieldOwnerID, *q.UserID))
	}

	rows, err := s.db.ListScoped(ctx, securedb.TableAddresses, query, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return lo.Map(rows, func(row securedb.Row, _ int) *objects.Address {
		return addressFromRow(row)
	}), nil
}

func (s *AddressService) UpdateAddress(ctx context.Context, id uuid.UUID, input objects.UpdateAddressInput) (*objects.Address, error) {
	if input.CityID == nil && input.Street == nil && input.PostalCode == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	var out *objects.Address

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableAddresses, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "update", resourceAddresses, addressProperties(row))
		if err != nil {
			return err
		}

		values := map[string]any{"updated_at": time.Now().UTC()}
		if input.CityID != nil {
			values["city_id"] = *input.CityID
		}

		if input.Street != nil {
			values["street"] = *input.Street
		}

		if input.PostalCode != nil {
			values["postal_code"] = *input.PostalCode
		}

		affected, err := s.db.UpdateScoped(ctx, securedb.TableAddresses, id, values, scope)
		if err != nil {
			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		updated, err := s.db.FindScoped(ctx, securedb.TableAddresses, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = addressFromRow(updated)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *AddressService) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableAddresses, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "delete", resourceAddresses, addressProperties(row))
		if err != nil {
			return err
		}

		affected, err := s.db.DeleteScoped(ctx, securedb.TableAddresses, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		return nil
	})
}

// GetUserAddress loads the address of one user through the scoped read path.
func (s *AddressService) GetUserAddress(ctx context.Context, userID uuid.UUID) (*objects.Address, error) {
	scope, err := s.authorize(ctx, "read", resourceAddresses, map[string]any{
		securedb.FieldOwnerID: userID,
	})
	if err != nil {
		return nil, err
	}

	row, err := s.db.FindOneScoped(ctx, securedb.TableAddresses, []authz.Predicate{
		authz.Eq(securedb.FieldOwnerID, userID),
	}, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return addressFromRow(row), nil
}

// PutUserAddress creates the user's address on first call and updates the
// same row on every later call. A user never accumulates a second address
// through this path, the store's uniqueness on the owner backs that up.
func (s *AddressService) PutUserAddress(ctx context.Context, userID uuid.UUID, input objects.UpsertAddressInput) (*objects.Address, error) {
	if err := validateAddressInput(userID, input.CityID, input.Street, input.PostalCode); err != nil {
		return nil, err
	}

	var out *objects.Address

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		parent, err := s.prefetch(ctx, securedb.TableUsers, userID)
		if err != nil {
			return err
		}

		tenant := parent.UUID("tenant_id")

		existing, err := authz.RunUnscoped(ctx, "prefetch resource properties", func(ctx context.Context) (securedb.Row, error) {
			return s.db.FindOneSystem(ctx, securedb.TableAddresses, []authz.Predicate{
				authz.Eq(securedb.FieldOwnerID, userID),
			})
		})

		switch {
		case errors.Is(err, securedb.ErrRowNotFound):
			out, err = s.putCreate(ctx, userID, tenant, input)
			return err
		case err != nil:
			return taxonomyError(err)
		default:
			out, err = s.putUpdate(ctx, existing, input)
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *AddressService) putCreate(ctx context.Context, userID, tenant uuid.UUID, input objects.UpsertAddressInput) (*objects.Address, error) {
	scope, err := s.authorize(ctx, "create", resourceAddresses, map[string]any{
		securedb.FieldOwnerID: userID,
		securedb.FieldCityID:  input.CityID,
		authz.FieldTenantID:   tenant,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	err = s.db.InsertValidated(ctx, securedb.TableAddresses, map[string]any{
		"id":          id,
		"tenant_id":   tenant,
		"user_id":     userID,
		"city_id":     input.CityID,
		"street":      input.Street,
		"postal_code": input.PostalCode,
		"created_at":  now,
		"updated_at":  now,
	}, scope)
	if err != nil {
		if securedb.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user already has an address", ErrValidation)
		}

		return nil, taxonomyError(err)
	}

	row, err := s.db.FindScoped(ctx, securedb.TableAddresses, id, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return addressFromRow(row), nil
}

func (s *AddressService) putUpdate(ctx context.Context, existing securedb.Row, input objects.UpsertAddressInput) (*objects.Address, error) {
	scope, err := s.authorize(ctx, "update", resourceAddresses, addressProperties(existing))
	if err != nil {
		return nil, err
	}

	id := existing.UUID("id")

	affected, err := s.db.UpdateScoped(ctx, securedb.TableAddresses, id, map[string]any{
		"city_id":     input.CityID,
		"street":      input.Street,
		"postal_code": input.PostalCode,
		"updated_at":  time.Now().UTC(),
	}, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	if affected == 0 {
		return nil, ErrForbidden
	}

	row, err := s.db.FindScoped(ctx, securedb.TableAddresses, id, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return addressFromRow(row), nil
}

func validateAddressInput(userID, cityID uuid.UUID, street, postalCode string) error {
	if userID == uuid.Nil || cityID == uuid.Nil {
		return fmt.Errorf("%w: user and city are required", ErrValidation)
	}

	if street == "" || postalCode == "" {
		return fmt.Errorf("%w: street and postal code are required", ErrValidation)
	}

	return nil
}

func addressProperties(row securedb.Row) map[string]any {
	return map[string]any{
		securedb.FieldOwnerID: row.UUID("user_id"),
		securedb.FieldCityID:  row.UUID("city_id"),
		authz.FieldTenantID:   row.UUID("tenant_id"),
	}
}

func addressFromRow(row securedb.Row) *objects.Address {
	return &objects.Address{
		ID:         row.UUID("id"),
		TenantID:   row.UUID("tenant_id"),
		UserID:     row.UUID("user_id"),
		CityID:     row.UUID("city_id"),
		Street:     row.String("street"),
		PostalCode: row.String("postal_code"),
		CreatedAt:  row.Time("created_at"),
		UpdatedAt:  row.Time("updated_at"),
	}
}
