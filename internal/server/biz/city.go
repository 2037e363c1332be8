package biz

import (
	"context"
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

const resourceCities = "cities"

type CityServiceParams struct {
	fx.In

	DB     *securedb.Client
	Policy policy.Client
}

type CityService struct {
	*AbstractService
}

func NewCityService(params CityServiceParams) *CityService {
	return &CityService{
		AbstractService: &AbstractService{
			db:     params.DB,
			policy: params.Policy,
		},
	}
}

func (s *CityService) CreateCity(ctx context.Context, input objects.CreateCityInput) (*objects.City, error) {
	if input.Name == "" || input.Country == "" {
		return nil, fmt.Errorf("%w: name and country are required", ErrValidation)
	}

	tenant, err := callerTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	scope, err := s.authorize(ctx, "create", resourceCities, nil)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	var out *objects.City

	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
		err := s.db.InsertValidated(ctx, securedb.TableCities, map[string]any{
			"id":         id,
			"tenant_id":  tenant,
			"name":       input.Name,
			"country":    input.Country,
			"created_at": now,
			"updated_at": now,
		}, scope)
		if err != nil {
			if securedb.IsUniqueViolation(err) {
				return fmt.Errorf("%w: city already exists", ErrValidation)
			}

			return taxonomyError(err)
		}

		row, err := s.db.FindScoped(ctx, securedb.TableCities, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = cityFromRow(row)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *CityService) GetCity(ctx context.Context, id uuid.UUID) (*objects.City, error) {
	scope, err := s.authorize(ctx, "read", resourceCities, nil)
	if err != nil {
		return nil, err
	}

	row, err := s.db.FindScoped(ctx, securedb.TableCities, id, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return cityFromRow(row), nil
}

type ListCitiesQuery struct {
	Country *string
	Limit   int
	Offset  int
}

func (s *CityService) ListCities(ctx context.Context, q ListCitiesQuery) ([]*objects.City, error) {
	scope, err := s.authorize(ctx, "list", resourceCities, nil)
	if err != nil {
		return nil, err
	}

	query := securedb.Query{
		OrderBy: "name",
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.Country != nil {
		query.Filters = append(query.Filters, authz.Eq("country", *q.Country))
	}

	rows, err := s.db.ListScoped(ctx, securedb.TableCities, query, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return lo.Map(rows, func(row securedb.Row, _ int) *objects.City {
		return cityFromRow(row)
	}), nil
}

func (s *CityService) UpdateCity(ctx context.Context, id uuid.UUID, input objects.UpdateCityInput) (*objects.City, error) {
	if input.Name == nil && input.Country == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	var out *objects.City

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableCities, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "update", resourceCities, cityProperties(row))
		if err != nil {
			return err
		}

		values := map[string]any{"updated_at": time.Now().UTC()}
		if input.Name != nil {
			values["name"] = *input.Name
		}

		if input.Country != nil {
			values["country"] = *input.Country
		}

		affected, err := s.db.UpdateScoped(ctx, securedb.TableCities, id, values, scope)
		if err != nil {
			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		updated, err := s.db.FindScoped(ctx, securedb.TableCities, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = cityFromRow(updated)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *CityService) DeleteCity(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableCities, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "delete", resourceCities, cityProperties(row))
		if err != nil {
			return err
		}

		affected, err := s.db.DeleteScoped(ctx, securedb.TableCities, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		return nil
	})
}

func cityProperties(row securedb.Row) map[string]any {
	return map[string]any{
		securedb.FieldCityID: row.UUID("id"),
		authz.FieldTenantID:  row.UUID("tenant_id"),
	}
}

func cityFromRow(row securedb.Row) *objects.City {
	return &objects.City{
		ID:        row.UUID("id"),
		TenantID:  row.UUID("tenant_id"),
		Name:      row.String("name"),
		Country:   row.String("country"),
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}
}
