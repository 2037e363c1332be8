package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/authz"
	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/policy"
	"github.com/tenantguard/tenantguard/internal/securedb"
)

const resourceUsers = "users"

type UserServiceParams struct {
	fx.In

	DB     *securedb.Client
	Policy policy.Client
}

type UserService struct {
	*AbstractService
}

func NewUserService(params UserServiceParams) *UserService {
	return &UserService{
		AbstractService: &AbstractService{
			db:     params.DB,
			policy: params.Policy,
		},
	}
}

// CreateUser creates a user in the caller's tenant. The stored tenant is
// validated against the resolved scope before anything is written.
func (s *UserService) CreateUser(ctx context.Context, input objects.CreateUserInput) (*objects.User, error) {
	if err := validateUserInput(input.Email, input.DisplayName); err != nil {
		return nil, err
	}

	tenant, err := callerTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	scope, err := s.authorize(ctx, "create", resourceUsers, nil)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	var out *objects.User

	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
		err := s.db.InsertValidated(ctx, securedb.TableUsers, map[string]any{
			"id":           id,
			"tenant_id":    tenant,
			"email":        input.Email,
			"display_name": input.DisplayName,
			"created_at":   now,
			"updated_at":   now,
		}, scope)
		if err != nil {
			if securedb.IsUniqueViolation(err) {
				return fmt.Errorf("%w: email already in use", ErrValidation)
			}

			return taxonomyError(err)
		}

		row, err := s.db.FindScoped(ctx, securedb.TableUsers, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = userFromRow(row)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetUser loads a user through the scoped read path. Rows outside the scope
// read as not found.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*objects.User, error) {
	scope, err := s.authorize(ctx, "read", resourceUsers, nil)
	if err != nil {
		return nil, err
	}

	row, err := s.db.FindScoped(ctx, securedb.TableUsers, id, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return userFromRow(row), nil
}

type ListUsersQuery struct {
	Email  *string
	Limit  int
	Offset int
}

// ListUsers lists the users visible to the caller. An empty result is a
// valid answer. Caller filters only ever narrow the scope, never widen it.
func (s *UserService) ListUsers(ctx context.Context, q ListUsersQuery) ([]*objects.User, error) {
	scope, err := s.authorize(ctx, "list", resourceUsers, nil)
	if err != nil {
		return nil, err
	}

	query := securedb.Query{
		OrderBy: "created_at",
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if q.Email != nil {
		query.Filters = append(query.Filters, authz.Eq("email", *q.Email))
	}

	rows, err := s.db.ListScoped(ctx, securedb.TableUsers, query, scope)
	if err != nil {
		return nil, taxonomyError(err)
	}

	return lo.Map(rows, func(row securedb.Row, _ int) *objects.User {
		return userFromRow(row)
	}), nil
}

// UpdateUser updates a user through the prefetch, policy, scoped-mutate
// sequence in one transaction.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, input objects.UpdateUserInput) (*objects.User, error) {
	if input.Email == nil && input.DisplayName == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if input.Email != nil && !strings.Contains(*input.Email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	if input.DisplayName != nil && *input.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	}

	var out *objects.User

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableUsers, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "update", resourceUsers, userProperties(row))
		if err != nil {
			return err
		}

		values := map[string]any{"updated_at": time.Now().UTC()}
		if input.Email != nil {
			values["email"] = *input.Email
		}

		if input.DisplayName != nil {
			values["display_name"] = *input.DisplayName
		}

		affected, err := s.db.UpdateScoped(ctx, securedb.TableUsers, id, values, scope)
		if err != nil {
			if securedb.IsUniqueViolation(err) {
				return fmt.Errorf("%w: email already in use", ErrValidation)
			}

			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		updated, err := s.db.FindScoped(ctx, securedb.TableUsers, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		out = userFromRow(updated)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteUser removes a user through the same sequence as UpdateUser.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		row, err := s.prefetch(ctx, securedb.TableUsers, id)
		if err != nil {
			return err
		}

		scope, err := s.authorize(ctx, "delete", resourceUsers, userProperties(row))
		if err != nil {
			return err
		}

		affected, err := s.db.DeleteScoped(ctx, securedb.TableUsers, id, scope)
		if err != nil {
			return taxonomyError(err)
		}

		if affected == 0 {
			return ErrForbidden
		}

		return nil
	})
}

func validateUserInput(email, displayName string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}

	if displayName == "" {
		return fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	}

	return nil
}

func userProperties(row securedb.Row) map[string]any {
	return map[string]any{
		"id":                row.UUID("id"),
		authz.FieldTenantID: row.UUID("tenant_id"),
	}
}

func userFromRow(row securedb.Row) *objects.User {
	return &objects.User{
		ID:          row.UUID("id"),
		TenantID:    row.UUID("tenant_id"),
		Email:       row.String("email"),
		DisplayName: row.String("display_name"),
		CreatedAt:   row.Time("created_at"),
		UpdatedAt:   row.Time("updated_at"),
	}
}
