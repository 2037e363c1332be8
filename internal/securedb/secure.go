package securedb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/tenantguard/tenantguard/internal/authz"
)

var (
	// ErrRowNotFound reports that no row matched both the caller's filter
	// and the access scope. It deliberately does not distinguish a missing
	// row from an out-of-scope one.
	ErrRowNotFound = errors.New("securedb: row not found")

	// ErrScopeViolation reports that a written value contradicts a scope
	// predicate, for example an insert carrying a foreign tenant id.
	ErrScopeViolation = errors.New("securedb: value violates access scope")

	// ErrUnscopedRequired reports a system read attempted outside an
	// authz unscoped context.
	ErrUnscopedRequired = errors.New("securedb: system read requires unscoped access")
)

// IsUniqueViolation reports whether err is a unique-constraint failure from
// any of the supported drivers. Matching on the message is what the drivers
// leave us without importing their error types into callers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "Duplicate entry") // mysql
}

// Query narrows and pages a scoped list.
type Query struct {
	Filters []authz.Predicate
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// InsertValidated writes a new row after checking its values against the
// scope. A value contradicting any scope predicate fails with
// ErrScopeViolation before anything reaches the store.
func (c *Client) InsertValidated(ctx context.Context, t Table, values map[string]any, scope authz.AccessScope) error {
	if err := t.validateColumns(values); err != nil {
		return err
	}

	logical := make(map[string]any, len(t.Fields))

	for field, col := range t.Fields {
		if v, ok := values[col]; ok {
			logical[field] = v
		}
	}

	if pred, ok := scope.MatchesValues(logical); !ok {
		return fmt.Errorf("%w: %s", ErrScopeViolation, pred.String())
	}

	var (
		cols []string
		args []any
	)

	for _, col := range t.Columns {
		if v, ok := values[col.Name]; ok {
			cols = append(cols, col.Name)
			args = append(args, v)
		}
	}

	query, qargs := c.builder().Insert(t.Name).Columns(cols...).Values(args...).Query()

	var res entsql.Result
	if err := c.querier(ctx).Exec(ctx, query, qargs, &res); err != nil {
		return fmt.Errorf("securedb: insert into %s: %w", t.Name, err)
	}

	return nil
}

// FindScoped loads a row by primary key, restricted by the scope.
func (c *Client) FindScoped(ctx context.Context, t Table, id uuid.UUID, scope authz.AccessScope) (Row, error) {
	return c.findOne(ctx, t, []*entsql.Predicate{entsql.EQ(t.PK, id.String())}, scope)
}

// FindOneScoped loads the single row matching the filters, restricted by the
// scope. Filters reference logical fields the table must declare.
func (c *Client) FindOneScoped(ctx context.Context, t Table, filters []authz.Predicate, scope authz.AccessScope) (Row, error) {
	preds, err := filterPredicates(t, filters)
	if err != nil {
		return nil, err
	}

	return c.findOne(ctx, t, preds, scope)
}

// FindSystem loads a row by primary key without scope restriction. It is the
// prefetch primitive and only works inside an authz unscoped context.
func (c *Client) FindSystem(ctx context.Context, t Table, id uuid.UUID) (Row, error) {
	if !authz.IsUnscopedActive(ctx) {
		return nil, ErrUnscopedRequired
	}

	return c.findOne(ctx, t, []*entsql.Predicate{entsql.EQ(t.PK, id.String())}, authz.AccessScope{})
}

// FindOneSystem loads the single row matching the filters without scope
// restriction, inside an authz unscoped context only.
func (c *Client) FindOneSystem(ctx context.Context, t Table, filters []authz.Predicate) (Row, error) {
	if !authz.IsUnscopedActive(ctx) {
		return nil, ErrUnscopedRequired
	}

	preds, err := filterPredicates(t, filters)
	if err != nil {
		return nil, err
	}

	return c.findOne(ctx, t, preds, authz.AccessScope{})
}

// ListScoped loads the rows matching the query, restricted by the scope. An
// empty result is a valid answer, never an error.
func (c *Client) ListScoped(ctx context.Context, t Table, q Query, scope authz.AccessScope) ([]Row, error) {
	filters, err := filterPredicates(t, q.Filters)
	if err != nil {
		return nil, err
	}

	selector := c.selector(t, filters, scope)

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = t.PK
	}

	if q.Desc {
		selector.OrderBy(entsql.Desc(orderBy))
	} else {
		selector.OrderBy(entsql.Asc(orderBy))
	}

	if q.Limit > 0 {
		selector.Limit(q.Limit)
	}

	if q.Offset > 0 {
		selector.Offset(q.Offset)
	}

	query, args := selector.Query()

	rows := &entsql.Rows{}
	if err := c.querier(ctx).Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("securedb: select from %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []Row

	for rows.Next() {
		dest := t.scanDest()
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("securedb: scan %s: %w", t.Name, err)
		}

		out = append(out, t.rowFromDest(dest))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("securedb: iterate %s: %w", t.Name, err)
	}

	return out, nil
}

// UpdateScoped updates the row by primary key, restricted by the scope, and
// returns the number of rows touched. The new values are validated against
// the scope so an update cannot move a row out of the caller's reach.
func (c *Client) UpdateScoped(ctx context.Context, t Table, id uuid.UUID, values map[string]any, scope authz.AccessScope) (int, error) {
	if err := t.validateColumns(values); err != nil {
		return 0, err
	}

	logical := make(map[string]any, len(t.Fields))

	for field, col := range t.Fields {
		if v, ok := values[col]; ok {
			logical[field] = v
		}
	}

	if pred, ok := scope.MatchesValues(logical); !ok {
		return 0, fmt.Errorf("%w: %s", ErrScopeViolation, pred.String())
	}

	update := c.builder().Update(t.Name)

	for _, col := range t.Columns {
		if v, ok := values[col.Name]; ok {
			update.Set(col.Name, v)
		}
	}

	where := entsql.EQ(t.PK, id.String())
	if sp := scopePredicate(t, scope); sp != nil {
		where = entsql.And(where, sp)
	}

	query, args := update.Where(where).Query()

	var res entsql.Result
	if err := c.querier(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("securedb: update %s: %w", t.Name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("securedb: update %s: %w", t.Name, err)
	}

	return int(affected), nil
}

// DeleteScoped deletes the row by primary key, restricted by the scope, and
// returns the number of rows removed.
func (c *Client) DeleteScoped(ctx context.Context, t Table, id uuid.UUID, scope authz.AccessScope) (int, error) {
	where := entsql.EQ(t.PK, id.String())
	if sp := scopePredicate(t, scope); sp != nil {
		where = entsql.And(where, sp)
	}

	query, args := c.builder().Delete(t.Name).Where(where).Query()

	var res entsql.Result
	if err := c.querier(ctx).Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("securedb: delete from %s: %w", t.Name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("securedb: delete from %s: %w", t.Name, err)
	}

	return int(affected), nil
}

// CountSystem counts all rows of a table across tenants, inside an authz
// unscoped context only.
func (c *Client) CountSystem(ctx context.Context, t Table) (int64, error) {
	if !authz.IsUnscopedActive(ctx) {
		return 0, ErrUnscopedRequired
	}

	query, args := c.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(t.Name)).
		Query()

	rows := &entsql.Rows{}
	if err := c.querier(ctx).Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("securedb: count %s: %w", t.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("securedb: count %s: %w", t.Name, err)
		}

		return 0, fmt.Errorf("securedb: count %s: no result", t.Name)
	}

	var count int64
	if err := rows.Scan(&count); err != nil {
		return 0, fmt.Errorf("securedb: count %s: %w", t.Name, err)
	}

	return count, nil
}

func (c *Client) findOne(ctx context.Context, t Table, filters []*entsql.Predicate, scope authz.AccessScope) (Row, error) {
	selector := c.selector(t, filters, scope).Limit(1)

	query, args := selector.Query()

	rows := &entsql.Rows{}
	if err := c.querier(ctx).Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("securedb: select from %s: %w", t.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("securedb: iterate %s: %w", t.Name, err)
		}

		return nil, ErrRowNotFound
	}

	dest := t.scanDest()
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("securedb: scan %s: %w", t.Name, err)
	}

	return t.rowFromDest(dest), nil
}

func (c *Client) selector(t Table, filters []*entsql.Predicate, scope authz.AccessScope) *entsql.Selector {
	selector := c.builder().
		Select(t.columnNames()...).
		From(entsql.Table(t.Name))

	for _, p := range filters {
		selector.Where(p)
	}

	if sp := scopePredicate(t, scope); sp != nil {
		selector.Where(sp)
	}

	return selector
}

// scopePredicate renders the scope as a SQL predicate on t. Predicates on
// fields the table does not declare are skipped. An in predicate with no
// values renders as FALSE so it matches nothing.
func scopePredicate(t Table, scope authz.AccessScope) *entsql.Predicate {
	var preds []*entsql.Predicate

	for _, p := range scope.Predicates {
		col, ok := t.FieldColumn(p.Field)
		if !ok {
			continue
		}

		preds = append(preds, sqlPredicate(col, p))
	}

	if len(preds) == 0 {
		return nil
	}

	return entsql.And(preds...)
}

// filterPredicates renders caller-supplied filters. Unlike scope predicates,
// a filter on an undeclared field is a programming error.
func filterPredicates(t Table, filters []authz.Predicate) ([]*entsql.Predicate, error) {
	preds := make([]*entsql.Predicate, 0, len(filters))

	for _, p := range filters {
		col, ok := t.FieldColumn(p.Field)
		if !ok {
			return nil, fmt.Errorf("securedb: table %s does not declare field %s", t.Name, p.Field)
		}

		preds = append(preds, sqlPredicate(col, p))
	}

	return preds, nil
}

func sqlPredicate(col string, p authz.Predicate) *entsql.Predicate {
	switch p.Kind {
	case authz.KindIn:
		if len(p.Values) == 0 {
			return entsql.False()
		}

		args := make([]any, len(p.Values))
		for i, v := range p.Values {
			args[i] = v
		}

		return entsql.In(col, args...)
	default:
		return entsql.EQ(col, authz.NormalizeValue(p.Value))
	}
}
