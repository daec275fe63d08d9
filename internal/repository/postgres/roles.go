package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arklim/console-auth/internal/core/port"
)

// RoleRepository implements role assignment persistence.
type RoleRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository constructs a role repository backed by any executor that
// satisfies pgExecutor.
func NewRoleRepository(exec pgExecutor) *RoleRepository {
	repo := &RoleRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	if tx == nil {
		return r
	}
	return &RoleRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// RolesOf lists the role names assigned to the user.
func (r *RoleRepository) RolesOf(ctx context.Context, username string) ([]string, error) {
	stmt, args, err := r.builder.Select("role").
		From("auth.user_roles").
		Where(squirrel.Eq{"username": username}).
		OrderBy("role ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}

	return roles, nil
}

// Assign links the user to the role. Re-assigning an existing role is a no-op.
func (r *RoleRepository) Assign(ctx context.Context, username, role string) error {
	stmt, args, err := r.builder.Insert("auth.user_roles").
		Columns("username", "role", "assigned_at").
		Values(username, role, time.Now().UTC()).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign role sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

// Revoke removes the role assignment from the user.
func (r *RoleRepository) Revoke(ctx context.Context, username, role string) error {
	stmt, args, err := r.builder.Delete("auth.user_roles").
		Where(squirrel.Eq{"username": username}).
		Where(squirrel.Eq{"role": role}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke role sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}

	return nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
