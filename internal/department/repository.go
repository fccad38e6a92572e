// AngelaMos | 2026
// repository.go

package department

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Arusey/Huduma/internal/core"
)

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id string) (*Department, error)
	List(ctx context.Context, params ListParams) ([]Department, int, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const departmentColumns = `id, name, service, email, phone_number, image,
	created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, d *Department) error {
	query := `
		INSERT INTO departments (id, name, service, email, phone_number, image, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		d.ID,
		d.Name,
		d.Service,
		d.Email,
		d.PhoneNumber,
		d.Image,
		d.CreatedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create department: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create department: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	var d Department
	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get department: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}

	return &d, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Department, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	if params.Search != "" {
		where = "(name ILIKE $1 OR service ILIKE $1)"
		args = append(args, "%"+escapeLike(params.Search)+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM departments WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM departments
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		departmentColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	deps := []Department{}
	if err := r.db.SelectContext(ctx, &deps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	return deps, total, nil
}

func (r *repository) Update(ctx context.Context, d *Department) error {
	query := `
		UPDATE departments
		SET name = $2, service = $3, email = $4, phone_number = $5, image = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &d.UpdatedAt, query,
		d.ID,
		d.Name,
		d.Service,
		d.Email,
		d.PhoneNumber,
		d.Image,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update department: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update department: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update department: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete department: %w", core.ErrNotFound)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
