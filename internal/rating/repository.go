// AngelaMos | 2026
// repository.go

package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Arusey/Huduma/internal/core"
)

type Repository interface {
	// Upsert stores r for its (user, department) pair and reports whether a
	// new row was inserted.
	Upsert(ctx context.Context, r *Rating) (bool, error)
	GetForUser(ctx context.Context, departmentID, userID string) (*Rating, error)
	Average(ctx context.Context, departmentID string) (float64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, rt *Rating) (bool, error) {
	query := `
		INSERT INTO ratings (id, user_id, department_id, user_rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT ratings_user_department_key
		DO UPDATE SET user_rating = EXCLUDED.user_rating, updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowxContext(ctx, query,
		rt.ID,
		rt.UserID,
		rt.DepartmentID,
		rt.UserRating,
	).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt, &inserted)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return false, fmt.Errorf("upsert rating: %w", core.ErrNotFound)
		}
		return false, fmt.Errorf("upsert rating: %w", err)
	}

	return inserted, nil
}

func (r *repository) GetForUser(
	ctx context.Context,
	departmentID, userID string,
) (*Rating, error) {
	query := `
		SELECT id, user_id, department_id, user_rating, created_at, updated_at
		FROM ratings
		WHERE department_id = $1 AND user_id = $2`

	var rt Rating
	err := r.db.GetContext(ctx, &rt, query, departmentID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get rating: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}

	return &rt, nil
}

func (r *repository) Average(ctx context.Context, departmentID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG(user_rating), 0)
		FROM ratings
		WHERE department_id = $1`

	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, departmentID); err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}

	return avg, nil
}
