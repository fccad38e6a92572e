// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Arusey/Huduma/internal/core"
)

type Repository interface {
	ListTopLevel(ctx context.Context, departmentID string) ([]Review, error)
	GetForDepartment(ctx context.Context, departmentID, reviewID string) (*Review, error)
	ListChildren(ctx context.Context, parentIDs []string) ([]Review, error)
	Create(ctx context.Context, r *Review) error
	UpdateBody(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectReview = `
	SELECT r.id, r.body, r.department_id, r.author_id, r.parent_id,
	       r.created_at, r.updated_at,
	       u.email AS author_email,
	       d.name AS department_name,
	       (SELECT COUNT(*) FROM reviews c WHERE c.parent_id = r.id) AS reply_count
	FROM reviews r
	JOIN users u ON u.id = r.author_id
	JOIN departments d ON d.id = r.department_id`

func (r *repository) ListTopLevel(
	ctx context.Context,
	departmentID string,
) ([]Review, error) {
	query := selectReview + `
	WHERE r.department_id = $1 AND r.parent_id IS NULL
	ORDER BY r.created_at DESC, r.id`

	reviews := []Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, departmentID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

func (r *repository) GetForDepartment(
	ctx context.Context,
	departmentID, reviewID string,
) (*Review, error) {
	query := selectReview + `
	WHERE r.id = $1 AND r.department_id = $2`

	var rv Review
	err := r.db.GetContext(ctx, &rv, query, reviewID, departmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get review: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rv, nil
}

// ListChildren returns the direct replies of every review in parentIDs,
// oldest first.
func (r *repository) ListChildren(
	ctx context.Context,
	parentIDs []string,
) ([]Review, error) {
	if len(parentIDs) == 0 {
		return []Review{}, nil
	}

	query := selectReview + `
	WHERE r.parent_id = ANY($1::uuid[])
	ORDER BY r.created_at, r.id`

	children := []Review{}
	if err := r.db.SelectContext(ctx, &children, query, parentIDs); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	return children, nil
}

func (r *repository) Create(ctx context.Context, rv *Review) error {
	query := `
		INSERT INTO reviews (id, body, department_id, author_id, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		rv.ID,
		rv.Body,
		rv.DepartmentID,
		rv.AuthorID,
		rv.ParentID,
	).Scan(&rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if core.IsForeignKeyError(err) {
			return fmt.Errorf("create review: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) UpdateBody(ctx context.Context, rv *Review) error {
	query := `
		UPDATE reviews
		SET body = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &rv.UpdatedAt, query, rv.ID, rv.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update review: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	return nil
}

// Delete removes the review. Replies go with it through the parent_id
// foreign key cascade.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete review: %w", core.ErrNotFound)
	}

	return nil
}
