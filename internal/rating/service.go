// AngelaMos | 2026
// service.go

package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
	"github.com/Arusey/Huduma/internal/metrics"
)

var (
	errMissing  = core.ValidationError("Please provide a rating between 1 and 5")
	errTooLow   = core.ValidationError("The minimum allowed rating is 1")
	errTooHigh  = core.ValidationError("The maximum allowed rating is 5")
	errOwnerRat = core.ForbiddenError("You cannot rate your own department")
)

type DepartmentFinder interface {
	Get(ctx context.Context, id string) (*department.Department, error)
}

type Service struct {
	repo        Repository
	departments DepartmentFinder
}

func NewService(repo Repository, departments DepartmentFinder) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
	}
}

// Submit creates or replaces userID's rating of the department in a single
// statement, so concurrent submits for the same pair leave one row.
func (s *Service) Submit(
	ctx context.Context,
	departmentID, userID string,
	value *float64,
) (*Submission, error) {
	ctx, span := core.StartSpan(ctx, "rating.Submit",
		attribute.String("department.id", departmentID),
	)
	defer span.End()

	if err := validateValue(value); err != nil {
		metrics.ObserveRatingSubmitted(metrics.ResultRejected)
		return nil, err
	}

	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	if d.IsOwner(userID) {
		metrics.ObserveRatingSubmitted(metrics.ResultRejected)
		return nil, fmt.Errorf("rate department %s: %w", departmentID, errOwnerRat)
	}

	rt := Rating{
		ID:           uuid.New().String(),
		UserID:       userID,
		DepartmentID: d.ID,
		UserRating:   *value,
	}

	created, err := s.repo.Upsert(ctx, &rt)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("rate department %s: %w", departmentID, department.ErrNotFound)
		}
		core.SetSpanError(ctx, err)
		return nil, err
	}

	avg, err := s.repo.Average(ctx, d.ID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	result := metrics.ResultUpdated
	if created {
		result = metrics.ResultCreated
	}
	metrics.ObserveRatingSubmitted(result)
	core.AddSpanEvent(ctx, "rating.submitted",
		attribute.String("rating.result", result),
		attribute.Float64("rating.average", avg),
	)
	slog.DebugContext(ctx, "rating submitted",
		"department_id", departmentID,
		"user_id", userID,
		"result", result,
	)

	return &Submission{
		Rating:  rt,
		Created: created,
		Average: avg,
	}, nil
}

// GetForUser returns the user's rating of the department, or nil when the
// user has not rated it.
func (s *Service) GetForUser(
	ctx context.Context,
	departmentID, userID string,
) (*Rating, error) {
	rt, err := s.repo.GetForUser(ctx, departmentID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rt, nil
}

// AverageFor is the mean of all ratings for the department, 0 when none.
func (s *Service) AverageFor(ctx context.Context, departmentID string) (float64, error) {
	return s.repo.Average(ctx, departmentID)
}

func (s *Service) View(
	ctx context.Context,
	departmentID, requesterID string,
) (*View, error) {
	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	avg, err := s.AverageFor(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	v := &View{DepartmentID: d.ID, Average: avg}

	if requesterID == "" {
		v.UserRating = SentinelAnonymous
		return v, nil
	}

	rt, err := s.GetForUser(ctx, d.ID, requesterID)
	if err != nil {
		return nil, err
	}

	if rt == nil {
		v.UserRating = SentinelNotRated
	} else {
		v.UserRating = rt.UserRating
	}

	return v, nil
}

func validateValue(value *float64) error {
	switch {
	case value == nil:
		return errMissing
	case *value < MinRating:
		return errTooLow
	case *value > MaxRating:
		return errTooHigh
	}
	return nil
}
