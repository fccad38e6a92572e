// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
	"github.com/Arusey/Huduma/internal/metrics"
)

var (
	ErrNotFound = core.NewAppError(
		core.ErrNotFound,
		"Review does not exist",
		http.StatusNotFound,
		"NOT_FOUND",
	)
	errNotAuthor   = core.ForbiddenError("You are not the author of this review")
	errReplyDepth  = core.InvalidOperationError("You cannot reply to this review")
	errEmptyBody   = core.ValidationError("The review body cannot be empty")
	errBodyTooLong = core.ValidationError(
		fmt.Sprintf("The review body cannot exceed %d characters", maxBodyLength),
	)
)

// DepartmentFinder resolves the department a review belongs to.
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

// ListTopLevel returns the department's parentless reviews, newest first,
// each with its direct replies.
func (s *Service) ListTopLevel(
	ctx context.Context,
	departmentID string,
) ([]Thread, error) {
	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListTopLevel(ctx, d.ID)
	if err != nil {
		return nil, err
	}

	return s.attachChildren(ctx, reviews)
}

func (s *Service) Get(
	ctx context.Context,
	departmentID, reviewID string,
) (*Thread, error) {
	rv, err := s.find(ctx, departmentID, reviewID)
	if err != nil {
		return nil, err
	}

	threads, err := s.attachChildren(ctx, []Review{*rv})
	if err != nil {
		return nil, err
	}

	return &threads[0], nil
}

func (s *Service) Create(
	ctx context.Context,
	departmentID, authorID, body string,
) (*Thread, error) {
	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	return s.insert(ctx, d.ID, authorID, body, nil)
}

// Reply attaches a review under parentID. Only top-level reviews accept
// replies.
func (s *Service) Reply(
	ctx context.Context,
	departmentID, parentID, authorID, body string,
) (*Thread, error) {
	parent, err := s.find(ctx, departmentID, parentID)
	if err != nil {
		return nil, err
	}

	if parent.IsReply() {
		return nil, fmt.Errorf("reply to %s: %w", parentID, errReplyDepth)
	}

	return s.insert(ctx, parent.DepartmentID, authorID, body, &parent.ID)
}

// Update replaces the body. Authorship is checked before the new body is
// validated.
func (s *Service) Update(
	ctx context.Context,
	departmentID, reviewID, requesterID, body string,
) (*Thread, error) {
	rv, err := s.findOwned(ctx, departmentID, reviewID, requesterID)
	if err != nil {
		return nil, err
	}

	clean, err := validateBody(body)
	if err != nil {
		return nil, err
	}

	rv.Body = clean
	if err := s.repo.UpdateBody(ctx, rv); err != nil {
		return nil, s.mapMissing(err)
	}

	return s.Get(ctx, departmentID, reviewID)
}

func (s *Service) Delete(
	ctx context.Context,
	departmentID, reviewID, requesterID string,
) error {
	rv, err := s.findOwned(ctx, departmentID, reviewID, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, rv.ID); err != nil {
		return s.mapMissing(err)
	}

	core.AddSpanEvent(ctx, "review.deleted",
		attribute.String("review.id", rv.ID),
		attribute.Int("review.replies", rv.ReplyCount),
	)
	slog.InfoContext(ctx, "review deleted",
		"review_id", rv.ID,
		"department_id", departmentID,
		"replies_removed", rv.ReplyCount,
	)

	return nil
}

func (s *Service) insert(
	ctx context.Context,
	departmentID, authorID, body string,
	parentID *string,
) (*Thread, error) {
	clean, err := validateBody(body)
	if err != nil {
		return nil, err
	}

	rv := &Review{
		ID:           uuid.New().String(),
		Body:         clean,
		DepartmentID: departmentID,
		AuthorID:     authorID,
		ParentID:     parentID,
	}

	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, s.mapMissing(err)
	}

	kind := metrics.KindTopLevel
	if parentID != nil {
		kind = metrics.KindReply
	}
	metrics.ObserveReviewCreated(kind)
	core.AddSpanEvent(ctx, "review.created",
		attribute.String("review.id", rv.ID),
		attribute.String("review.kind", kind),
	)

	return s.Get(ctx, departmentID, rv.ID)
}

func (s *Service) find(
	ctx context.Context,
	departmentID, reviewID string,
) (*Review, error) {
	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	canonical, ok := core.CanonicalID(reviewID)
	if !ok {
		return nil, fmt.Errorf("review %q: %w", reviewID, ErrNotFound)
	}

	rv, err := s.repo.GetForDepartment(ctx, d.ID, canonical)
	if err != nil {
		return nil, s.mapMissing(err)
	}

	return rv, nil
}

func (s *Service) findOwned(
	ctx context.Context,
	departmentID, reviewID, requesterID string,
) (*Review, error) {
	rv, err := s.find(ctx, departmentID, reviewID)
	if err != nil {
		return nil, err
	}

	if requesterID == "" || rv.AuthorID != requesterID {
		return nil, fmt.Errorf("review %s: %w", reviewID, errNotAuthor)
	}

	return rv, nil
}

func (s *Service) attachChildren(
	ctx context.Context,
	reviews []Review,
) ([]Thread, error) {
	ids := make([]string, 0, len(reviews))
	for i := range reviews {
		ids = append(ids, reviews[i].ID)
	}

	children, err := s.repo.ListChildren(ctx, ids)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]Review, len(reviews))
	for _, c := range children {
		if c.ParentID != nil {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}

	threads := make([]Thread, 0, len(reviews))
	for _, rv := range reviews {
		threads = append(threads, Thread{
			Review:   rv,
			Children: byParent[rv.ID],
		})
	}

	return threads, nil
}

func (s *Service) mapMissing(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("review: %w", ErrNotFound)
	}
	return err
}

func validateBody(body string) (string, error) {
	clean := strings.TrimSpace(body)
	if clean == "" {
		return "", errEmptyBody
	}
	if utf8.RuneCountInString(clean) > maxBodyLength {
		return "", errBodyTooLong
	}
	return clean, nil
}
