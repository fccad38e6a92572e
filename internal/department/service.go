// AngelaMos | 2026
// service.go

package department

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/metrics"
)

var (
	ErrNotFound = core.NewAppError(
		core.ErrNotFound,
		"Department not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
	errNotOwner   = core.ForbiddenError("You are not the owner of this department")
	errDuplicated = core.DuplicateError("department with this email")
	errBlankName  = core.ValidationError("The department name cannot be blank")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateDepartmentRequest,
) (*Department, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("create department: %w", core.UnauthorizedError(""))
	}

	d := &Department{
		ID:        uuid.New().String(),
		CreatedBy: &ownerID,
	}
	if err := applyFull(d, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, mapWriteError("create department", err)
	}

	metrics.ObserveDepartmentOp("create")
	slog.InfoContext(ctx, "department created",
		"department_id", d.ID,
		"created_by", ownerID,
	)

	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Department, error) {
	canonical, ok := core.CanonicalID(id)
	if !ok {
		return nil, fmt.Errorf("get department %q: %w", id, ErrNotFound)
	}

	d, err := s.repo.GetByID(ctx, canonical)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("get department %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Department, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	id, requesterID string,
	req UpdateDepartmentRequest,
) (*Department, error) {
	d, err := s.loadMutable(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if err := applyFull(d, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, mapWriteError("update department", err)
	}

	metrics.ObserveDepartmentOp("update")
	return d, nil
}

func (s *Service) Patch(
	ctx context.Context,
	id, requesterID string,
	req PatchDepartmentRequest,
) (*Department, error) {
	d, err := s.loadMutable(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := cleanName(*req.Name)
		if err != nil {
			return nil, err
		}
		d.Name = name
	}
	if req.Service != nil {
		d.Service = *req.Service
	}
	if req.Email != nil {
		d.Email = normalizeEmail(*req.Email)
	}
	if req.PhoneNumber != nil {
		d.PhoneNumber = *req.PhoneNumber
	}
	if req.Image != nil {
		d.Image = req.Image
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, mapWriteError("patch department", err)
	}

	metrics.ObserveDepartmentOp("patch")
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	d, err := s.loadMutable(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, d.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("delete department %s: %w", id, ErrNotFound)
		}
		return err
	}

	metrics.ObserveDepartmentOp("delete")
	slog.InfoContext(ctx, "department deleted",
		"department_id", d.ID,
		"deleted_by", requesterID,
	)

	return nil
}

func (s *Service) loadMutable(
	ctx context.Context,
	id, requesterID string,
) (*Department, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !d.MutableBy(requesterID) {
		return nil, fmt.Errorf("department %s: %w", id, errNotOwner)
	}

	return d, nil
}

func applyFull(d *Department, req CreateDepartmentRequest) error {
	name, err := cleanName(req.Name)
	if err != nil {
		return err
	}

	d.Name = name
	d.Service = req.Service
	d.Email = normalizeEmail(req.Email)
	d.PhoneNumber = req.PhoneNumber
	d.Image = req.Image
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errBlankName
	}
	return name, nil
}

func mapWriteError(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrDuplicateKey):
		return fmt.Errorf("%s: %w", op, errDuplicated)
	case errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
