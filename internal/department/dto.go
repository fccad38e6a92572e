// AngelaMos | 2026
// dto.go

package department

import (
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CreateDepartmentRequest struct {
	Name        string  `json:"name"                   validate:"required,notblank,max=50"`
	Service     string  `json:"service"                validate:"max=400"`
	Email       string  `json:"email"                  validate:"required,email,max=40"`
	PhoneNumber string  `json:"phone_number,omitempty" validate:"omitempty,max=17,phone"`
	Image       *string `json:"image,omitempty"        validate:"omitempty,url"`
}

// UpdateDepartmentRequest replaces every field; absent optional fields are
// cleared.
type UpdateDepartmentRequest = CreateDepartmentRequest

type PatchDepartmentRequest struct {
	Name        *string `json:"name,omitempty"         validate:"omitempty,notblank,max=50"`
	Service     *string `json:"service,omitempty"      validate:"omitempty,max=400"`
	Email       *string `json:"email,omitempty"        validate:"omitempty,email,max=40"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=17,phone"`
	Image       *string `json:"image,omitempty"        validate:"omitempty,url"`
}

type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Service     string    `json:"service"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Image       *string   `json:"image"`
	CreatedBy   *string   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToDepartmentResponse(d *Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Service:     d.Service,
		Email:       d.Email,
		PhoneNumber: d.PhoneNumber,
		Image:       d.Image,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func ToDepartmentResponseList(deps []Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(deps))
	for i := range deps {
		out = append(out, ToDepartmentResponse(&deps[i]))
	}
	return out
}
