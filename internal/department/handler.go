// AngelaMos | 2026
// handler.go

package department

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/middleware"
)

// IDParam is the URL parameter naming a department. Nested routers use it
// too, so every route under /departments agrees on the name.
const IDParam = "departmentID"

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts on a router already scoped to /departments. Reads
// are public; writes go through authenticator.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/", h.List)
	r.Get("/{"+IDParam+"}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/", h.Create)
		r.Put("/{"+IDParam+"}", h.Update)
		r.Patch("/{"+IDParam+"}", h.Patch)
		r.Delete("/{"+IDParam+"}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", defaultPageSize),
		Search:   r.URL.Query().Get("search"),
	}
	params.Normalize()

	deps, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToDepartmentResponseList(deps), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, IDParam))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToDepartmentResponse(d))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToDepartmentResponse(d))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Update(
		r.Context(),
		chi.URLParam(r, IDParam),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToDepartmentResponse(d))
}

func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var req PatchDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	d, err := h.service.Patch(
		r.Context(),
		chi.URLParam(r, IDParam),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToDepartmentResponse(d))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		chi.URLParam(r, IDParam),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Department deleted successfully"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return false
	}

	return true
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
