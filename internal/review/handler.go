// AngelaMos | 2026
// handler.go

package review

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
	"github.com/Arusey/Huduma/internal/middleware"
)

const reviewParam = "reviewID"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts on a router already scoped to /departments.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	base := "/{" + department.IDParam + "}/reviews"
	single := base + "/{" + reviewParam + "}"

	r.Get(base, h.List)
	r.Get(single, h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post(base, h.Create)
		r.Post(single, h.Reply)
		r.Put(single, h.Update)
		r.Delete(single, h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	threads, err := h.service.ListTopLevel(r.Context(), chi.URLParam(r, department.IDParam))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToThreadResponseList(threads))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	thread, err := h.service.Get(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		chi.URLParam(r, reviewParam),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToThreadResponse(thread))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	thread, err := h.service.Create(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		middleware.GetUserID(r.Context()),
		req.Body,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToThreadResponse(thread))
}

func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	thread, err := h.service.Reply(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		chi.URLParam(r, reviewParam),
		middleware.GetUserID(r.Context()),
		req.Body,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToThreadResponse(thread))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	thread, err := h.service.Update(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		chi.URLParam(r, reviewParam),
		middleware.GetUserID(r.Context()),
		req.Body,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToThreadResponse(thread))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		chi.URLParam(r, reviewParam),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "Review deleted successfully"})
}

func decode(w http.ResponseWriter, r *http.Request) (ReviewRequest, bool) {
	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}
	return req, true
}
