// AngelaMos | 2026
// handler.go

package rating

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
	"github.com/Arusey/Huduma/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts on a router already scoped to /rate. Viewing works
// anonymously; optionalAuth only enriches the view for signed-in users.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	path := "/{" + department.IDParam + "}"

	r.With(optionalAuth).Get(path, h.View)
	r.With(authenticator).Post(path, h.Submit)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	sub, err := h.service.Submit(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		middleware.GetUserID(r.Context()),
		req.UserRating,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToSubmitResponse(sub))
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.View(
		r.Context(),
		chi.URLParam(r, department.IDParam),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToRatingResponse(v))
}
