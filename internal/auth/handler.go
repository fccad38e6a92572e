// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/middleware"
)

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

// RegisterRoutes mounts the account endpoints on a router already scoped to
// /user.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/logout", h.Logout)
		r.Post("/logout-all", h.LogoutAll)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.bind(w, r, &req, "invalid request body") {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.bind(w, r, &req, "Please provide an email and a password") {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.InvalidCredentialsError())
			return
		}
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.JSONError(w, err)
		return
	}

	core.NoContent(w)
}

// bind decodes and validates the body into dst. On failure it has already
// written the response; badBody is the message for malformed JSON.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any, badBody string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, badBody)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.JSONError(w, core.ValidationError(core.FormatValidationError(err)))
		return false
	}

	return true
}
