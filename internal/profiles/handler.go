package profiles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/platform/httpx"
	"github.com/academe-sis/academe/internal/shared"
)

// Handler manages profile endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.listOwn)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageUsers))
		r.Get("/user/{userID}", h.listForUser)
		r.Post("/", h.grant)
		r.Post("/{profileID}/revoke", h.revoke)
	})
}

type profileResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	Category    string `json:"category"`
	Active      bool   `json:"active"`
	StudentID   *int64 `json:"student_id,omitempty"`
	ProfessorID *int64 `json:"professor_id,omitempty"`
}

func toResponse(p authz.Profile) profileResponse {
	out := profileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Active:      p.Active,
		StudentID:   p.StudentID,
		ProfessorID: p.ProfessorID,
	}
	if p.Role != nil {
		out.Role = p.Role.Name
		out.Category = p.Role.Category.String()
	}
	return out
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	out := make([]profileResponse, 0, len(actor.Profiles))
	for _, p := range actor.Profiles {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be a positive integer")
		return
	}
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]profileResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": out})
}

type grantRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	Role        string `json:"role" validate:"required"`
	StudentID   *int64 `json:"student_id" validate:"omitempty,gt=0"`
	ProfessorID *int64 `json:"professor_id" validate:"omitempty,gt=0"`
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	profile, err := h.service.Grant(r.Context(), req.UserID, req.Role, req.StudentID, req.ProfessorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(profile))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	profileID, err := strconv.ParseInt(chi.URLParam(r, "profileID"), 10, 64)
	if err != nil || profileID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "profile id must be a positive integer")
		return
	}
	if err := h.service.Revoke(r.Context(), profileID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("profiles request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
