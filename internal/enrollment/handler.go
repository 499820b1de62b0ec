package enrollment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/platform/httpx"
)

// Handler exposes the enrollment API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		authz:    mw,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers enrollment routes. Object-level authorization happens
// inside the service; only the management endpoints carry a flat permission
// gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{enrollmentID}", h.get)
	r.Get("/{enrollmentID}/gradeable", h.gradeable)
	r.Post("/{enrollmentID}/grade", h.grade)

	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageEnrollments))
		r.Post("/", h.create)
		r.Post("/{enrollmentID}/cancel", h.cancel)
	})
}

type enrollmentResponse struct {
	ID                int64      `json:"id"`
	StudentProfileID  int64      `json:"student_profile_id"`
	SectionID         int64      `json:"section_id"`
	Status            Status     `json:"status"`
	Grade             *float64   `json:"grade,omitempty"`
	GradeNotes        *string    `json:"grade_notes,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`
	GradedByProfileID *int64     `json:"graded_by_profile_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toResponse(e Enrollment) enrollmentResponse {
	return enrollmentResponse{
		ID:                e.ID,
		StudentProfileID:  e.StudentProfileID,
		SectionID:         e.SectionID,
		Status:            e.Status,
		Grade:             e.Grade,
		GradeNotes:        e.GradeNotes,
		GradedAt:          e.GradedAt,
		GradedByProfileID: e.GradedByProfileID,
		CreatedAt:         e.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	enrollments, err := h.service.ListVisible(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"enrollments": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := h.enrollmentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "enrollment id must be a positive integer")
		return
	}
	e, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*e))
}

func (h *Handler) gradeable(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := h.enrollmentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "enrollment id must be a positive integer")
		return
	}
	var hint int64
	if raw := r.URL.Query().Get("profile_id"); raw != "" {
		hint, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Profile", "profile_id must be a positive integer")
			return
		}
	}
	allowed, err := h.service.CanGrade(r.Context(), actor, id, hint)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"gradeable": allowed})
}

type gradeRequest struct {
	Value *float64 `json:"value" validate:"required"`
	Notes string   `json:"notes" validate:"max=2000"`
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	id, err := h.enrollmentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "enrollment id must be a positive integer")
		return
	}
	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.SetGrade(r.Context(), actor, id, *req.Value, req.Notes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*e))
}

type createRequest struct {
	StudentProfileID int64 `json:"student_profile_id" validate:"required,gt=0"`
	SectionID        int64 `json:"section_id" validate:"required,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	e, err := h.service.Create(r.Context(), actor, req.StudentProfileID, req.SectionID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(*e))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFromContext(r.Context())
	id, err := h.enrollmentID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "enrollment id must be a positive integer")
		return
	}
	e, err := h.service.Cancel(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*e))
}

func (h *Handler) enrollmentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "enrollmentID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid enrollment id")
	}
	return id, nil
}

// respondError maps the closed error taxonomy onto problem responses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var invalidGrade *InvalidGradeError
	var denied *authz.PermissionDeniedError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "enrollment not found")
	case errors.As(err, &invalidGrade):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Grade", invalidGrade.Error())
	case errors.Is(err, ErrEnrollmentCancelled):
		httpx.Problem(w, http.StatusConflict, "Enrollment Cancelled", err.Error())
	case errors.Is(err, ErrAlreadyCancelled):
		httpx.Problem(w, http.StatusConflict, "Already Cancelled", err.Error())
	case errors.Is(err, ErrNotSectionProfessor):
		httpx.Problem(w, http.StatusForbidden, "Not Section Professor", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, authz.ErrProfileNotFound):
		httpx.Problem(w, http.StatusForbidden, "No Active Profiles", err.Error())
	case errors.As(err, &denied):
		httpx.Problem(w, http.StatusForbidden, "Permission Denied", string(denied.Reason))
	default:
		h.logger.Error("enrollment request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
