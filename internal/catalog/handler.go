package catalog

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

// Handler manages course and section endpoints.
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

// MountCourseRoutes registers course routes. Reads need a signed-in actor,
// writes need the course management permission.
func (h *Handler) MountCourseRoutes(r chi.Router) {
	r.Use(h.authz.RequireActor)
	r.Get("/", h.listCourses)
	r.Get("/{courseID}", h.getCourse)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageCourses))
		r.Post("/", h.createCourse)
		r.Put("/{courseID}", h.updateCourse)
	})
}

// MountSectionRoutes registers section routes.
func (h *Handler) MountSectionRoutes(r chi.Router) {
	r.Use(h.authz.RequireActor)
	r.Get("/", h.listSections)
	r.Get("/{sectionID}", h.getSection)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(authz.PermManageSections))
		r.Post("/", h.createSection)
		r.Post("/{sectionID}/professor", h.assignProfessor)
	})
}

type courseResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Credits     int    `json:"credits"`
	Active      bool   `json:"active"`
}

func toCourseResponse(c Course) courseResponse {
	return courseResponse{ID: c.ID, Code: c.Code, Name: c.Name, Description: c.Description, Credits: c.Credits, Active: c.Active}
}

type sectionResponse struct {
	ID                 int64  `json:"id"`
	CourseID           int64  `json:"course_id"`
	Code               string `json:"code"`
	Term               string `json:"term"`
	Capacity           int    `json:"capacity"`
	ProfessorProfileID int64  `json:"professor_profile_id"`
	Active             bool   `json:"active"`
}

func toSectionResponse(s Section) sectionResponse {
	return sectionResponse{
		ID:                 s.ID,
		CourseID:           s.CourseID,
		Code:               s.Code,
		Term:               s.Term,
		Capacity:           s.Capacity,
		ProfessorProfileID: s.ProfessorProfileID,
		Active:             s.Active,
	}
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filters.Active = &active
	}
	list, err := h.service.ListCourses(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]courseResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCourseResponse(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"courses": out})
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCourseResponse(course))
}

type courseRequest struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Credits     int    `json:"credits" validate:"required,gt=0"`
	Active      *bool  `json:"active"`
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if !h.decode(w, r, &req) {
		return
	}
	course, err := h.service.CreateCourse(r.Context(), Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCourseResponse(course))
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "courseID")
	if !ok {
		return
	}
	var req courseRequest
	if !h.decode(w, r, &req) {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	err := h.service.UpdateCourse(r.Context(), id, Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
		Active:      active,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) listSections(w http.ResponseWriter, r *http.Request) {
	var filters ListFilters
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "course_id must be a positive integer")
			return
		}
		filters.CourseID = &id
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filters.Active = &active
	}
	list, err := h.service.ListSections(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]sectionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSectionResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sections": out})
}

func (h *Handler) getSection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "sectionID")
	if !ok {
		return
	}
	section, err := h.service.GetSection(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSectionResponse(section))
}

type sectionRequest struct {
	CourseID           int64  `json:"course_id" validate:"required,gt=0"`
	Code               string `json:"code" validate:"required,max=30"`
	Term               string `json:"term" validate:"required,max=30"`
	Capacity           int    `json:"capacity" validate:"required,gt=0"`
	ProfessorProfileID int64  `json:"professor_profile_id" validate:"required,gt=0"`
}

func (h *Handler) createSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	section, err := h.service.CreateSection(r.Context(), Section{
		CourseID:           req.CourseID,
		Code:               req.Code,
		Term:               req.Term,
		Capacity:           req.Capacity,
		ProfessorProfileID: req.ProfessorProfileID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSectionResponse(section))
}

type assignProfessorRequest struct {
	ProfessorProfileID int64 `json:"professor_profile_id" validate:"required,gt=0"`
}

func (h *Handler) assignProfessor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "sectionID")
	if !ok {
		return
	}
	var req assignProfessorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.AssignProfessor(r.Context(), id, req.ProfessorProfileID); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate Code", err.Error())
	case errors.Is(err, ErrNotProfessor):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Professor", err.Error())
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
