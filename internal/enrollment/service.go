package enrollment

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/shared"
	"github.com/academe-sis/academe/jobs"
)

// VisibleFilter is the explicit identifier set handed to storage: the
// authorization core decides, the repository merely fetches. An empty filter
// matches nothing.
type VisibleFilter struct {
	StudentProfileIDs   []int64
	ProfessorProfileIDs []int64
	All                 bool
}

// Empty reports whether the filter can match no enrollment at all.
func (f VisibleFilter) Empty() bool {
	return !f.All && len(f.StudentProfileIDs) == 0 && len(f.ProfessorProfileIDs) == 0
}

// BuildVisibleFilter derives the filter from the actor's active profiles. It
// is the read-side mirror of CanBeViewedBy: an enrollment matches the filter
// exactly when CanBeViewedBy allows it.
func BuildVisibleFilter(actor authz.Actor) VisibleFilter {
	var f VisibleFilter
	if actor.Superuser {
		f.All = true
		return f
	}
	for _, p := range actor.ActiveProfiles() {
		if p.HasPermission(authz.PermViewOwnEnrollment) {
			f.StudentProfileIDs = append(f.StudentProfileIDs, p.ID)
		}
		if p.HasPermission(authz.PermViewSectionEnrollments) {
			f.ProfessorProfileIDs = append(f.ProfessorProfileIDs, p.ID)
		}
		if p.HasPermission(authz.PermViewAllEnrollments) {
			f.All = true
		}
	}
	return f
}

// Repository defines the persistence surface the service needs.
type Repository interface {
	GetEnrollment(ctx context.Context, id int64) (*Enrollment, error)
	GetSection(ctx context.Context, id int64) (*Section, error)
	ListVisible(ctx context.Context, filter VisibleFilter) ([]Enrollment, error)
	Create(ctx context.Context, studentProfileID, sectionID int64) (*Enrollment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Enrollment, error)
	// StampGrade writes all four grade fields in a single statement so a
	// half-stamped grade is never observable.
	StampGrade(ctx context.Context, id int64, grade float64, notes string, gradedAt time.Time, gradedByProfileID int64) (*Enrollment, error)
}

// AuditRecorder is satisfied by shared.AuditLogger.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Enqueuer is satisfied by asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// GradeObserver counts successful grade stamps, typically backed by a
// Prometheus counter.
type GradeObserver interface {
	ObserveGradeRecorded()
}

// Service implements the enrollment operations on top of the guard.
type Service struct {
	repo     Repository
	audit    AuditRecorder
	enqueuer Enqueuer
	metrics  GradeObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service. audit, enqueuer and metrics may be nil;
// grading then skips the audit trail, the notification task and the counter.
func NewService(repo Repository, audit AuditRecorder, enqueuer Enqueuer, metrics GradeObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, enqueuer: enqueuer, metrics: metrics, logger: logger, now: time.Now}
}

// Get returns the enrollment if the actor may view it.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*Enrollment, error) {
	e, section, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if allowed, reason := DecideView(actor, *e, *section); !allowed {
		return nil, authz.Denied(authz.PermViewOwnEnrollment, reason)
	}
	return e, nil
}

// ListVisible returns every enrollment the actor may view.
func (s *Service) ListVisible(ctx context.Context, actor authz.Actor) ([]Enrollment, error) {
	filter := BuildVisibleFilter(actor)
	if filter.Empty() {
		return []Enrollment{}, nil
	}
	return s.repo.ListVisible(ctx, filter)
}

// CanGrade answers the grading predicate for UI purposes. profileHint of 0
// scans every profile the actor holds.
func (s *Service) CanGrade(ctx context.Context, actor authz.Actor, id int64, profileHint int64) (bool, error) {
	e, section, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return CanBeGradedBy(actor, *e, *section, profileHint), nil
}

// Create enrolls a student profile into a section (management operation; the
// caller is gated on manage_enrollments).
func (s *Service) Create(ctx context.Context, actor authz.Actor, studentProfileID, sectionID int64) (*Enrollment, error) {
	if _, err := s.repo.GetSection(ctx, sectionID); err != nil {
		return nil, err
	}
	e, err := s.repo.Create(ctx, studentProfileID, sectionID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "enrollment.create", e.ID, map[string]any{
		"student_profile_id": studentProfileID,
		"section_id":         sectionID,
	})
	return e, nil
}

// Cancel marks an enrollment CANCELLED. Cancelled enrollments keep any grade
// already stamped but can never be regraded.
func (s *Service) Cancel(ctx context.Context, actor authz.Actor, id int64) (*Enrollment, error) {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	updated, err := s.repo.UpdateStatus(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, "enrollment.cancel", id, nil)
	return updated, nil
}

// SetGrade runs the grade workflow: range check, cancelled check, grading
// profile resolution, then the atomic four-field stamp. Regrading is allowed
// and overwrites the previous stamp, last write wins.
func (s *Service) SetGrade(ctx context.Context, actor authz.Actor, id int64, value float64, notes string) (*Enrollment, error) {
	// Accept-direction comparison so NaN fails the range check too.
	if !(value >= GradeMin && value <= GradeMax) {
		return nil, &InvalidGradeError{Value: value}
	}
	e, section, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusCancelled {
		return nil, ErrEnrollmentCancelled
	}
	if !actor.Superuser && len(actor.ActiveProfiles()) == 0 {
		return nil, authz.ErrProfileNotFound
	}
	grader, ok := ResolveGradingProfile(actor, *e, *section)
	if !ok {
		return nil, ErrNotSectionProfessor
	}

	var previous *float64
	if e.Graded() {
		previous = e.Grade
	}

	updated, err := s.repo.StampGrade(ctx, id, value, notes, s.now().UTC(), grader.ID)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"grade":              value,
		"graded_by_profile":  grader.ID,
		"section_id":         section.ID,
		"student_profile_id": e.StudentProfileID,
	}
	if previous != nil {
		meta["previous_grade"] = *previous
	}
	s.record(ctx, actor, "enrollment.grade", id, meta)
	s.enqueueGradeRecorded(ctx, updated, section, grader)
	if s.metrics != nil {
		s.metrics.ObserveGradeRecorded()
	}

	return updated, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Enrollment, *Section, error) {
	e, err := s.repo.GetEnrollment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	section, err := s.repo.GetSection(ctx, e.SectionID)
	if err != nil {
		return nil, nil, err
	}
	return e, section, nil
}

func (s *Service) record(ctx context.Context, actor authz.Actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "enrollment",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) enqueueGradeRecorded(ctx context.Context, e *Enrollment, section *Section, grader authz.Profile) {
	if s.enqueuer == nil || e.Grade == nil {
		return
	}
	task, err := jobs.NewGradeRecordedTask(jobs.GradeRecordedPayload{
		EnrollmentID:      e.ID,
		StudentProfileID:  e.StudentProfileID,
		SectionCode:       section.Code,
		Grade:             *e.Grade,
		GradedByProfileID: grader.ID,
	})
	if err != nil {
		s.logger.Warn("build grade task", slog.Any("error", err))
		return
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault)); err != nil {
		s.logger.Warn("enqueue grade task", slog.Int64("enrollment_id", e.ID), slog.Any("error", err))
	}
}
