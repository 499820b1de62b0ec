package enrollment

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academe-sis/academe/internal/authz"
	"github.com/academe-sis/academe/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	enrollments map[int64]*Enrollment
	sections    map[int64]*Section
	nextID      int64
	stampCalls  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		enrollments: make(map[int64]*Enrollment),
		sections:    make(map[int64]*Section),
		nextID:      1,
	}
}

func (m *mockRepository) GetEnrollment(ctx context.Context, id int64) (*Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockRepository) GetSection(ctx context.Context, id int64) (*Section, error) {
	s, ok := m.sections[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) ListVisible(ctx context.Context, filter VisibleFilter) ([]Enrollment, error) {
	out := []Enrollment{}
	for _, e := range m.enrollments {
		section, ok := m.sections[e.SectionID]
		if !ok {
			continue
		}
		if matchesFilter(filter, *e, *section) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(ctx context.Context, studentProfileID, sectionID int64) (*Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentProfileID == studentProfileID && e.SectionID == sectionID {
			return nil, ErrDuplicate
		}
	}
	id := m.nextID
	m.nextID++
	e := &Enrollment{
		ID:               id,
		StudentProfileID: studentProfileID,
		SectionID:        sectionID,
		Status:           StatusPending,
		CreatedAt:        time.Now(),
	}
	m.enrollments[id] = e
	copied := *e
	return &copied, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.Status = status
	copied := *e
	return &copied, nil
}

func (m *mockRepository) StampGrade(ctx context.Context, id int64, grade float64, notes string, gradedAt time.Time, gradedByProfileID int64) (*Enrollment, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.stampCalls++
	// All four fields change together, as the single UPDATE does.
	e.Grade = &grade
	e.GradeNotes = &notes
	e.GradedAt = &gradedAt
	e.GradedByProfileID = &gradedByProfileID
	e.UpdatedAt = gradedAt
	copied := *e
	return &copied, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingGradeObserver struct {
	recorded int
}

func (o *countingGradeObserver) ObserveGradeRecorded() {
	o.recorded++
}

// ============================================================================
// FIXTURES
// ============================================================================

type fixture struct {
	repo    *mockRepository
	audit   *recordingAudit
	metrics *countingGradeObserver
	service *Service
	prof    authz.Actor
	profID  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := testRegistry(t)
	repo := newMockRepository()
	audit := &recordingAudit{}
	metrics := &countingGradeObserver{}
	service := NewService(repo, audit, nil, metrics, nil)

	repo.sections[10] = &Section{ID: 10, CourseID: 1, Code: "CS101-A", ProfessorProfileID: 2}
	repo.enrollments[50] = &Enrollment{ID: 50, StudentProfileID: 1, SectionID: 10, Status: StatusPaid}

	prof := authz.Actor{UserID: 100, Profiles: []authz.Profile{
		{ID: 2, UserID: 100, Role: roleOf(t, reg, "Professor"), Active: true},
	}}
	return &fixture{repo: repo, audit: audit, metrics: metrics, service: service, prof: prof, profID: 2}
}

// ============================================================================
// GRADE WORKFLOW
// ============================================================================

func TestSetGradeSuccess(t *testing.T) {
	f := newFixture(t)

	e, err := f.service.SetGrade(context.Background(), f.prof, 50, 15, "good")
	require.NoError(t, err)
	require.NotNil(t, e.Grade)
	assert.Equal(t, 15.0, *e.Grade)
	assert.Equal(t, "good", *e.GradeNotes)
	assert.Equal(t, f.profID, *e.GradedByProfileID)
	assert.True(t, e.Graded())

	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, "enrollment.grade", f.audit.logs[0].Action)
	assert.Equal(t, "50", f.audit.logs[0].EntityID)
	assert.Equal(t, 1, f.metrics.recorded)
}

func TestSetGradeRange(t *testing.T) {
	f := newFixture(t)

	for _, v := range []float64{-0.01, -5, 20.01, 100, math.Inf(-1), math.Inf(1)} {
		_, err := f.service.SetGrade(context.Background(), f.prof, 50, v, "")
		var invalid *InvalidGradeError
		require.ErrorAs(t, err, &invalid, "value %v", v)
		assert.Equal(t, v, invalid.Value)
	}

	// NaN fails both range comparisons, so it must be rejected too.
	_, err := f.service.SetGrade(context.Background(), f.prof, 50, math.NaN(), "")
	var invalid *InvalidGradeError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, math.IsNaN(invalid.Value))

	// No mutation happened for any rejected value.
	assert.Zero(t, f.repo.stampCalls)
	assert.Empty(t, f.audit.logs)
	assert.Zero(t, f.metrics.recorded)

	for _, v := range []float64{0, 0.5, 10, 20} {
		_, err := f.service.SetGrade(context.Background(), f.prof, 50, v, "ok")
		require.NoError(t, err, "value %v", v)
	}
	assert.Equal(t, 4, f.metrics.recorded)
}

func TestSetGradeCancelledLock(t *testing.T) {
	f := newFixture(t)
	f.repo.enrollments[50].Status = StatusCancelled

	_, err := f.service.SetGrade(context.Background(), f.prof, 50, 10, "")
	assert.ErrorIs(t, err, ErrEnrollmentCancelled)

	// Even a superuser cannot grade a cancelled enrollment.
	su := authz.Actor{UserID: 1, Superuser: true}
	_, err = f.service.SetGrade(context.Background(), su, 50, 10, "")
	assert.ErrorIs(t, err, ErrEnrollmentCancelled)
	assert.Zero(t, f.repo.stampCalls)
}

func TestSetGradeWrongProfessor(t *testing.T) {
	f := newFixture(t)
	reg := testRegistry(t)
	other := authz.Actor{UserID: 200, Profiles: []authz.Profile{
		{ID: 3, UserID: 200, Role: roleOf(t, reg, "Professor"), Active: true},
	}}

	_, err := f.service.SetGrade(context.Background(), other, 50, 10, "")
	assert.ErrorIs(t, err, ErrNotSectionProfessor)
}

func TestSetGradeNoProfiles(t *testing.T) {
	f := newFixture(t)
	bare := authz.Actor{UserID: 300}

	_, err := f.service.SetGrade(context.Background(), bare, 50, 10, "")
	assert.ErrorIs(t, err, authz.ErrProfileNotFound)
}

func TestSetGradeAtomicStamp(t *testing.T) {
	f := newFixture(t)

	before, err := f.repo.GetEnrollment(context.Background(), 50)
	require.NoError(t, err)
	assert.Nil(t, before.Grade)
	assert.Nil(t, before.GradeNotes)
	assert.Nil(t, before.GradedAt)
	assert.Nil(t, before.GradedByProfileID)

	e, err := f.service.SetGrade(context.Background(), f.prof, 50, 12, "fine")
	require.NoError(t, err)
	assert.NotNil(t, e.Grade)
	assert.NotNil(t, e.GradeNotes)
	assert.NotNil(t, e.GradedAt)
	assert.NotNil(t, e.GradedByProfileID)
}

func TestSetGradeOverwrite(t *testing.T) {
	f := newFixture(t)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	f.service.now = func() time.Time { return first }
	_, err := f.service.SetGrade(context.Background(), f.prof, 50, 15, "good")
	require.NoError(t, err)

	f.service.now = func() time.Time { return second }
	e, err := f.service.SetGrade(context.Background(), f.prof, 50, 18, "revised")
	require.NoError(t, err)

	assert.Equal(t, 18.0, *e.Grade)
	assert.Equal(t, "revised", *e.GradeNotes)
	assert.Equal(t, f.profID, *e.GradedByProfileID)
	assert.Equal(t, second, *e.GradedAt)

	// The overwrite is audited with the previous grade, but no history row
	// is kept on the enrollment itself.
	require.Len(t, f.audit.logs, 2)
	assert.Equal(t, 15.0, f.audit.logs[1].Meta["previous_grade"])
}

// ============================================================================
// PROJECTION AND VIEW
// ============================================================================

func TestListVisibleMatchesCanBeViewedBy(t *testing.T) {
	f := newFixture(t)
	reg := testRegistry(t)

	f.repo.sections[11] = &Section{ID: 11, CourseID: 2, Code: "MA201-B", ProfessorProfileID: 3}
	f.repo.enrollments[51] = &Enrollment{ID: 51, StudentProfileID: 4, SectionID: 11, Status: StatusPending}
	f.repo.enrollments[52] = &Enrollment{ID: 52, StudentProfileID: 1, SectionID: 11, Status: StatusPaid}

	actors := []authz.Actor{
		f.prof,
		{UserID: 500, Profiles: []authz.Profile{
			{ID: 1, UserID: 500, Role: roleOf(t, reg, "Student"), Active: true},
		}},
		{UserID: 600, Superuser: true},
		{UserID: 700},
	}

	for _, actor := range actors {
		visible, err := f.service.ListVisible(context.Background(), actor)
		require.NoError(t, err)
		visibleIDs := map[int64]bool{}
		for _, e := range visible {
			visibleIDs[e.ID] = true
		}
		for id, e := range f.repo.enrollments {
			section := f.repo.sections[e.SectionID]
			assert.Equal(t, CanBeViewedBy(actor, *e, *section), visibleIDs[id],
				"actor %d enrollment %d", actor.UserID, id)
		}
	}
}

func TestGetDeniedForStranger(t *testing.T) {
	f := newFixture(t)
	reg := testRegistry(t)
	stranger := authz.Actor{UserID: 900, Profiles: []authz.Profile{
		{ID: 40, UserID: 900, Role: roleOf(t, reg, "Student"), Active: true},
	}}

	_, err := f.service.Get(context.Background(), stranger, 50)
	var denied *authz.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, authz.DenyObjectMismatch, denied.Reason)
}

// ============================================================================
// MANAGEMENT
// ============================================================================

func TestCreateAndCancel(t *testing.T) {
	f := newFixture(t)
	admin := authz.Actor{UserID: 1, Superuser: true}

	e, err := f.service.Create(context.Background(), admin, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, e.Status)

	_, err = f.service.Create(context.Background(), admin, 7, 10)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = f.service.Create(context.Background(), admin, 7, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := f.service.Cancel(context.Background(), admin, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = f.service.Cancel(context.Background(), admin, e.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}
