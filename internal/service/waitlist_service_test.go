package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type mockWaitlistRepo struct {
	entries    map[string]models.WaitlistEntry
	recomputes []string
	seq        int
}

func (m *mockWaitlistRepo) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	if e, ok := m.entries[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWaitlistRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, e := range m.entries {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWaitlistRepo) CountByCourse(ctx context.Context, courseID string) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (m *mockWaitlistRepo) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		m.seq++
		entry.ID = time.Now().Format("20060102150405.000000000") + "-" + entry.StudentID
	}
	if m.entries == nil {
		m.entries = map[string]models.WaitlistEntry{}
	}
	m.entries[entry.ID] = *entry
	return nil
}

func (m *mockWaitlistRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.entries, id)
	return nil
}

func (m *mockWaitlistRepo) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range m.entries {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out, nil
}

func (m *mockWaitlistRepo) ListByStudent(ctx context.Context, studentID string) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	for _, e := range m.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockWaitlistRepo) FindHeadByCourse(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	queue, _ := m.ListByCourse(ctx, courseID)
	if len(queue) == 0 {
		return nil, sql.ErrNoRows
	}
	head := queue[0]
	return &head, nil
}

func (m *mockWaitlistRepo) RecomputePositions(ctx context.Context, courseID string) error {
	m.recomputes = append(m.recomputes, courseID)
	queue, _ := m.ListByCourse(ctx, courseID)
	for i, e := range queue {
		e.Position = i + 1
		m.entries[e.ID] = e
	}
	return nil
}

func (m *mockWaitlistRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	e, ok := m.entries[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Notified = true
	e.NotificationSentAt = &at
	m.entries[id] = e
	return nil
}

type mockDepthRecorder struct {
	depths map[string]int
}

func (m *mockDepthRecorder) SetWaitlistDepth(courseID string, depth int) {
	if m.depths == nil {
		m.depths = map[string]int{}
	}
	m.depths[courseID] = depth
}

func newWaitlistFixture() (*WaitlistService, *mockWaitlistRepo, *mockDepthRecorder) {
	repo := &mockWaitlistRepo{entries: map[string]models.WaitlistEntry{}}
	students := &mockStudents{students: map[string]*models.Student{
		"s1": {ID: "s1", GPA: 3.2},
		"s2": {ID: "s2", GPA: 2.8},
		"s3": {ID: "s3", GPA: 3.9},
	}}
	courses := &mockCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Title: "Algorithms", WaitlistCapacity: 2},
		"c2": {ID: "c2", Title: "Databases"},
	}}
	recorder := &mockDepthRecorder{}
	svc := NewWaitlistService(repo, students, courses, recorder, 20, validator.New(), zap.NewNop())
	return svc, repo, recorder
}

func TestWaitlistServiceEnqueue(t *testing.T) {
	svc, repo, recorder := newWaitlistFixture()

	entry, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Position)
	assert.False(t, entry.EnqueuedAt.IsZero())
	assert.Contains(t, repo.recomputes, "c1")
	assert.Equal(t, 1, recorder.depths["c1"])
}

func TestWaitlistServiceEnqueueDuplicate(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	_, err = svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAlreadyWaitlisted))
}

func TestWaitlistServiceEnqueueFull(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	_, err = svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s2", CourseID: "c1"})
	require.NoError(t, err)

	// Course c1 caps its waitlist at 2 entries.
	_, err = svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s3", CourseID: "c1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrWaitlistFull))
}

func TestWaitlistServiceEnqueueUnknownCourse(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestWaitlistServiceDequeueClosesGap(t *testing.T) {
	svc, repo, _ := newWaitlistFixture()
	base := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	for i, studentID := range []string{"s1", "s2", "s3"} {
		enqueuedAt := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return enqueuedAt }
		_, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: studentID, CourseID: "c2"})
		require.NoError(t, err)
	}

	head, err := repo.FindHeadByCourse(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, "s1", head.StudentID)

	removed, err := svc.Dequeue(context.Background(), head.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", removed.StudentID)

	queue, err := svc.ListByCourse(context.Background(), "c2")
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "s2", queue[0].StudentID)
	assert.Equal(t, 1, queue[0].Position)
	assert.Equal(t, "s3", queue[1].StudentID)
	assert.Equal(t, 2, queue[1].Position)
}

func TestWaitlistServiceDequeueNotFound(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	_, err := svc.Dequeue(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestWaitlistServiceNextEligibleEmptyQueue(t *testing.T) {
	svc, _, _ := newWaitlistFixture()

	entry, err := svc.NextEligible(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestWaitlistServiceNotifyPromotion(t *testing.T) {
	svc, repo, _ := newWaitlistFixture()

	entry, err := svc.Enqueue(context.Background(), EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)

	require.NoError(t, svc.NotifyPromotion(context.Background(), entry))
	assert.True(t, entry.Notified)
	require.NotNil(t, entry.NotificationSentAt)

	stored := repo.entries[entry.ID]
	assert.True(t, stored.Notified)
}
