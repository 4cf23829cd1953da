package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/events"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type mockWaitlistManager struct {
	mu       sync.Mutex
	queue    []*models.WaitlistEntry
	dequeued []string
	notified []string
}

func (m *mockWaitlistManager) NextEligible(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.queue {
		if e.CourseID == courseID {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockWaitlistManager) Dequeue(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.queue {
		if e.ID == entryID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.dequeued = append(m.dequeued, entryID)
			return e, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
}

func (m *mockWaitlistManager) NotifyPromotion(ctx context.Context, entry *models.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, entry.ID)
	entry.Notified = true
	return nil
}

type mockAdmitter struct {
	mu    sync.Mutex
	err   error
	calls []AdmitRequest
}

func (m *mockAdmitter) Admit(ctx context.Context, req AdmitRequest) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Registration{
		ID:        "promoted-reg",
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Semester:  req.Semester,
		Status:    models.RegistrationStatusPending,
	}, nil
}

type mockPromotionRecorder struct {
	mu      sync.Mutex
	results []string
}

func (m *mockPromotionRecorder) RecordPromotion(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func newPromotionFixture(seats int) (*PromotionService, *mockCourses, *mockWaitlistManager, *mockAdmitter, *mockSink, *mockPromotionRecorder) {
	courses := &mockCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Title: "Algorithms", TotalSeats: 30, AvailableSeats: seats},
	}}
	waitlist := &mockWaitlistManager{queue: []*models.WaitlistEntry{
		{ID: "w1", StudentID: "s1", CourseID: "c1", EnqueuedAt: time.Now().UTC(), Position: 1},
		{ID: "w2", StudentID: "s2", CourseID: "c1", EnqueuedAt: time.Now().UTC(), Position: 2},
	}}
	adm := &mockAdmitter{}
	sink := &mockSink{}
	recorder := &mockPromotionRecorder{}
	svc := NewPromotionService(courses, waitlist, adm, sink, recorder, zap.NewNop())
	return svc, courses, waitlist, adm, sink, recorder
}

func TestPromotionServicePromotesHead(t *testing.T) {
	svc, courses, waitlist, adm, sink, recorder := newPromotionFixture(1)

	require.NoError(t, svc.TryPromote(context.Background(), "c1", "2025-FALL"))

	require.Len(t, adm.calls, 1)
	assert.Equal(t, "s1", adm.calls[0].StudentID)
	assert.Equal(t, "2025-FALL", adm.calls[0].Semester)
	assert.Equal(t, []string{"w1"}, waitlist.dequeued)
	assert.Equal(t, []string{"w1"}, waitlist.notified)
	assert.Equal(t, 0, courses.courses["c1"].AvailableSeats)
	assert.Equal(t, []string{"promoted"}, recorder.results)
	require.Len(t, sink.events, 1)
	assert.Equal(t, events.TypeWaitlistPromoted, sink.events[0].Type)
	assert.Equal(t, "w1", sink.events[0].WaitlistEntry.ID)
}

func TestPromotionServiceNoSeatsIsNoOp(t *testing.T) {
	svc, _, waitlist, adm, _, recorder := newPromotionFixture(0)

	require.NoError(t, svc.TryPromote(context.Background(), "c1", "2025-FALL"))

	assert.Empty(t, adm.calls)
	assert.Len(t, waitlist.queue, 2)
	assert.Empty(t, recorder.results)
}

func TestPromotionServiceEmptyQueueIsNoOp(t *testing.T) {
	svc, courses, waitlist, adm, _, _ := newPromotionFixture(3)
	waitlist.queue = nil

	require.NoError(t, svc.TryPromote(context.Background(), "c1", "2025-FALL"))

	assert.Empty(t, adm.calls)
	assert.Equal(t, 3, courses.courses["c1"].AvailableSeats)
}

func TestPromotionServiceAdmissionFailureLeavesEntryQueued(t *testing.T) {
	svc, courses, waitlist, adm, sink, recorder := newPromotionFixture(1)
	adm.err = appErrors.Clone(appErrors.ErrCreditLimitExceeded, "")

	require.NoError(t, svc.TryPromote(context.Background(), "c1", "2025-FALL"))

	// One attempt only; the head stays at the front and the seat stays free.
	require.Len(t, adm.calls, 1)
	assert.Len(t, waitlist.queue, 2)
	assert.Equal(t, "w1", waitlist.queue[0].ID)
	assert.Equal(t, 1, courses.courses["c1"].AvailableSeats)
	assert.Equal(t, []string{"failed"}, recorder.results)
	assert.Empty(t, sink.events)
}

func TestPromotionServiceUnknownCourse(t *testing.T) {
	svc, _, _, _, _, _ := newPromotionFixture(1)

	err := svc.TryPromote(context.Background(), "ghost", "2025-FALL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestPromotionServiceConcurrentTriggersConsumeOneSeatEach(t *testing.T) {
	svc, courses, waitlist, adm, _, _ := newPromotionFixture(1)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.TryPromote(context.Background(), "c1", "2025-FALL")
		}()
	}
	wg.Wait()

	// The first trigger consumes the only seat; the second finds none.
	require.Len(t, adm.calls, 1)
	assert.Len(t, waitlist.queue, 1)
	assert.Equal(t, 0, courses.courses["c1"].AvailableSeats)
}
