package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type fakeWaitlistSrv struct {
	entry       *models.WaitlistEntry
	entries     []models.WaitlistEntry
	err         error
	lastEnqueue service.EnqueueRequest
	lastDequeue string
}

func (f *fakeWaitlistSrv) Enqueue(_ context.Context, req service.EnqueueRequest) (*models.WaitlistEntry, error) {
	f.lastEnqueue = req
	return f.entry, f.err
}

func (f *fakeWaitlistSrv) Dequeue(_ context.Context, entryID string) (*models.WaitlistEntry, error) {
	f.lastDequeue = entryID
	return f.entry, f.err
}

func (f *fakeWaitlistSrv) NextEligible(context.Context, string) (*models.WaitlistEntry, error) {
	return f.entry, f.err
}

func (f *fakeWaitlistSrv) ListByCourse(context.Context, string) ([]models.WaitlistEntry, error) {
	return f.entries, f.err
}

func (f *fakeWaitlistSrv) ListByStudent(context.Context, string) ([]models.WaitlistEntry, error) {
	return f.entries, f.err
}

func TestWaitlistHandlerAdd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWaitlistSrv{entry: &models.WaitlistEntry{ID: "w1", Position: 1}}
	h := NewWaitlistHandler(srv)

	body, _ := json.Marshal(service.EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/waitlist", bytes.NewReader(body))

	h.Add(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s1", srv.lastEnqueue.StudentID)
	assert.Equal(t, "c1", srv.lastEnqueue.CourseID)
}

func TestWaitlistHandlerAddFull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWaitlistHandler(&fakeWaitlistSrv{err: appErrors.Clone(appErrors.ErrWaitlistFull, "")})

	body, _ := json.Marshal(service.EnqueueRequest{StudentID: "s1", CourseID: "c1"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/waitlist", bytes.NewReader(body))

	h.Add(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrWaitlistFull.Code, envelope.Error.Code)
}

func TestWaitlistHandlerByCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWaitlistHandler(&fakeWaitlistSrv{entries: []models.WaitlistEntry{
		{ID: "w1", Position: 1},
		{ID: "w2", Position: 2},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/waitlist/course/c1", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.ByCourse(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var entries []models.WaitlistEntry
	require.NoError(t, json.Unmarshal(envelope.Data, &entries))
	assert.Len(t, entries, 2)
}

func TestWaitlistHandlerNextEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWaitlistHandler(&fakeWaitlistSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/waitlist/next/c1", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.Next(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWaitlistHandlerRemove(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeWaitlistSrv{entry: &models.WaitlistEntry{ID: "w1"}}
	h := NewWaitlistHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/waitlist/w1", nil)
	c.Params = gin.Params{{Key: "entryId", Value: "w1"}}

	h.Remove(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "w1", srv.lastDequeue)
}
