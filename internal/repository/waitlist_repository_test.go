package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestWaitlistRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM waitlist_entries WHERE student_id = $1 AND course_id = $2 LIMIT 1`)).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM waitlist_entries WHERE student_id = $1 AND course_id = $2 LIMIT 1`)).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryFindHeadByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "enqueued_at", "position", "notified", "notification_sent_at"}).
		AddRow("wl-1", "stu-1", "course-1", time.Now(), 1, false, nil)
	mock.ExpectQuery(`SELECT .+ FROM waitlist_entries WHERE course_id = \$1 ORDER BY enqueued_at ASC LIMIT 1`).
		WithArgs("course-1").
		WillReturnRows(rows)

	entry, err := repo.FindHeadByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, "wl-1", entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitlistRepositoryRecomputePositions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWaitlistRepository(db)

	mock.ExpectExec(`UPDATE waitlist_entries SET position = ranked\.rn`).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.RecomputePositions(context.Background(), "course-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
