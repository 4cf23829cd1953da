package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCourseRepositoryClaimSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(`UPDATE courses SET available_seats = available_seats - 1, updated_at = \$2\s+WHERE id = \$1 AND available_seats > 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimSeat(context.Background(), "course-1")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryClaimSeatExhausted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(`UPDATE courses SET available_seats = available_seats - 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimSeat(context.Background(), "course-1")
	require.NoError(t, err)
	require.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}
