package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/burakmert236/scrimsignups/common/logger"
	"github.com/burakmert236/scrimsignups/common/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(prefixMatcher()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(t, err)

	return gdb, mock
}

// prefixMatcher only checks the statement head; gorm's exact column lists
// are not what these tests are about.
func prefixMatcher() sqlmock.QueryMatcher {
	return sqlmock.QueryMatcherFunc(func(expected, actual string) error {
		normalize := func(s string) string {
			return strings.Join(strings.Fields(s), " ")
		}
		if strings.HasPrefix(normalize(actual), normalize(expected)) {
			return nil
		}
		return sqlmock.ErrCancelled
	})
}

var priorityColumns = []string{
	"priority_id", "external_id", "display_name", "start_date", "end_date", "amount", "reason", "created_at",
}

func TestPriorityRepoPg_GetOverlapping(t *testing.T) {
	at := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		mockFunc func(sqlmock.Sqlmock)
		wantErr  bool
		wantIds  []string
	}{
		{
			name: "success",
			mockFunc: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(priorityColumns).
					AddRow("p-1", "100", "alice", at.Add(-time.Hour), at.Add(time.Hour), 1, "host", at.Add(-48*time.Hour)).
					AddRow("p-2", "100", "alice", at.Add(-time.Hour), at.Add(time.Hour), -1, "no show", at.Add(-24*time.Hour))
				m.ExpectQuery(`SELECT * FROM "priority_entries" WHERE start_date <= $1 AND end_date >= $2 ORDER BY created_at ASC, priority_id ASC`).
					WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnRows(rows)
			},
			wantIds: []string{"p-1", "p-2"},
		},
		{
			name: "sql error",
			mockFunc: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT * FROM "priority_entries"`).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPriorityRepoPg(logger.Nop(), db)
			tt.mockFunc(mock)

			entries, err := repo.GetOverlapping(context.Background(), at)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				ids := make([]string, 0, len(entries))
				for _, e := range entries {
					ids = append(ids, e.PriorityId)
				}
				require.Equal(t, tt.wantIds, ids)
				require.Equal(t, -1, entries[1].Amount)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPriorityRepoPg_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriorityRepoPg(logger.Nop(), db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "priority_entries"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.PriorityEntry{
		PriorityId: "p-9",
		ExternalId: "100",
		StartDate:  time.Now(),
		EndDate:    time.Now().Add(time.Hour),
		Amount:     1,
		Reason:     "host",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorityRepoPg_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriorityRepoPg(logger.Nop(), db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "priority_entries" WHERE priority_id IN ($1,$2)`).
		WithArgs("p-1", "p-2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.Delete(context.Background(), []string{"p-1", "p-2"})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = repo.Delete(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriorityRepoPg_DeleteEndedBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPriorityRepoPg(logger.Nop(), db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "priority_entries" WHERE end_date < $1`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.DeleteEndedBefore(context.Background(), time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBanRepoPg_HasActiveBan(t *testing.T) {
	at := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	banColumns := []string{"ban_id", "external_id", "start_date", "end_date", "reason", "created_at"}

	t.Run("banned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBanRepoPg(logger.Nop(), db)

		rows := sqlmock.NewRows(banColumns).
			AddRow("b-1", "2", at.Add(-time.Hour), at.Add(time.Hour), "cheating", at).
			AddRow("b-2", "3", at.Add(-time.Hour), at.Add(time.Hour), "abuse", at)
		mock.ExpectQuery(`SELECT * FROM "ban_entries" WHERE external_id IN ($1,$2,$3) AND start_date <= $4 AND end_date >= $5 ORDER BY created_at ASC, ban_id ASC`).
			WithArgs("1", "2", "3", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(rows)

		status, err := repo.HasActiveBan(context.Background(), at, []string{"1", "2", "3"})
		require.NoError(t, err)
		require.True(t, status.Banned)
		require.Equal(t, "cheating; abuse", status.Reason)
		require.Len(t, status.Entries, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBanRepoPg(logger.Nop(), db)

		mock.ExpectQuery(`SELECT * FROM "ban_entries"`).
			WillReturnRows(sqlmock.NewRows(banColumns))

		status, err := repo.HasActiveBan(context.Background(), at, []string{"1"})
		require.NoError(t, err)
		require.False(t, status.Banned)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no ids", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBanRepoPg(logger.Nop(), db)

		status, err := repo.HasActiveBan(context.Background(), at, nil)
		require.NoError(t, err)
		require.False(t, status.Banned)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
