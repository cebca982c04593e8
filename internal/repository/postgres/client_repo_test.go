package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/policy-keeper/internal/errs"
	"github.com/and161185/policy-keeper/internal/model"
	"github.com/and161185/policy-keeper/internal/query"
	"github.com/and161185/policy-keeper/internal/validate"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var clientCols = []string{"id", "identification_number", "full_name", "email", "phone", "created_at", "updated_at", "version"}

func TestClientRepo_List_WithSearch(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM clients WHERE strpos\(identification_number, \$1\) > 0 .* ORDER BY lower\(full_name\) COLLATE "und-x-icu" ASC, id ASC`).
		WithArgs("ana").
		WillReturnRows(pgxmock.NewRows(clientCols).
			AddRow(int64(1), "1234567890", "Ana Perez", "ana@x.com", "555", ts, (*time.Time)(nil), int64(1)).
			AddRow(int64(2), "1234567891", "Mariana Ruiz", "m@x.com", "556", ts, &ts, int64(3)))

	got, err := r.List(context.Background(), query.Clients{Search: "  ANA "})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Ana Perez", got[0].FullName)
	require.Nil(t, got[0].UpdatedAt)
	require.NotNil(t, got[1].UpdatedAt)
	require.Equal(t, int64(3), got[1].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClientRepo_List_EmptyResultIsNotNil(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`SELECT .* FROM clients ORDER BY lower\(full_name\) COLLATE "und-x-icu" ASC, id ASC`).
		WillReturnRows(pgxmock.NewRows(clientCols))

	got, err := r.List(context.Background(), query.Clients{})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestClientRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`SELECT .* FROM clients WHERE id=\$1`).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByID(context.Background(), 9)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClientRepo_Taken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("1234567890", "a@b.com", int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{"a", "b"}).AddRow(true, false))

	idTaken, emailTaken, err := r.Taken(context.Background(), "1234567890", "a@b.com", 0)
	require.NoError(t, err)
	require.True(t, idTaken)
	require.False(t, emailTaken)
}

func TestClientRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO clients (identification_number, full_name, email, phone)`)).
		WithArgs("1234567890", "Ana Perez", "ana@x.com", "555").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "version"}).AddRow(int64(7), ts, int64(1)))

	c := &model.Client{IdentificationNumber: "1234567890", FullName: "Ana Perez", Email: "ana@x.com", Phone: "555"}
	require.NoError(t, r.Create(context.Background(), c))
	require.Equal(t, int64(7), c.ID)
	require.Equal(t, int64(1), c.Version)
	require.Equal(t, ts, c.CreatedAt)
}

func TestClientRepo_Create_UniqueEmailViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectQuery(`INSERT INTO clients`).
		WithArgs("1234567890", "Ana Perez", "ana@x.com", "555").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraintClientEmail})

	err := r.Create(context.Background(), &model.Client{
		IdentificationNumber: "1234567890", FullName: "Ana Perez", Email: "ana@x.com", Phone: "555",
	})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	fields, ok := errs.FieldsOf(err)
	require.True(t, ok)
	require.Equal(t, validate.MsgDuplicateEmail, fields["email"])
}

func TestClientRepo_Update_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`UPDATE clients\s+SET .* WHERE id=\$1 AND version=\$7`).
		WithArgs(int64(3), "1234567890", "Ana Perez", "ana@x.com", "555", pgxmock.AnyArg(), int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	c := &model.Client{ID: 3, IdentificationNumber: "1234567890", FullName: "Ana Perez", Email: "ana@x.com", Phone: "555", Version: 2}
	out, err := r.Update(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, model.WriteOK, out)
	require.Equal(t, int64(3), c.Version)
	require.NotNil(t, c.UpdatedAt)
}

func TestClientRepo_Update_Conflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`UPDATE clients`).
		WithArgs(int64(3), "1234567890", "Ana Perez", "ana@x.com", "555", pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM clients WHERE id=\$1\)`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	c := &model.Client{ID: 3, IdentificationNumber: "1234567890", FullName: "Ana Perez", Email: "ana@x.com", Phone: "555", Version: 1}
	out, err := r.Update(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, model.WriteConflict, out)
	require.Equal(t, int64(1), c.Version)
}

func TestClientRepo_Update_Vanished(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`UPDATE clients`).
		WithArgs(int64(3), "1234567890", "Ana Perez", "ana@x.com", "555", pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	out, err := r.Update(context.Background(), &model.Client{ID: 3, IdentificationNumber: "1234567890", FullName: "Ana Perez", Email: "ana@x.com", Phone: "555", Version: 1})
	require.NoError(t, err)
	require.Equal(t, model.WriteNotFound, out)
}

func TestClientRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewClientRepo(db)

	mock.ExpectExec(`DELETE FROM clients WHERE id=\$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM clients WHERE id=\$1`).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM clients WHERE id=\$1`).
		WithArgs(int64(3)).
		WillReturnError(errors.New("boom"))

	ctx := context.Background()
	require.NoError(t, r.Delete(ctx, 1))
	require.ErrorIs(t, r.Delete(ctx, 2), errs.ErrNotFound)
	require.EqualError(t, r.Delete(ctx, 3), "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}
