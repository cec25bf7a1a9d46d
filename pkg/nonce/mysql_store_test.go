package nonce

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/ahwlsqja/nonce-service/pkg/db"
)

func newTestMySQLStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(pkgdb.NewTxRunner(db), nil), mock
}

func TestMySQLStore_EnsureSchema(t *testing.T) {
	store, mock := newTestMySQLStore(t)

	mock.ExpectExec(regexp.QuoteMeta(createNoncesTable)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Insert(t *testing.T) {
	store, mock := newTestMySQLStore(t)
	id := store.NewID()

	mock.ExpectExec(regexp.QuoteMeta(insertNonce)).
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Insert(context.Background(), Record{ID: id, Expiration: t0}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// millisecondTime matches a time argument with no sub-millisecond component,
// so DATETIME(3) stores it without rounding
type millisecondTime struct{ want time.Time }

func (m millisecondTime) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	return ok && got.Equal(m.want) && got.Equal(got.Truncate(time.Millisecond))
}

func TestMySQLStore_ServiceInsertsMillisecondExpiration(t *testing.T) {
	store, mock := newTestMySQLStore(t)
	svc, _ := newTestService(t, store)

	mock.ExpectExec(regexp.QuoteMeta(insertNonce)).
		WithArgs(sqlmock.AnyArg(), millisecondTime{want: t0.Add(time.Second)}).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := svc.CreateFor(context.Background(), time.Second, t0.Add(700*time.Microsecond))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_InsertDuplicate(t *testing.T) {
	store, mock := newTestMySQLStore(t)

	mock.ExpectExec(regexp.QuoteMeta(insertNonce)).
		WithArgs("dup", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: mysqlErrDuplicateEntry, Message: "Duplicate entry 'dup' for key 'PRIMARY'"})

	err := store.Insert(context.Background(), Record{ID: "dup", Expiration: t0})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_Consume(t *testing.T) {
	store, mock := newTestMySQLStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectNonceForUpdate)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expiration"}).AddRow("abc", t0))
	mock.ExpectExec(regexp.QuoteMeta(deleteNonceByID)).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := store.Consume(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID)
	assert.True(t, rec.Expiration.Equal(t0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ConsumeNotFound(t *testing.T) {
	store, mock := newTestMySQLStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectNonceForUpdate)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expiration"}))
	mock.ExpectRollback()

	rec, err := store.Consume(context.Background(), "missing")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ConsumeDeleteFails(t *testing.T) {
	store, mock := newTestMySQLStore(t)
	dbErr := errors.New("lock wait timeout exceeded")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectNonceForUpdate)).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expiration"}).AddRow("abc", t0))
	mock.ExpectExec(regexp.QuoteMeta(deleteNonceByID)).
		WithArgs("abc").
		WillReturnError(dbErr)
	mock.ExpectRollback()

	rec, err := store.Consume(context.Background(), "abc")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_DeleteExpired(t *testing.T) {
	store, mock := newTestMySQLStore(t)

	mock.ExpectExec(regexp.QuoteMeta(deleteExpiredNonces)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.DeleteExpired(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_ServiceSurfacesStorageError(t *testing.T) {
	store, mock := newTestMySQLStore(t)
	svc, _ := newTestService(t, store)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	ok, err := svc.CheckAt(context.Background(), "abc", t0.Add(time.Second))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1045}, false},
		{"message fallback", errors.New("Error 1062: Duplicate entry 'x'"), true},
		{"unrelated", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateKeyError(tt.err))
		})
	}
}
