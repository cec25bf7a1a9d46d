package nonce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	pkgdb "github.com/ahwlsqja/nonce-service/pkg/db"
)

const (
	mysqlErrDuplicateEntry = 1062
)

const (
	createNoncesTable = `CREATE TABLE IF NOT EXISTS nonces (
	id CHAR(36) NOT NULL PRIMARY KEY,
	expiration DATETIME(3) NOT NULL,
	INDEX idx_nonces_expiration (expiration)
)`
	insertNonce          = "INSERT INTO nonces (id, expiration) VALUES (?, ?)"
	selectNonceForUpdate = "SELECT id, expiration FROM nonces WHERE id = ? FOR UPDATE"
	deleteNonceByID      = "DELETE FROM nonces WHERE id = ?"
	deleteExpiredNonces  = "DELETE FROM nonces WHERE expiration <= ?"
)

// MySQLStore implements Store interface using a MySQL table
type MySQLStore struct {
	txRunner *pkgdb.TxRunner
	logger   *zap.Logger
}

// Compile-time interface compliance check
var _ Store = (*MySQLStore)(nil)

// NewMySQLStore creates a new MySQL-based nonce store
func NewMySQLStore(txRunner *pkgdb.TxRunner, logger *zap.Logger) *MySQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MySQLStore{
		txRunner: txRunner,
		logger:   logger,
	}
}

// EnsureSchema creates the nonces table if it does not exist
func (s *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.txRunner.DB().ExecContext(ctx, createNoncesTable); err != nil {
		return fmt.Errorf("create nonces table: %w", err)
	}
	return nil
}

func (s *MySQLStore) NewID() string {
	return uuid.New().String()
}

func (s *MySQLStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.txRunner.DB().ExecContext(ctx, insertNonce, rec.ID, rec.Expiration.UTC())
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		s.logger.Error("failed to insert nonce",
			zap.String("nonce", rec.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert nonce: %w", err)
	}
	return nil
}

// Consume locks the row, deletes it and commits in one transaction.
// A concurrent Consume on the same ID blocks on the row lock and then finds nothing.
func (s *MySQLStore) Consume(ctx context.Context, id string) (*Record, error) {
	rec, err := pkgdb.WithTxResult(ctx, s.txRunner, func(tx *sql.Tx) (*Record, error) {
		var r Record
		err := tx.QueryRowContext(ctx, selectNonceForUpdate, id).Scan(&r.ID, &r.Expiration)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}

		if _, err := tx.ExecContext(ctx, deleteNonceByID, id); err != nil {
			return nil, err
		}
		return &r, nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to consume nonce",
			zap.String("nonce", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return rec, nil
}

func (s *MySQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.txRunner.DB().ExecContext(ctx, deleteExpiredNonces, now.UTC())
	if err != nil {
		s.logger.Error("failed to delete expired nonces", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired nonces: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return removed, nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	return pkgdb.Ping(ctx, s.txRunner.DB())
}

// isDuplicateKeyError checks if the error is a MySQL duplicate key error
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
