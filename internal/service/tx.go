package service

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TxRunner is the slice of *gorm.DB the services need: one atomic unit of
// work. Tests substitute an in-memory implementation.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

const maxTxAttempts = 3

// runInTx executes fn as one transaction, retrying when Postgres aborts it
// for a serialization failure or deadlock. Every unit of work passed here is
// idempotent or monotonic, so a blind retry of the whole unit is safe. Once
// the budget is exhausted the caller gets ErrConflict, never a partial
// application.
func runInTx(db TxRunner, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = db.Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return ErrConflict
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
