package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "travelfinance/internal/config"
	intdb "travelfinance/internal/db"
	"travelfinance/internal/domain"
)

var errNoDB = domain.InternalError{Msg: "database not connected"}

// querier prefers the transaction, then the repository's own handle, then the
// shared connection.
func querier(tx *sql.Tx, db *sql.DB) intdb.Querier {
	if tx != nil {
		return tx
	}
	if db != nil {
		return db
	}
	if intconfig.DB != nil {
		return intconfig.DB
	}
	return nil
}

func notFound(resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return err
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func rowsAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}
