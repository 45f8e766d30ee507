package postgres

import (
	"errors"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqUndefinedTable      = "42P01"
	pqUndefinedColumn     = "42703"
	pqForeignKeyViolation = "23503"
)

// translateError attaches a domain code to driver errors the callers care about.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return domain.WrapError(domain.CodeAlreadyExists, err)
	case pqForeignKeyViolation:
		return domain.WrapError(domain.CodeNotFound, err)
	case pqUndefinedTable, pqUndefinedColumn:
		// the schema is behind the binary, usually while migrations run
		return domain.WrapError(domain.CodeFailedPrecondition, errors.New("missing index or relation: "+pqErr.Message))
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
