package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// storeErr marks a driver failure as a store failure. The driver text is kept for logging only.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(core.NewStoreError(err), msg)
}

// trapNoRowsErr maps the "no rows" error to notFound.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return errors.WithStack(notFound)
	}
	return storeErr(err, msg)
}

// statusCount is a "GROUP BY" row.
type statusCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}
