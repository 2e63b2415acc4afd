package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueConstraintError reports whether err is a uniqueness violation,
// regardless of backing store. Services lean on three unique constraints
// instead of check-then-insert races: tenant slugs, program codes within a
// tenant, and the single default project per program (partial index).
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return isPostgresDuplicate(err) || isMySQLDuplicate(err) || isSQLiteDuplicate(err)
}

func isPostgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	// 23505 = unique_violation
	return errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505"
}

func isMySQLDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	// 1062 = ER_DUP_ENTRY
	return errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062
}

// isSQLiteDuplicate falls back to message sniffing; the sqlite driver does
// not expose a typed error through gorm.
func isSQLiteDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "constraint")
}
