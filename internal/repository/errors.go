// Package repository implements store.Store on MySQL. Rows read inside a
// transaction are locked with SELECT ... FOR UPDATE, so concurrent
// registrations for one conference queue on its row instead of racing.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/conference-central/internal/store"
)

// ErrConstraint is returned when a write violates a unique or CHECK
// constraint. The service validates inputs first, so reaching it signals
// a bug rather than bad input.
var ErrConstraint = errors.New("constraint violated")

// MySQL server error numbers handled by translate.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	errCheckViolated   = 3819
)

// translate maps driver errors onto store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDeadlock, errLockWaitTimeout:
			return fmt.Errorf("%s: %w", me.Message, store.ErrContention)
		case errDupEntry, errCheckViolated:
			return fmt.Errorf("%s: %w", me.Message, ErrConstraint)
		}
	}
	return err
}
