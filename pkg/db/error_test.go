package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique", &pgconn.PgError{Code: "23505", ConstraintName: "ux_generated_invoices_org_period"}, true},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"pg message", errors.New(`ERROR: duplicate key value violates unique constraint "ux_accounts_email" (SQLSTATE 23505)`), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry"), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: generated_invoices.org_id (2067)"), true},
		{"other", errors.New("connection reset by peer"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_generated_invoices_org_period"})
	assert.Equal(t, "ux_generated_invoices_org_period", ConstraintName(err))
	assert.Empty(t, ConstraintName(errors.New("boom")))
}
