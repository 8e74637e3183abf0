package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_appointments_active_slot"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "appointments_pet_id_fkey"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"any unique", dup, "", true},
		{"named unique", dup, "uq_appointments_active_slot", true},
		{"wrapped unique", fmt.Errorf("insert appointment: %w", dup), "uq_appointments_active_slot", true},
		{"other constraint", dup, "users_email_key", false},
		{"foreign key", fk, "", false},
		{"plain error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err, tt.constraint))
		})
	}
}
