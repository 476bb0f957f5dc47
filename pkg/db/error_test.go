package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
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
		{"gorm", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"pgconn", &pgconn.PgError{Code: "23505"}, true},
		{"pgconn other code", &pgconn.PgError{Code: "23503"}, false},
		{"pq", &pq.Error{Code: "23505"}, true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry"), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: chats.user1_id, chats.user2_id (2067)"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}
