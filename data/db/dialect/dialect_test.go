package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Normalization(t *testing.T) {
	assert.Equal(t, NameMySQL, New("MySQL").Name())
	assert.Equal(t, NameSQLite, New("sqlite").Name())
	assert.Equal(t, NameSQLite, New("sqlite3").Name())
	assert.Equal(t, NamePostgres, New(" postgres ").Name())
	assert.Equal(t, NamePostgres, New("postgresql").Name())
	assert.Equal(t, NameUnknown, New("oracle").Name())
	assert.Equal(t, NameUnknown, New("").Name())
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`users`", New("mysql").QuoteIdentifier("users"))
	assert.Equal(t, "`db`.`users`", New("mysql").QuoteIdentifier("db.users"))
	assert.Equal(t, `"users"`, New("sqlite").QuoteIdentifier("users"))
	assert.Equal(t, `"public"."users"`, New("postgres").QuoteIdentifier("public.users"))
	assert.Equal(t, "users", New("unknown").QuoteIdentifier("users"))
	assert.Equal(t, "", New("mysql").QuoteIdentifier(""))
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, New("mysql").Rebind(q))
	assert.Equal(t, q, New("sqlite").Rebind(q))
	assert.Equal(t,
		"SELECT * FROM t WHERE a = $1 AND b = $2",
		New("postgres").Rebind(q))
	assert.Equal(t, "", New("postgres").Rebind(""))
}

func TestSupportsDeleteLimit(t *testing.T) {
	assert.True(t, New("mysql").SupportsDeleteLimit())
	assert.True(t, New("sqlite").SupportsDeleteLimit())
	assert.False(t, New("postgres").SupportsDeleteLimit())
	assert.False(t, New("").SupportsDeleteLimit())
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		dialect string
		err     error
		want    bool
	}{
		{"mysql", errors.New("Error 1062: Duplicate entry 'a' for key 'email'"), true},
		{"mysql", errors.New("Error 1064: syntax error"), false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: accounts.email (2067)"), true},
		{"sqlite", errors.New("no such table: accounts"), false},
		{"postgres", errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`), true},
		{"postgres", errors.New("pq: relation does not exist"), false},
		{"", errors.New("UNIQUE constraint failed: t.c"), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.dialect).IsUniqueViolation(tt.err), "%s: %v", tt.dialect, tt.err)
	}
	assert.False(t, New("mysql").IsUniqueViolation(nil))
}
