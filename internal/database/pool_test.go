package database

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"bad connection", errors.New("driver: bad connection"), true},
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"admin shutdown class 08", &pq.Error{Code: "08006"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"syntax", errors.New("syntax error at or near"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "boxoffice", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=boxoffice sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, func() error {
		calls++
		if calls < 2 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	permanent := errors.New("unique violation")
	err = Retry(ctx, 3, func() error {
		calls++
		return permanent
	})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Retry(ctx, 2, func() error {
		calls++
		return errors.New("driver: bad connection")
	})
	assert.ErrorContains(t, err, "failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestValidateConnectionPool(t *testing.T) {
	db := &DB{}
	assert.NoError(t, db.ValidateConnectionPool(Config{MaxOpenConns: 100, MaxIdleConns: 25}))
	assert.NoError(t, db.ValidateConnectionPool(Config{}))
	assert.Error(t, db.ValidateConnectionPool(Config{MaxOpenConns: 10, MaxIdleConns: 20}))
	assert.Error(t, db.ValidateConnectionPool(Config{MaxOpenConns: 5, MaxIdleConns: 1}))
}
