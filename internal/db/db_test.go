package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"makeitreel/internal/logger"
)

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost:5432/reels?sslmode=disable"))
	assert.True(t, IsPostgres("postgresql://u:p@localhost/reels"))
	assert.False(t, IsPostgres("user:password@tcp(localhost:3306)/app?parseTime=True"))
}

func TestDialector(t *testing.T) {
	assert.Equal(t, "postgres", dialector("postgres://u:p@localhost/reels").Name())
	assert.Equal(t, "mysql", dialector("user:password@tcp(localhost:3306)/app").Name())
}

func TestOpenWithRetryGivesUp(t *testing.T) {
	_, err := OpenWithRetry(context.Background(), "not-a-dsn", PoolConfig{}, 1, logger.Discard())

	assert.Error(t, err)
}
