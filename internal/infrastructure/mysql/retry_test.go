package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "stockroom/internal/errors"
)

func TestRetryOnDeadlock_SucceedsAfterDeadlock(t *testing.T) {
	calls := 0
	err := RetryOnDeadlock(context.Background(), zap.NewNop(), 3, "test", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &mysql.MySQLError{Number: 1213}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryOnDeadlock_MaxRetriesExceeded(t *testing.T) {
	calls := 0
	err := RetryOnDeadlock(context.Background(), zap.NewNop(), 2, "test", func(ctx context.Context) error {
		calls++
		return &mysql.MySQLError{Number: 1205}
	})

	_, ok := apperrors.IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestRetryOnDeadlock_OtherErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := RetryOnDeadlock(context.Background(), zap.NewNop(), 3, "test", func(ctx context.Context) error {
		calls++
		return errors.New("syntax error")
	})

	assert.EqualError(t, err, "syntax error")
	assert.Equal(t, 1, calls)
}

func TestRetryOnDeadlock_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryOnDeadlock(ctx, zap.NewNop(), 3, "test", func(ctx context.Context) error {
		return &mysql.MySQLError{Number: 1213}
	})

	assert.ErrorIs(t, err, context.Canceled)
}
