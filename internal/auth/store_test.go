package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"clientregistry/pkg/logger"
)

var fastRetry = StoreOptions{Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond}

func TestResilientStore_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	next.EXPECT().FindByEmail(gomock.Any(), "alice@email.com").Return(&alice, nil)

	p, err := NewResilientStore(next, fastRetry, logger.Discard()).FindByEmail(context.Background(), "alice@email.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.ID)
}

func TestResilientStore_RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	gomock.InOrder(
		next.EXPECT().FindByID(gomock.Any(), alice.ID).Return(nil, errors.New("connection reset")),
		next.EXPECT().FindByID(gomock.Any(), alice.ID).Return(&alice, nil),
	)

	p, err := NewResilientStore(next, fastRetry, logger.Discard()).FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, p.Email)
}

func TestResilientStore_NotFoundIsPermanent(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	next.EXPECT().FindByEmail(gomock.Any(), "ghost@email.com").Return(nil, ErrPrincipalNotFound).Times(1)

	_, err := NewResilientStore(next, fastRetry, logger.Discard()).FindByEmail(context.Background(), "ghost@email.com")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
	assert.NotErrorIs(t, err, ErrServiceUnavailable)
}

func TestResilientStore_NilPrincipalIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	next.EXPECT().FindByID(gomock.Any(), "x").Return(nil, nil).Times(1)

	_, err := NewResilientStore(next, fastRetry, nil).FindByID(context.Background(), "x")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestResilientStore_ExhaustedRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	// one attempt plus MaxRetries
	next.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down")).Times(3)

	_, err := NewResilientStore(next, fastRetry, logger.Discard()).FindByEmail(context.Background(), "alice@email.com")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestResilientStore_AttemptTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)
	next.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (*Principal, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	opts := StoreOptions{Timeout: 5 * time.Millisecond, MaxRetries: 0, RetryBackoff: time.Millisecond}
	_, err := NewResilientStore(next, opts, logger.Discard()).FindByEmail(context.Background(), "slow@email.com")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestResilientStore_CallerCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCredentialStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	next.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string) (*Principal, error) {
			cancel()
			return nil, context.Canceled
		}).Times(1)

	_, err := NewResilientStore(next, fastRetry, logger.Discard()).FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestNewResilientStore_Defaults(t *testing.T) {
	s := NewResilientStore(nil, StoreOptions{}, nil)
	assert.Equal(t, DefaultStoreOptions.Timeout, s.opts.Timeout)
	assert.Equal(t, DefaultStoreOptions.RetryBackoff, s.opts.RetryBackoff)
	assert.Zero(t, s.opts.MaxRetries)
}
