package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"clientregistry/pkg/logger"
)

// CredentialStore looks principals up by email or id. Implementations return
// ErrPrincipalNotFound when no record matches; any other error is treated as
// the store being unreachable.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
}

type StoreOptions struct {
	Timeout      time.Duration
	MaxRetries   uint64
	RetryBackoff time.Duration
}

var DefaultStoreOptions = StoreOptions{
	Timeout:      2 * time.Second,
	MaxRetries:   2,
	RetryBackoff: 100 * time.Millisecond,
}

// ResilientStore bounds each lookup with a timeout and retries transient
// failures. Exhausted retries surface as ErrServiceUnavailable.
type ResilientStore struct {
	next CredentialStore
	opts StoreOptions
	log  *logger.Logger
}

func NewResilientStore(next CredentialStore, opts StoreOptions, log *logger.Logger) *ResilientStore {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStoreOptions.Timeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultStoreOptions.RetryBackoff
	}
	return &ResilientStore{next: next, opts: opts, log: log}
}

func (s *ResilientStore) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	return s.lookup(ctx, "email", func(ctx context.Context) (*Principal, error) {
		return s.next.FindByEmail(ctx, email)
	})
}

func (s *ResilientStore) FindByID(ctx context.Context, id string) (*Principal, error) {
	return s.lookup(ctx, "id", func(ctx context.Context) (*Principal, error) {
		return s.next.FindByID(ctx, id)
	})
}

func (s *ResilientStore) lookup(ctx context.Context, by string, find func(context.Context) (*Principal, error)) (*Principal, error) {
	var found *Principal
	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		p, err := find(attemptCtx)
		switch {
		case err == nil && p == nil:
			return backoff.Permanent(ErrPrincipalNotFound)
		case err == nil:
			found = p
			return nil
		case errors.Is(err, ErrPrincipalNotFound):
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			// caller gave up; retrying cannot help
			return backoff.Permanent(err)
		default:
			return err
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.RetryBackoff
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, s.opts.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		if s.log != nil {
			s.log.Warn("credential store lookup failed, retrying", "by", by, "wait", wait, "error", err)
		}
	}

	err := backoff.RetryNotify(op, b, notify)
	if err == nil {
		return found, nil
	}
	if errors.Is(err, ErrPrincipalNotFound) {
		return nil, ErrPrincipalNotFound
	}
	return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}
