// Package token caches the bearer token used against the upstream deployment.
package token

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Token is an access token and the instant it stops being valid.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt.After(now)
}

// Fetcher obtains a fresh token from the identity provider.
type Fetcher interface {
	FetchToken(ctx context.Context) (Token, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (Token, error)

func (f FetcherFunc) FetchToken(ctx context.Context) (Token, error) {
	return f(ctx)
}

// ErrEmptyToken is returned when the identity provider answers without a token.
var ErrEmptyToken = errors.New("identity provider returned an empty token")

// Cache holds one token and refreshes it when absent or expired.
type Cache struct {
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	current Token

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates an empty cache around fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{fetcher: fetcher, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the held token if it is still valid, otherwise fetches a new
// one. Concurrent refreshes share a single fetch. The shared fetch does not
// inherit any one caller's cancellation; each caller stops waiting when its
// own ctx ends.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()
	if current.Valid(c.now()) {
		return current.AccessToken, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("token", func() (any, error) {
		tok, err := c.fetcher.FetchToken(fetchCtx)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(tok.AccessToken) == "" {
			return nil, ErrEmptyToken
		}
		c.mu.Lock()
		c.current = tok
		c.mu.Unlock()
		return tok.AccessToken, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the held token so the next Get refreshes it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = Token{}
	c.mu.Unlock()
}

// Current returns the held token without refreshing it.
func (c *Cache) Current() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
