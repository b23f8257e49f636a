// Package ledger tracks revoked access tokens and live refresh tokens in an
// external key-value store.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTransientStore wraps every failure to reach the backing store, timeouts included.
	ErrTransientStore = errors.New("ledger: store unavailable")
	// ErrCorruptEntry is returned for values that are not a known entry encoding.
	ErrCorruptEntry = errors.New("ledger: unrecognized entry")
)

// Store is the key-value contract the ledger needs. Get reports absence with ok=false.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Client reads and writes typed entries.
type Client struct {
	store   Store
	timeout time.Duration
}

// NewClient builds a client. A positive opTimeout bounds each call.
func NewClient(store Store, opTimeout time.Duration) *Client {
	return &Client{store: store, timeout: opTimeout}
}

// Lookup fetches the entry under key.
func (c *Client) Lookup(ctx context.Context, key string) (Entry, bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Entry{}, false, transient("get", err)
	}
	if !ok {
		return Entry{}, false, nil
	}
	entry, err := Decode(raw)
	if err != nil {
		return Entry{}, true, err
	}
	return entry, true, nil
}

// Put writes entry under key. A non-positive ttl stores it without expiry.
func (c *Client) Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	raw, err := entry.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, raw, ttl)
	} else {
		err = c.store.Set(ctx, key, raw)
	}
	if err != nil {
		return transient("set", err)
	}
	return nil
}

// Remove deletes key. Deleting an absent key is not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.store.Delete(ctx, key); err != nil {
		return transient("delete", err)
	}
	return nil
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func transient(op string, err error) error {
	if errors.Is(err, ErrTransientStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransientStore, op, err)
}
