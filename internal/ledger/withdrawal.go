package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const withdrawnKeyPrefix = "withdrawn:"

// WithdrawnKey records when an identity deleted its account, across all providers.
func WithdrawnKey(identity string) string {
	return withdrawnKeyPrefix + identity
}

// ParseRefreshKey splits a key built by RefreshKey back into provider and identity.
func ParseRefreshKey(key string) (provider, identity string, ok bool) {
	rest, found := strings.CutPrefix(key, refreshKeyPrefix)
	if !found {
		return "", "", false
	}
	provider, identity, found = strings.Cut(rest, ":")
	if !found || provider == "" || identity == "" {
		return "", "", false
	}
	return provider, identity, true
}

// MarkWithdrawn stores at (second precision) under WithdrawnKey(identity). Tokens of
// the identity issued at or before at are revoked. ttl must outlive every such token.
func (c *Client) MarkWithdrawn(ctx context.Context, identity string, at time.Time, ttl time.Duration) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	value := strconv.FormatInt(at.Unix(), 10)
	var err error
	if ttl > 0 {
		err = c.store.SetWithTTL(ctx, WithdrawnKey(identity), value, ttl)
	} else {
		err = c.store.Set(ctx, WithdrawnKey(identity), value)
	}
	if err != nil {
		return transient("set", err)
	}
	return nil
}

// WithdrawnAt returns the withdrawal time recorded for identity, if any.
func (c *Client) WithdrawnAt(ctx context.Context, identity string) (time.Time, bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	raw, ok, err := c.store.Get(ctx, WithdrawnKey(identity))
	if err != nil {
		return time.Time{}, false, transient("get", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, true, fmt.Errorf("%w: %q", ErrCorruptEntry, raw)
	}
	return time.Unix(sec, 0).UTC(), true, nil
}
