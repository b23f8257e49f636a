package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/ledger"
	"github.com/spec-kit/shop-service/internal/persistence"
)

const testSecret = "test-secret-that-is-long-enough-for-hs512-signing-0123456789abcdef"

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	mgr    *TokenManager
	codec  *Codec
	ledger *ledger.Client
	mr     *miniredis.Miniredis
	clock  *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	store := persistence.NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(store.Close)

	codec, err := NewCodec(testSecret)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	client := ledger.NewClient(store, time.Second)
	codec = codec.WithClock(clock.Now)
	mgr := NewTokenManager(codec, client, 15*time.Minute, 24*time.Hour, zap.NewNop())
	return &fixture{mgr: mgr, codec: codec, ledger: client, mr: mr, clock: clock}
}

func (f *fixture) grant(t *testing.T, identity string, role domain.Role) *TokenPair {
	t.Helper()
	pair, err := f.mgr.Grant(context.Background(), identity, role, ledger.ProviderLocal)
	require.NoError(t, err)
	return pair
}

// tamperSignature flips one character in the middle of the signature segment.
func tamperSignature(token string) string {
	i := strings.LastIndex(token, ".")
	sig := []byte(token[i+1:])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	return token[:i+1] + string(sig)
}

type memberStub struct {
	members map[string]*domain.Member
	err     error
}

func (s *memberStub) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.members[email]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return m, nil
}
