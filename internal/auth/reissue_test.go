package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/ledger"
)

func TestReissueAfterAccessExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewReissuer(f.mgr, nil, zap.NewNop())
	pair := f.grant(t, "a@b.com", domain.RoleUser)
	f.clock.Advance(20 * time.Minute)

	next, err := r.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	principal, err := f.mgr.ValidateAccess(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", principal.Identity)
	assert.Equal(t, domain.RoleUser, principal.Role)

	key := ledger.RefreshKey("", "a@b.com")
	ok, err := f.mgr.ValidateRefresh(ctx, pair.RefreshToken, key)
	require.NoError(t, err)
	assert.False(t, ok, "previous refresh token must be invalidated")

	ok, err = f.mgr.ValidateRefresh(ctx, next.RefreshToken, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReissueWithUnexpiredAccessTokenProceeds(t *testing.T) {
	f := newFixture(t)
	r := NewReissuer(f.mgr, nil, nil)
	pair := f.grant(t, "a@b.com", domain.RoleUser)

	next, err := r.Reissue(context.Background(), pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
}

func TestReissueWithSupersededRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewReissuer(f.mgr, nil, nil)
	first := f.grant(t, "a@b.com", domain.RoleUser)

	_, err := r.Reissue(ctx, first.AccessToken, first.RefreshToken)
	require.NoError(t, err)

	_, err = r.Reissue(ctx, first.AccessToken, first.RefreshToken)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
	assert.Equal(t, "REAUTHENTICATION_REQUIRED", ErrorCode(err))
}

func TestReissueRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewReissuer(f.mgr, nil, nil)
	pair := f.grant(t, "a@b.com", domain.RoleUser)
	other := f.grant(t, "c@d.com", domain.RoleUser)

	cases := []struct {
		name    string
		access  string
		refresh string
	}{
		{name: "corrupt access token", access: tamperSignature(pair.AccessToken), refresh: pair.RefreshToken},
		{name: "empty access token", access: "", refresh: pair.RefreshToken},
		{name: "refresh in place of access", access: pair.RefreshToken, refresh: pair.RefreshToken},
		{name: "garbage refresh token", access: pair.AccessToken, refresh: "garbage"},
		{name: "refresh token of another identity", access: pair.AccessToken, refresh: other.RefreshToken},
		{name: "access token as refresh", access: pair.AccessToken, refresh: pair.AccessToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := r.Reissue(ctx, tc.access, tc.refresh)
			assert.Nil(t, next)
			assert.ErrorIs(t, err, ErrReauthenticationRequired)
		})
	}

	// rejected attempts leave the live entry untouched
	ok, err := f.mgr.ValidateRefresh(ctx, pair.RefreshToken, ledger.RefreshKey("", "a@b.com"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReissueAfterLogoutOrWithdrawal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := NewReissuer(f.mgr, nil, nil)

	pair := f.grant(t, "a@b.com", domain.RoleUser)
	require.NoError(t, f.mgr.Logout(ctx, pair.AccessToken))
	_, err := r.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)

	pair = f.grant(t, "c@d.com", domain.RoleUser)
	require.NoError(t, f.mgr.Withdraw(ctx, pair.AccessToken))
	_, err = r.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
}

func TestReissueExpiredRefreshToken(t *testing.T) {
	f := newFixture(t)
	r := NewReissuer(f.mgr, nil, nil)
	pair := f.grant(t, "a@b.com", domain.RoleUser)
	f.clock.Advance(48 * time.Hour)

	_, err := r.Reissue(context.Background(), pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)
}

func TestReissueStoreFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	r := NewReissuer(f.mgr, nil, nil)
	pair := f.grant(t, "a@b.com", domain.RoleUser)
	f.mr.Close()

	_, err := r.Reissue(context.Background(), pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTransientStore)
	assert.NotErrorIs(t, err, ErrReauthenticationRequired)
	assert.Equal(t, "TRANSIENT_STORE_ERROR", ErrorCode(err))
}

func TestReissueResolvesRoleThroughLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	members := &memberStub{members: map[string]*domain.Member{
		"a@b.com": {ID: "m-1", Email: "a@b.com", Role: domain.RoleAdmin},
	}}
	r := NewReissuer(f.mgr, members, nil)
	pair := f.grant(t, "a@b.com", domain.RoleUser)

	next, err := r.Reissue(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	principal, err := f.mgr.ValidateAccess(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, principal.Role)

	members.members = nil
	_, err = r.Reissue(ctx, next.AccessToken, next.RefreshToken)
	assert.ErrorIs(t, err, ErrReauthenticationRequired)

	members.err = errors.New("db down")
	_, err = r.Reissue(ctx, next.AccessToken, next.RefreshToken)
	assert.NotErrorIs(t, err, ErrReauthenticationRequired)
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(err))
}

func TestReissueStateNames(t *testing.T) {
	assert.Equal(t, "validating_refresh", StateValidatingRefresh.String())
	assert.Equal(t, "reissuing", StateReissuing.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "rejected", StateRejected.String())
}
