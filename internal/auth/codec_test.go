package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-service/internal/domain"
)

func testCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret)
	require.NoError(t, err)
	return codec.WithClock(func() time.Time { return now })
}

func accessClaims(issued time.Time, ttl time.Duration) Claims {
	return Claims{
		Kind:     KindAccess,
		Identity: "a@b.com",
		Role:     domain.RoleUser,
		Provider: "local",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
		},
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("  ")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueParseRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, now)
	in := accessClaims(now, time.Hour)

	token, err := codec.Issue(in)
	require.NoError(t, err)

	out, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.Identity, out.Identity)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.Provider, out.Provider)
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.IssuedAt.Equal(out.IssuedAt.Time))
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt.Time))
}

func TestIssueIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, now)

	first, err := codec.Issue(accessClaims(now, time.Hour))
	require.NoError(t, err)
	second, err := codec.Issue(accessClaims(now, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parsed, _, err := jwt.NewParser().ParseUnverified(first, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "HS512", parsed.Method.Alg())
}

func TestIssueRejectsIncompleteClaims(t *testing.T) {
	now := time.Now()
	codec := testCodec(t, now)

	missingRole := accessClaims(now, time.Hour)
	missingRole.Role = ""
	_, err := codec.Issue(missingRole)
	assert.ErrorIs(t, err, ErrMalformed)

	refreshWithIdentity := accessClaims(now, time.Hour)
	refreshWithIdentity.Kind = KindRefresh
	_, err = codec.Issue(refreshWithIdentity)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseErrorKinds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodec(t, now)
	valid, err := codec.Issue(accessClaims(now, time.Hour))
	require.NoError(t, err)

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims(now, time.Hour)).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, accessClaims(now, time.Hour)).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS512, accessClaims(now, time.Hour)).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	unknownKind := accessClaims(now, time.Hour)
	unknownKind.Kind = "session"
	badKind, err := jwt.NewWithClaims(jwt.SigningMethodHS512, unknownKind).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrEmpty},
		{name: "blank", token: "   ", want: ErrEmpty},
		{name: "garbage", token: "not-a-token", want: ErrMalformed},
		{name: "bad segments", token: "a.b.c", want: ErrMalformed},
		{name: "tampered signature", token: tamperSignature(valid), want: ErrBadSignature},
		{name: "foreign secret", token: otherSecret, want: ErrBadSignature},
		{name: "hs256", token: hs256, want: ErrUnsupportedAlgorithm},
		{name: "alg none", token: none, want: ErrUnsupportedAlgorithm},
		{name: "unknown kind", token: badKind, want: ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := codec.Parse(tc.token)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, claims)
		})
	}
}

func TestParseExpiredReturnsClaims(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := testCodec(t, issued).Issue(accessClaims(issued, time.Minute))
	require.NoError(t, err)

	later := testCodec(t, issued.Add(2*time.Minute))
	claims, err := later.Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrBadSignature)
	require.NotNil(t, claims)
	assert.Equal(t, "a@b.com", claims.Identity)
}

func TestParseChecksSignatureBeforeExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := testCodec(t, issued).Issue(accessClaims(issued, time.Minute))
	require.NoError(t, err)

	claims, err := testCodec(t, issued.Add(time.Hour)).Parse(tamperSignature(token))
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Nil(t, claims)
}

func TestParseRequiresExpiry(t *testing.T) {
	now := time.Now()
	claims := accessClaims(now, time.Hour)
	claims.ExpiresAt = nil
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = testCodec(t, now).Parse(token)
	assert.ErrorIs(t, err, ErrMalformed)
}
