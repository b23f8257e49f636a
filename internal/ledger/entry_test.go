package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryEncodeDecode(t *testing.T) {
	cases := []struct {
		name  string
		entry Entry
		raw   string
	}{
		{name: "active", entry: Active("tok.en.sig"), raw: "active:tok.en.sig"},
		{name: "logged out", entry: LoggedOut(), raw: "logout"},
		{name: "account deleted", entry: AccountDeleted(), raw: "delete"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.entry.Encode()
			require.NoError(t, err)
			assert.Equal(t, tc.raw, raw)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.entry, decoded)
		})
	}
}

func TestDecodeRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "LOGOUT", "active:", "1", "refresh-token-without-tag"} {
		_, err := Decode(raw)
		assert.ErrorIs(t, err, ErrCorruptEntry, raw)
	}
}

func TestEncodeRejectsIncompleteEntries(t *testing.T) {
	_, err := Entry{State: StateActive}.Encode()
	assert.ErrorIs(t, err, ErrCorruptEntry)

	_, err = Entry{}.Encode()
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestEntryPredicates(t *testing.T) {
	assert.True(t, LoggedOut().Revoked())
	assert.True(t, AccountDeleted().Revoked())
	assert.False(t, Active("a").Revoked())

	assert.True(t, Active("a").Holds("a"))
	assert.False(t, Active("a").Holds("b"))
	assert.False(t, LoggedOut().Holds(""))
}

func TestRefreshKeyIsProviderScoped(t *testing.T) {
	assert.Equal(t, "refresh:local:a@b.com", RefreshKey("", "a@b.com"))
	assert.Equal(t, "refresh:kakao:a@b.com", RefreshKey("kakao", "a@b.com"))
	assert.NotEqual(t, RefreshKey("kakao", "a@b.com"), RefreshKey("naver", "a@b.com"))
	assert.Equal(t, "x.y.z", AccessKey("x.y.z"))
}

func TestParseRefreshKey(t *testing.T) {
	provider, identity, ok := ParseRefreshKey(RefreshKey("kakao", "a@b.com"))
	require.True(t, ok)
	assert.Equal(t, "kakao", provider)
	assert.Equal(t, "a@b.com", identity)

	for _, key := range []string{"", "a@b.com", "refresh:", "refresh:local", "refresh::a@b.com", "refresh:local:"} {
		_, _, ok := ParseRefreshKey(key)
		assert.False(t, ok, key)
	}
}
