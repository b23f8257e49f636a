package ledger

import "strings"

// ProviderLocal scopes refresh keys of password logins.
const ProviderLocal = "local"

const refreshKeyPrefix = "refresh:"

// RefreshKey is the key tracking the live refresh token of one identity per provider.
func RefreshKey(provider, identity string) string {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = ProviderLocal
	}
	return refreshKeyPrefix + provider + ":" + identity
}

// AccessKey is the key under which a logged-out access token is recorded.
func AccessKey(token string) string {
	return token
}
