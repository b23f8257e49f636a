package dto

import "time"

// LoginRequest payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest payload for member sign-up.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReissueRequest carries the refresh token; the previous access token travels in the Authorization header.
type ReissueRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and reissue.
type TokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	MemberID     string   `json:"memberId,omitempty"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Provider     string   `json:"provider"`
	Capabilities []string `json:"capabilities"`
}
