package httpx

import "time"

// TokenResponse is the body returned by every login and refresh endpoint.
type TokenResponse struct {
	AccessToken            string `json:"accessToken"`
	RefreshToken           string `json:"refreshToken"`
	TokenType              string `json:"tokenType"`
	ExpiresIn              int64  `json:"expiresIn"`
	PasswordChangeRequired *bool  `json:"passwordChangeRequired,omitempty"`
}

// NewTokenResponse builds a bearer TokenResponse; expiresIn is in seconds.
func NewTokenResponse(access, refresh string, expiresIn time.Duration) TokenResponse {
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(expiresIn / time.Second),
	}
}
