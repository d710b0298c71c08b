package types

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)
