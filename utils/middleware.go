package utils

import (
	"strings"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

const identityContextKey = "identity"

// OptionalAccessToken verifies a bearer token when one is present and stores
// the claims for the handler. Missing, malformed, or expired tokens are not an
// error: the request continues as a guest.
func OptionalAccessToken(verifier *jwt.Verifier) iris.Handler {
	return func(ctx iris.Context) {
		header := ctx.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			if verified, err := verifier.VerifyToken([]byte(token)); err == nil {
				claims := new(AccessToken)
				if verified.Claims(claims) == nil {
					ctx.Values().Set(identityContextKey, claims)
				}
			}
		}
		ctx.Next()
	}
}

// OptionalIdentity returns the claims stored by OptionalAccessToken, or nil
// for a guest request.
func OptionalIdentity(ctx iris.Context) *AccessToken {
	if claims, ok := ctx.Values().Get(identityContextKey).(*AccessToken); ok {
		return claims
	}
	return nil
}
