// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Auth, which resolves the calling student's identity
// and stores it under the "userID" Gin context key read by handlers, the rate
// limiter and idempotency.
//
// Identity sources, in order:
//   - Authorization: Bearer <jwt>, HS256-signed with the configured secret
//     (Supabase style: the user id is the "sub" claim)
//   - X-User-ID header, only when no secret is configured (local development)
//   - "demo-user", same condition
//
// With Required set, requests without a valid token are rejected with 401.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserIDKey is the Gin context key holding the authenticated user id.
	UserIDKey = "userID"

	// DemoUserID is the development identity used when auth is disabled.
	DemoUserID = "demo-user"

	headerUserID = "X-User-ID"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errMissingSub   = errors.New("token has no subject")
)

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret is the HS256 key. Empty disables token verification and enables
	// the development fallbacks.
	Secret string
	// Issuer, when set, must match the token "iss" claim.
	Issuer string
	// Required rejects requests that carry no valid token.
	Required bool
}

// Auth returns the identity middleware.
func Auth(opts AuthOptions) gin.HandlerFunc {
	secret := []byte(opts.Secret)
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		var uid string
		if len(secret) > 0 {
			sub, err := verifyBearer(parser, secret, c.GetHeader("Authorization"))
			switch {
			case err == nil:
				uid = sub
			case errors.Is(err, errMissingToken) && !opts.Required:
				uid = DemoUserID
			default:
				unauthorized(c, err)
				return
			}
		} else {
			if opts.Required {
				unauthorized(c, errMissingToken)
				return
			}
			uid = strings.TrimSpace(c.GetHeader(headerUserID))
			if uid == "" {
				uid = DemoUserID
			}
		}

		c.Set(UserIDKey, uid)
		attachLogger(c, LoggerFrom(c).With().Str("user_id", uid).Logger())
		c.Next()
	}
}

// UserID returns the identity stored by Auth, or DemoUserID when Auth did not
// run (tests and unauthenticated routes).
func UserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DemoUserID
}

func verifyBearer(parser *jwt.Parser, secret []byte, header string) (string, error) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}
	claims := jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSub
	}
	return claims.Subject, nil
}

func unauthorized(c *gin.Context, err error) {
	msg := "invalid token"
	switch {
	case errors.Is(err, errMissingToken):
		msg = "missing bearer token"
	case errors.Is(err, jwt.ErrTokenExpired):
		msg = "token has expired"
	}
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       CodeUnauthorized,
		"message":    msg,
	})
}
