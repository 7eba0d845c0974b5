package websession

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/jrsteele09/tiny-orders-web/internal/errors"
)

// CookieCodec signs and verifies the session cookie value. The cookie
// carries only the server-side session ID as an HS256 JWT keyed by the
// session secret; the session contents never leave the server.
type CookieCodec struct {
	secret []byte
}

// NewCookieCodec creates a codec keyed by the configured session secret
func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

// Encode signs sessionID into a cookie value
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	claims := jwtlib.MapClaims{
		"sid": sessionID,
		"iat": time.Now().Unix(),
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies a cookie value and returns the session ID it carries.
// Any malformed, tampered or differently-signed value comes back as
// errors.ErrInvalidCookie; callers treat that as "no session".
func (c *CookieCodec) Decode(value string) (string, error) {
	token, err := jwtlib.Parse(value, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.ErrInvalidCookie
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.ErrInvalidCookie
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", errors.ErrInvalidCookie
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.ErrInvalidCookie
	}

	return sid, nil
}
