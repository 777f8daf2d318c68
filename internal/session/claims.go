package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eia/publicaciones/pkg/domain"
)

// Claims is the subset of the access token payload the client reads. The
// signature is not verified: only the backend can do that.
type Claims struct {
	Subject   domain.ID
	ExpiresAt time.Time
}

// ParseClaims decodes the payload of a JWT access token without verifying it.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("session.ParseClaims: %w", err)
	}

	var c Claims
	for _, key := range []string{"sub", "id"} {
		if id := claimID(mc[key]); id != "" {
			c.Subject = id
			break
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

func claimID(v any) domain.ID {
	switch t := v.(type) {
	case string:
		return domain.ID(t)
	case float64:
		return domain.ID(strconv.FormatFloat(t, 'f', -1, 64))
	case json.Number:
		return domain.ID(t.String())
	}
	return ""
}
