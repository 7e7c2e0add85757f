package auth

import (
	"strings"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const principalKey = "principal"

// Verifier is the subset of TokenService the middleware needs.
type Verifier interface {
	Verify(token string) (identity.Principal, error)
}

// Required rejects requests without a valid bearer token and stores the
// principal in the request locals.
func Required(v Verifier) fiber.Handler {
	return required(v, bearerToken)
}

// RequiredWS is Required for websocket routes. Browsers cannot set headers
// on the upgrade, so a ?token= query parameter is accepted, but only on an
// actual upgrade request.
func RequiredWS(v Verifier) fiber.Handler {
	return required(v, func(c *fiber.Ctx) string {
		if t := bearerToken(c); t != "" {
			return t
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Query("token")
		}
		return ""
	})
}

func required(v Verifier, extract func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extract(c)
		if token == "" {
			return apperr.ErrUnauthorized
		}
		p, err := v.Verify(token)
		if err != nil {
			return apperr.ErrUnauthorized
		}
		c.Locals(principalKey, p)
		return c.Next()
	}
}

// RequireRoles rejects principals whose role is not listed. Must run after Required.
func RequireRoles(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return apperr.ErrUnauthorized
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return apperr.ErrForbidden
	}
}

// PrincipalFrom returns the principal stored by Required.
func PrincipalFrom(c *fiber.Ctx) (identity.Principal, bool) {
	p, ok := c.Locals(principalKey).(identity.Principal)
	return p, ok
}

// WithPrincipal stores p in the locals. Used by tests and the websocket upgrade.
func WithPrincipal(c *fiber.Ctx, p identity.Principal) {
	c.Locals(principalKey, p)
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
