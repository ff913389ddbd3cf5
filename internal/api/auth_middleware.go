package api

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/identityswitcher/internal/session"
)

// localsClaimsKey stores the verified caller claims on the request.
const localsClaimsKey = "idsw_claims"

// accessToken gets the access token from cookie or Authorization header.
func accessToken(c fiber.Ctx) string {
	if token := c.Cookies(SessionCookieName); token != "" {
		return token
	}

	token := c.Get("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		return token[7:]
	}
	return token
}

// callerClaims returns the claims stored by RequireAdmin. Only valid on
// routes behind that middleware.
func callerClaims(c fiber.Ctx) *session.Claims {
	claims, _ := c.Locals(localsClaimsKey).(*session.Claims)
	return claims
}

// RequireAdmin verifies the caller's access token, requires the admin
// capability, and pins the token to the tenant in the route. The original
// module served these endpoints unauthenticated; that gap is closed here.
func RequireAdmin(sessions *session.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := accessToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := sessions.Verify(c.RequestCtx(), token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Token verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		if !claims.Admin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin capability required",
			})
		}

		tenantID, err := strconv.Atoi(c.Params("tenantID"))
		if err != nil || claims.TenantID != tenantID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Session not valid for this tenant",
			})
		}

		c.Locals(localsClaimsKey, claims)
		return c.Next()
	}
}
