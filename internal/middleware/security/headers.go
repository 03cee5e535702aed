package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type HeadersConfig struct {
	AllowedOrigins []string
	IsDevelopment  bool
}

// HeadersMiddleware sets the standard browser hardening headers. The CSP
// is permissive enough for the embedded chat widget but blocks framing.
func HeadersMiddleware(cfg HeadersConfig) fiber.Handler {
	connectSrc := strings.Join(cfg.AllowedOrigins, " ")

	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if !cfg.IsDevelopment {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self' " + connectSrc + "; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'"
		c.Set("Content-Security-Policy", csp)

		return c.Next()
	}
}
