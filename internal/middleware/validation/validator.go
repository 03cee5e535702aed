package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxMessageLength    int
	MaxUploadSize       int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces basic request hygiene before handlers run: content
// types on writes, a length cap on chat messages, and an upload size cap.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 4000
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{
			"application/json",
			"multipart/form-data",
			"application/x-www-form-urlencoded",
		}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !typeAllowed(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}

			if len(c.Body()) > cfg.MaxUploadSize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Request body too large",
				})
			}
		}

		if c.Method() == fiber.MethodPost && strings.HasSuffix(c.Path(), "/chat") {
			var req struct {
				Message string `json:"message"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON body",
				})
			}

			if strings.TrimSpace(req.Message) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Message is required",
				})
			}

			if len(req.Message) > cfg.MaxMessageLength {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Oversized chat message rejected",
						zap.String("ip", c.IP()),
						zap.Int("length", len(req.Message)),
					)
				}
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Message exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
