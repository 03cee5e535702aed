package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/insights"
	"github.com/softtechniques/softbot/internal/scheduling"
	"github.com/softtechniques/softbot/internal/storage/sqlite"
	"github.com/softtechniques/softbot/pkg/logger"
)

type AdminHandler struct {
	audit     *scheduling.AuditLog
	analyzer  *insights.Analyzer
	analytics *sqlite.Client
}

func NewAdminHandler(audit *scheduling.AuditLog, analyzer *insights.Analyzer, analytics *sqlite.Client) *AdminHandler {
	return &AdminHandler{
		audit:     audit,
		analyzer:  analyzer,
		analytics: analytics,
	}
}

func (h *AdminHandler) RecentLogs(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 24)
	entries := h.audit.RecentLogs(hours)
	return c.JSON(fiber.Map{
		"logs":  entries,
		"count": len(entries),
		"hours": hours,
	})
}

func (h *AdminHandler) LogsByStatus(c *fiber.Ctx) error {
	entries := h.audit.ByStatus(c.Params("status"))
	return c.JSON(fiber.Map{
		"logs":  entries,
		"count": len(entries),
	})
}

func (h *AdminHandler) LogsByDateRange(c *fiber.Ctx) error {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameters start and end are required (YYYY-MM-DD)",
		})
	}

	entries := h.audit.ByDateRange(start, end)
	return c.JSON(fiber.Map{
		"logs":  entries,
		"count": len(entries),
		"start": start,
		"end":   end,
	})
}

func (h *AdminHandler) ClearLogs(c *fiber.Ctx) error {
	removed, err := h.audit.ClearLogs()
	if err != nil {
		logger.Error("Failed to clear audit log", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear logs",
		})
	}

	return c.JSON(fiber.Map{
		"removed": removed,
	})
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.audit.Stats())
}

func (h *AdminHandler) ListTeam(c *fiber.Ctx) error {
	team := h.audit.Team()
	return c.JSON(fiber.Map{
		"team":  team,
		"count": len(team),
	})
}

func (h *AdminHandler) AddTeamMember(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
		Phone string `json:"phone"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.audit.AddTeamMember(scheduling.TeamMember{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
		Phone: req.Phone,
	}); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "added",
	})
}

func (h *AdminHandler) RemoveTeamMember(c *fiber.Ctx) error {
	if err := h.audit.RemoveTeamMember(c.Params("email")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "removed",
	})
}

// AnalyticsStats merges the SQLite aggregates with the analyzer's own
// processing counters.
func (h *AdminHandler) AnalyticsStats(c *fiber.Ctx) error {
	stats, err := h.analytics.Stats(c.Context())
	if err != nil {
		logger.Error("Failed to load analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	return c.JSON(fiber.Map{
		"interactions": stats,
		"processing":   h.analyzer.Stats(),
	})
}
