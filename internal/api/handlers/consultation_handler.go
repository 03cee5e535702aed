package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/metrics"
	"github.com/softtechniques/softbot/internal/scheduling"
	"github.com/softtechniques/softbot/pkg/logger"
)

type ConsultationHandler struct {
	scheduler *scheduling.Scheduler
}

func NewConsultationHandler(scheduler *scheduling.Scheduler) *ConsultationHandler {
	return &ConsultationHandler{scheduler: scheduler}
}

func (h *ConsultationHandler) AvailableSlots(c *fiber.Ctx) error {
	days := h.scheduler.AvailableSlots()
	return c.JSON(fiber.Map{
		"days": days,
	})
}

// Schedule accepts both the JSON widget payload and a plain HTML form
// post. JSON fields win when both are present.
func (h *ConsultationHandler) Schedule(c *fiber.Ctx) error {
	var req struct {
		Name          string `json:"name" form:"name"`
		Email         string `json:"email" form:"email"`
		Phone         string `json:"phone" form:"phone"`
		Company       string `json:"company" form:"company"`
		PreferredDate string `json:"preferred_date" form:"preferred_date"`
		PreferredTime string `json:"preferred_time" form:"preferred_time"`
		Message       string `json:"message" form:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and email are required",
		})
	}
	if req.PreferredDate == "" || req.PreferredTime == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Preferred date and time are required",
		})
	}

	scheduled, err := h.scheduler.Schedule(scheduling.Request{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Message:       req.Message,
		ClientIP:      c.IP(),
		UserAgent:     c.Get("User-Agent"),
	})

	if errors.Is(err, scheduling.ErrSlotTaken) {
		metrics.ConsultationConflicts.Inc()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":    false,
			"message":    "That slot is no longer available. Please pick another time.",
			"suggestion": suggestSlot(h.scheduler.AvailableSlots(), req.PreferredDate),
		})
	}
	if err != nil {
		logger.Error("Failed to schedule consultation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to schedule consultation",
		})
	}

	metrics.ConsultationsScheduled.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      scheduled.ID,
		"status":  scheduled.Status,
		"date":    scheduled.PreferredDate,
		"time":    scheduled.PreferredTime,
		"contact": "ask@softtechniques.com",
	})
}

// suggestSlot proposes the nearest open alternative, preferring the same
// day the user asked for.
func suggestSlot(days []scheduling.DaySlots, preferredDate string) string {
	for _, day := range days {
		if day.Date == preferredDate && len(day.Times) > 0 {
			return day.Date + " at " + day.Times[0]
		}
	}
	for _, day := range days {
		if len(day.Times) > 0 {
			return day.Date + " at " + day.Times[0]
		}
	}
	return ""
}

func (h *ConsultationHandler) List(c *fiber.Ctx) error {
	requests := h.scheduler.All()
	return c.JSON(fiber.Map{
		"consultations": requests,
		"count":         len(requests),
	})
}

func (h *ConsultationHandler) Get(c *fiber.Ctx) error {
	req, err := h.scheduler.Get(c.Params("id"))
	if errors.Is(err, scheduling.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Consultation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load consultation",
		})
	}
	return c.JSON(req)
}

func (h *ConsultationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status is required",
		})
	}

	updated, err := h.scheduler.UpdateStatus(c.Params("id"), req.Status)
	if errors.Is(err, scheduling.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Consultation not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(updated)
}

func (h *ConsultationHandler) Delete(c *fiber.Ctx) error {
	err := h.scheduler.Delete(c.Params("id"))
	if errors.Is(err, scheduling.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Consultation not found",
		})
	}
	if err != nil {
		logger.Error("Failed to delete consultation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete consultation",
		})
	}

	return c.JSON(fiber.Map{
		"status": "deleted",
	})
}
