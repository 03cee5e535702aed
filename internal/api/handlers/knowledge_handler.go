package handlers

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/knowledge"
	"github.com/softtechniques/softbot/internal/metrics"
	"github.com/softtechniques/softbot/pkg/logger"
)

// Embedder embeds search queries for the knowledge search endpoint.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type KnowledgeHandler struct {
	store    *knowledge.Store
	loader   *knowledge.Loader
	embedder Embedder
	topK     int
}

func NewKnowledgeHandler(store *knowledge.Store, loader *knowledge.Loader, embedder Embedder, topK int) *KnowledgeHandler {
	if topK <= 0 {
		topK = 5
	}
	return &KnowledgeHandler{
		store:    store,
		loader:   loader,
		embedder: embedder,
		topK:     topK,
	}
}

func (h *KnowledgeHandler) AddText(c *fiber.Ctx) error {
	var req struct {
		Text     string            `json:"text"`
		Source   string            `json:"source"`
		Metadata map[string]string `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if req.Source != "" {
		metadata["source"] = req.Source
	}
	if metadata["source"] == "" {
		metadata["source"] = "api_upload"
	}
	if metadata["type"] == "" {
		metadata["type"] = "company_document"
	}

	count, err := h.loader.AddText(c.Context(), req.Text, metadata)
	if err != nil {
		logger.Error("Failed to ingest text", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add document",
		})
	}

	metrics.KnowledgeChunks.Set(float64(h.store.Count()))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"chunks_added": count,
		"total_chunks": h.store.Count(),
	})
}

func (h *KnowledgeHandler) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	count, err := h.loader.AddFile(c.Context(), fileHeader.Filename, data)
	if err != nil {
		logger.Error("Failed to ingest file",
			zap.String("filename", fileHeader.Filename), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.KnowledgeChunks.Set(float64(h.store.Count()))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"filename":     fileHeader.Filename,
		"chunks_added": count,
		"total_chunks": h.store.Count(),
	})
}

func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	k := c.QueryInt("k", h.topK)

	embedding, err := h.embedder.GenerateEmbedding(c.Context(), query)
	if err != nil {
		logger.Error("Failed to embed search query", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search is temporarily unavailable",
		})
	}

	results := h.store.Search(embedding, k)
	return c.JSON(fiber.Map{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

func (h *KnowledgeHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.store.Status())
}

func (h *KnowledgeHandler) Initialize(c *fiber.Ctx) error {
	count, err := h.loader.Initialize(c.Context())
	if err != nil {
		logger.Error("Failed to initialize knowledge base", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to initialize knowledge base",
		})
	}

	metrics.KnowledgeChunks.Set(float64(h.store.Count()))

	return c.JSON(fiber.Map{
		"chunks_added": count,
		"total_chunks": h.store.Count(),
	})
}
