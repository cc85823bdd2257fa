package controller

import (
	"context"
	"errors"

	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/pkg/serverutils"
	"github.com/wildanku/hala-ai/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISyncController interface {
	RegisterRoutes(r fiber.Router, middleware ...fiber.Handler)
	Run(ctx *fiber.Ctx) error
	SyncKnowledgeReference(ctx *fiber.Ctx) error
	SyncJourneyTemplate(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type syncController struct {
	service service.ISyncService
}

func NewSyncController(service service.ISyncService) ISyncController {
	return &syncController{service: service}
}

func (c *syncController) RegisterRoutes(r fiber.Router, middleware ...fiber.Handler) {
	h := r.Group("/sync")
	for _, m := range middleware {
		h.Use(m)
	}
	h.Post("/run", c.Run)
	h.Post("/knowledge-reference/:id", c.SyncKnowledgeReference)
	h.Post("/journey-template/:id", c.SyncJourneyTemplate)
	h.Get("/stats", c.Stats)
}

func (c *syncController) Run(ctx *fiber.Ctx) error {
	var req dto.RunSyncRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	if req.Async {
		msg := dto.SyncMessage{Kind: service.SyncKindAll, FullSync: req.FullSync}
		if err := c.service.Enqueue(ctx.UserContext(), msg); err != nil {
			return syncError(err)
		}
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Sync queued",
			dto.SyncQueuedResponse{Queued: true, Kind: msg.Kind}))
	}

	stats, err := c.service.RunAll(ctx.UserContext(), req.FullSync)
	if err != nil {
		return syncError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Sync completed", stats))
}

func (c *syncController) SyncKnowledgeReference(ctx *fiber.Ctx) error {
	return c.syncOne(ctx, "Knowledge reference synced", c.service.SyncKnowledgeReference)
}

func (c *syncController) SyncJourneyTemplate(ctx *fiber.Ctx) error {
	return c.syncOne(ctx, "Journey template synced", c.service.SyncJourneyTemplate)
}

func (c *syncController) syncOne(ctx *fiber.Ctx, message string, fn func(context.Context, uuid.UUID) error) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	if err := fn(ctx.UserContext(), id); err != nil {
		return syncError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse(message, fiber.Map{"id": id}))
}

func (c *syncController) Stats(ctx *fiber.Ctx) error {
	stats, err := c.service.Stats(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sync stats", stats))
}

func syncError(err error) error {
	switch {
	case errors.Is(err, service.ErrCatalogNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Catalog item not found")
	case errors.Is(err, service.ErrSyncInProgress):
		return fiber.NewError(fiber.StatusConflict, "Sync already running")
	case errors.Is(err, service.ErrSyncQueueOff):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Sync queue not configured")
	default:
		return err
	}
}
