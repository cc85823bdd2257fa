package controller

import (
	"github.com/wildanku/hala-ai/internal/dto"
	"github.com/wildanku/hala-ai/internal/pkg/serverutils"
	"github.com/wildanku/hala-ai/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IJourneyController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Validate(ctx *fiber.Ctx) error
}

type journeyController struct {
	service service.IJourneyService
}

func NewJourneyController(service service.IJourneyService) IJourneyController {
	return &journeyController{service: service}
}

func (c *journeyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/journey")
	h.Post("/generate", c.Generate)
	h.Post("/validate", c.Validate)
}

// Generate answers with the pipeline envelope as is; its status follows the
// error code of the stage that stopped the run.
func (c *journeyController) Generate(ctx *fiber.Ctx) error {
	var req dto.JourneyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	resp := c.service.Generate(ctx.UserContext(), &req)
	return ctx.Status(resp.HTTPStatus()).JSON(resp)
}

func (c *journeyController) Validate(ctx *fiber.Ctx) error {
	var req dto.JourneyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Validate(ctx.UserContext(), &req, ctx.QueryBool("fast", false))
	return ctx.JSON(serverutils.SuccessResponse("Validation finished", res))
}
