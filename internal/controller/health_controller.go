package controller

import (
	"github.com/wildanku/hala-ai/internal/pkg/serverutils"
	"github.com/wildanku/hala-ai/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Detailed(ctx *fiber.Ctx) error
	Providers(ctx *fiber.Ctx) error
}

type healthController struct {
	service service.IHealthService
}

func NewHealthController(service service.IHealthService) IHealthController {
	return &healthController{service: service}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health")
	h.Get("", c.Health)
	h.Get("/detailed", c.Detailed)
	h.Get("/providers", c.Providers)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Health())
}

func (c *healthController) Detailed(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get service health", c.service.Detailed(ctx.UserContext())))
}

func (c *healthController) Providers(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get provider health", c.service.Providers(ctx.UserContext())))
}
