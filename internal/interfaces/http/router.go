package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Service         *stock.Service
	Query           *stock.QueryService
	Logger          *logger.Logger
	DefaultUserID   string
	DefaultUserName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", ActorMiddleware(deps.DefaultUserID, deps.DefaultUserName))
	h := NewStockHandler(deps.Service, deps.Query, deps.Logger)

	items := api.Group("/items")
	items.Post("/", h.Create)
	items.Get("/", h.List)
	items.Get("/:id", h.GetByID)
	items.Put("/:id", h.Update)
	items.Delete("/:id", h.Delete)
	items.Get("/:id/movements", h.Movements)

	damaged := api.Group("/damaged")
	damaged.Get("/", h.ListDamaged)
	damaged.Put("/:id", h.UpdateDamaged)
	damaged.Delete("/:id", h.DeleteDamaged)
}
