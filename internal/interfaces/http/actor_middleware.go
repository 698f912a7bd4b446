package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
)

// Cabeceras con el usuario que actúa; la autenticación queda fuera de este servicio.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// Locals key para el actor en Fiber.
const LocalActor = "actor"

// ActorMiddleware carga en c.Locals el actor de las cabeceras, con los valores por defecto
// de la configuración cuando faltan.
func ActorMiddleware(defaultID, defaultName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := stock.Actor{
			ID:   strings.TrimSpace(c.Get(HeaderUserID)),
			Name: strings.TrimSpace(c.Get(HeaderUserName)),
		}
		if actor.ID == "" {
			actor.ID = defaultID
		}
		if actor.Name == "" {
			actor.Name = defaultName
		}
		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// GetActor devuelve el actor del contexto (después de ActorMiddleware).
func GetActor(c *fiber.Ctx) stock.Actor {
	a, _ := c.Locals(LocalActor).(stock.Actor)
	return a
}
