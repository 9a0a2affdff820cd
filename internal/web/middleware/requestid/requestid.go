// Package requestid tags every request with a unique ID for log correlation.
package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the header the ID is read from and echoed back on.
const HeaderName = "X-Request-ID"

// LocalsKey is the fiber.Ctx locals key the ID is stored under.
const LocalsKey = "request_id"

// New creates the request ID middleware. An incoming X-Request-ID is kept so
// IDs survive proxy hops; otherwise a fresh UUID is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(LocalsKey, id)
		c.Set(HeaderName, id)

		return c.Next()
	}
}
