package response

import (
	"github.com/gofiber/fiber/v2"
)

// The API speaks one envelope everywhere: {"success": bool, "message": ...}
// plus endpoint-specific fields. Clients branch on "success" and, for 500s,
// on the "code" field.

// ErrCodeDB tags 500 responses caused by database failures. Clients treat
// these as transient and run their retry ladder.
const ErrCodeDB = "DB_CONNECTION_ERROR"

// Success sends 200 with success:true, a message, and any extra fields merged in.
func Success(c *fiber.Ctx, message string, extra fiber.Map) error {
	return send(c, fiber.StatusOK, message, true, extra)
}

// SuccessCreated sends 201 with success:true.
func SuccessCreated(c *fiber.Ctx, message string, extra fiber.Map) error {
	return send(c, fiber.StatusCreated, message, true, extra)
}

// Error sends a failure envelope with the given status code.
func Error(c *fiber.Ctx, message string, statusCode int) error {
	return send(c, statusCode, message, false, nil)
}

// ErrorCoded sends a failure envelope carrying a machine-readable error code.
func ErrorCoded(c *fiber.Ctx, message string, statusCode int, code string) error {
	return send(c, statusCode, message, false, fiber.Map{"code": code})
}

// Unauthorized sends 401 in the same envelope. Use from auth middleware so
// all errors are consistent.
func Unauthorized(c *fiber.Ctx, message ...string) error {
	msg := "Unauthorized"
	if len(message) > 0 {
		msg = message[0]
	}
	return Error(c, msg, fiber.StatusUnauthorized)
}

func send(c *fiber.Ctx, status int, message string, success bool, extra fiber.Map) error {
	body := fiber.Map{
		"success": success,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
