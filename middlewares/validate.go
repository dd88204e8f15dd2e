package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"order-assistant/utils"
)

var validate = utils.NewValidator()

// BindAndValidate parses the request body into dst, trims it and validates it.
// Returns fiber.ErrBadRequest for parse errors and a validator.ValidationErrors for validation issues.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizeDTO(dst)
	return validate.Struct(dst)
}

// QueryAndValidate is BindAndValidate for query-string parameters.
func QueryAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.QueryParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	utils.NormalizeDTO(dst)
	return validate.Struct(dst)
}
