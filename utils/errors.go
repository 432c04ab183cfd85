package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// CreateError stops the request with the conventional {message, error} body.
func CreateError(statusCode int, code string, message string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{"message": message, "error": code})
}

func CreateNotFound(ctx iris.Context, message string) {
	CreateError(iris.StatusNotFound, "not_found", message, ctx)
}

func CreateForbidden(ctx iris.Context, message string) {
	CreateError(iris.StatusForbidden, "forbidden", message, ctx)
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "server_error", "An unexpected error occurred", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusConflict, "registration_error", "Email already registered.", ctx)
}

// HandleValidationErrors maps ReadJSON/validator failures to a 400. Anything
// that is not a field-level validation error is a malformed body.
func HandleValidationErrors(err error, ctx iris.Context) {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		fields := make([]string, 0, len(errs))
		for _, fieldErr := range errs {
			fields = append(fields, fieldErr.Field())
		}
		CreateError(iris.StatusBadRequest, "validation_error",
			"Invalid or missing fields: "+strings.Join(fields, ", "), ctx)
		return
	}
	CreateError(iris.StatusBadRequest, "invalid_payload", "Malformed request body", ctx)
}
