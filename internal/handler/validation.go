package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	}
}

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

// ValidationErrorResponse is the 422 payload returned for rejected input.
type ValidationErrorResponse struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields"`
}

func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
	}
	respondValidation(c, fields)
}

func respondValidation(c *gin.Context, fields FieldErrors) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "The given data was invalid.",
		Fields: fields,
	})
}

func validationMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "uuid":
		return fmt.Sprintf("The %s must be a valid UUID.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
