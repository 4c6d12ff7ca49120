package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse is the JSON envelope for validation error responses.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success answers 200 with data.
func Success(c *gin.Context, data any) {
	send(c, http.StatusOK, "success", data)
}

// Created answers 201 with the new row.
func Created(c *gin.Context, data any) {
	send(c, http.StatusCreated, "success", data)
}

// List answers 200 with a *domain.PageResult.
func List(c *gin.Context, result any) {
	send(c, http.StatusOK, "success", result)
}

// Error answers with the status mapped from err. Only an *domain.AppError
// message reaches the client.
func Error(c *gin.Context, err error) {
	msg := "internal error"
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	send(c, domain.HTTPStatusCode(err), msg, nil)
}

func send(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Response{Code: status, Message: msg, Data: data})
}

// ValidationError answers 400 with one message per failing field, keyed by
// the lowercased Go field name.
func ValidationError(c *gin.Context, err error) {
	rejectInput(c, err, nil)
}

// BindAndValidate binds the request into obj. On failure it has already
// answered 400, keyed by obj's json tags, and returns false.
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		rejectInput(c, err, obj)
		return false
	}
	return true
}

func rejectInput(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		// Decoder errors are not user-facing.
		send(c, http.StatusBadRequest, "bad request", nil)
		return
	}

	names := jsonNames(obj)
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := names[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fields[name] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fields,
	})
}

// fieldMessage renders a validator failure as a user-facing sentence.
func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min", "gte":
		if isString {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max", "lte":
		if isString {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gtefield":
		return "Must not be less than " + strings.ToLower(fe.Param())
	case "alphanum":
		return "Must contain only letters and digits"
	case "dive":
		return "Contains an invalid value"
	}
	msg := fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return msg
}

// jsonNames maps obj's struct fields to their json names. Fields without
// a usable tag are left out.
func jsonNames(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	names := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names[f.Name] = name
		}
	}
	return names
}
