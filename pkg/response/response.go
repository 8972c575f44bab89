package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "shoplink/pkg/errors"
)

// Envelope is the backend's JSON wire wrapper. The stub server encodes it
// and the REST adapter decodes it; both sides share these types so the
// contract cannot drift between them.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ErrorInfo      `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// FieldErrors parses the details payload as a list of {path, message}
// entries. A details payload of any other shape yields nil.
func (e *ErrorInfo) FieldErrors() []apperrors.FieldError {
	if e == nil || len(e.Details) == 0 {
		return nil
	}
	var fields []apperrors.FieldError
	if err := json.Unmarshal(e.Details, &fields); err != nil {
		return nil
	}
	return fields
}

func Success(c echo.Context, data interface{}) error {
	return write(c, http.StatusOK, data)
}

func Created(c echo.Context, data interface{}) error {
	return write(c, http.StatusCreated, data)
}

func Paginated(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return write(c, http.StatusOK, PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func write(c echo.Context, status int, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.JSON(status, Envelope{
		Success:   true,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if stderrors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		var details json.RawMessage
		if len(appErr.Fields) > 0 {
			details, _ = json.Marshal(appErr.Fields)
		}
		return c.JSON(appErr.Status, Envelope{
			Success:   false,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error: &ErrorInfo{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: details,
			},
		})
	}

	return c.JSON(http.StatusInternalServerError, Envelope{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error: &ErrorInfo{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		},
	})
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	var fields []apperrors.FieldError
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())

		var message string
		switch err.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + err.Param()
		case "max":
			message = field + " must be at most " + err.Param()
		case "oneof":
			message = field + " must be one of: " + err.Param()
		default:
			message = field + " is invalid"
		}

		fields = append(fields, apperrors.FieldError{Path: field, Message: message})
	}

	details, _ := json.Marshal(fields)
	return c.JSON(http.StatusBadRequest, Envelope{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error: &ErrorInfo{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid input data",
			Details: details,
		},
	})
}
