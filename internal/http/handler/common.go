package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/http/middleware"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("activitytype", func(fl validator.FieldLevel) bool {
		return domain.ActivityType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return domain.TagColor(fl.Field().String()).IsValid()
	})
	return v
}

// maxJSONBody bounds request bodies that are not file uploads
const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errs[fieldName] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "activitytype":
		return "Must be a known activity type"
	case "tagcolor":
		return "Must be a palette colour"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusRequestEntityTooLarge:
		return domain.ErrorTypeTooLarge
	default:
		return domain.ErrorTypeInternal
	}
}

// decodeBody reads a JSON request body into dst and validates it. On
// failure the error response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if errors.Is(err, io.EOF) {
		err = errEmptyBody
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// intParam parses a numeric path parameter. On failure a 400 has already
// been written.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %q", name, raw))
		return 0, false
	}
	return id, true
}

// actor returns the acting user resolved by middleware.ActingUser
func actor(r *http.Request) domain.UserID {
	if id, ok := middleware.ActorFromContext(r.Context()); ok {
		return id
	}
	return domain.LegacyAuthorID
}

func respondNotFound(w http.ResponseWriter, what string) {
	respondWithError(w, http.StatusNotFound, what+" not found")
}
