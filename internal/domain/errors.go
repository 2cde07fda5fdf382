package domain

// APIError is the problem-details body returned by the HTTP adapter
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages maps validator tags to user-facing messages
var ValidationMessages = map[string]string{
	"required":  "This field is required",
	"email":     "Must be a valid email address",
	"max":       "Exceeds maximum length",
	"min":       "Below minimum length",
	"gte":       "Must be greater than or equal to minimum value",
	"lte":       "Must be less than or equal to maximum value",
	"oneof":     "Must be one of the allowed values",
	"latitude":  "Must be a valid latitude",
	"longitude": "Must be a valid longitude",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Error types used in APIError.Type
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found"
	ErrorTypeBadRequest  = "bad_request"
	ErrorTypeConflict    = "conflict"
	ErrorTypeTooLarge    = "payload_too_large"
	ErrorTypeRateLimited = "rate_limited"
	ErrorTypeInternal    = "internal_error"
)
