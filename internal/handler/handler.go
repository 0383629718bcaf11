package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"retail-pos/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxJSONBodyBytes caps JSON request bodies.
const maxJSONBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to tell the client.
		return
	}
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInsufficientStock:
		return http.StatusBadRequest
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicate:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError translates err into the standard error body. Domain errors keep
// their message; anything else is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		writeInternalError(w, err, logger)
		return
	}
	writeDomainError(w, statusFor(de.Code), de, logger)
}

func writeDomainError(w http.ResponseWriter, status int, de *model.DomainError, logger zerolog.Logger) {
	logger.Debug().Str("code", de.Code).Int("status", status).Msg(de.Message)
	writeJSON(w, status, model.ErrorResponse{
		Success: false,
		Error:   de.Code,
		Message: de.Message,
		Details: de.Details,
	})
}

func writeInternalError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	logger.Error().Err(err).Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Success: false,
		Error:   model.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields,
// and runs struct validation. Failures come back as validation domain errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

// decodeLenientJSON is decodeJSON for payloads whose producers send extra
// display fields, such as POS cart lines.
func decodeLenientJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return model.NewValidationError("request body is required")
		case errors.As(err, &maxErr):
			return model.NewValidationError("request body too large")
		default:
			return model.NewValidationError("invalid request body: %v", err)
		}
	}

	if decoder.More() {
		return model.NewValidationError("request body must contain a single JSON object")
	}

	return validateStruct(dst)
}

// validateStruct runs the validate tags of dst.
func validateStruct(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return model.NewValidationError("request validation failed").
				WithDetails(formatValidationErrors(verrs))
		}
		return model.NewValidationError("request validation failed")
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return "is invalid"
	}
}
