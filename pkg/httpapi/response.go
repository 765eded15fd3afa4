package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
)

// envelope is the standard `{success, data}` / `{success, error}` shape
// every route in this package responds with (spec §6).
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *apiErr `json:"error,omitempty"`
}

type apiErr struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// fail translates err into the right HTTP status and the error
// envelope, per spec §7's taxonomy-to-status mapping.
func fail(c echo.Context, err error) error {
	status, code, message, details := classify(err)
	return c.JSON(status, envelope{Success: false, Error: &apiErr{Code: code, Message: message, Details: details}})
}

func classify(err error) (status int, code string, message string, details map[string]any) {
	var apiError *apierr.Error
	if !errors.As(err, &apiError) {
		return http.StatusInternalServerError, string(apierr.KindInternal), err.Error(), nil
	}

	message = apiError.Message
	details = apiError.Details

	switch apiError.Kind {
	case apierr.KindValidation:
		return http.StatusBadRequest, string(apiError.Kind), message, details
	case apierr.KindNotFound:
		return http.StatusNotFound, string(apiError.Kind), message, details
	case apierr.KindConflict:
		return http.StatusConflict, string(apiError.Kind), message, details
	case apierr.KindUnauthorized:
		return http.StatusUnauthorized, string(apiError.Kind), message, details
	case apierr.KindForbidden:
		return http.StatusForbidden, string(apiError.Kind), message, details
	case apierr.KindServiceUnavailable:
		return http.StatusServiceUnavailable, string(apiError.Kind), message, details
	case apierr.KindGenerationFailed:
		return http.StatusInternalServerError, string(apiError.Kind), message, details
	case apierr.KindExtractionFailed:
		// never surfaced as a transport failure on its own; a caller
		// that reaches fail() with this kind treats it as internal.
		return http.StatusInternalServerError, string(apiError.Kind), message, details
	default:
		return http.StatusInternalServerError, string(apierr.KindInternal), message, details
	}
}

