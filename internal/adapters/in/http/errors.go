package http

import (
	"errors"
	"log/slog"
	"net/http"

	"lastmile/internal/pkg/auth"
	"lastmile/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

// apiError is an already classified failure.
type apiError struct {
	status int
	body   errorBody
}

func (e *apiError) Error() string {
	return e.body.Code + ": " + e.body.Message
}

func bodyFor(err error) errorBody {
	d := errs.Describe(err)
	return errorBody{Code: string(d.Code), Message: d.Message, Entity: d.Entity, ID: d.ID, Rule: d.Rule}
}

func statusFor(code errs.Code) int {
	switch code {
	case errs.CodeNotFound, errs.CodeTokenNotFound:
		return http.StatusNotFound
	case errs.CodeValidation:
		return http.StatusBadRequest
	case errs.CodeInvalidTransition, errs.CodeAlreadyFinalized, errs.CodeTokenAlreadyConsumed:
		return http.StatusConflict
	case errs.CodeTokenExpired:
		return http.StatusGone
	case errs.CodeNotPermitted:
		return http.StatusForbidden
	case errs.CodeTransientStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// classify maps any handler error to a status and structured body.
func classify(err error) (int, errorBody) {
	var (
		api     *apiError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &api):
		return api.status, api.body
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Code: "unauthenticated", Message: "a valid bearer token is required",
			Rule: "bearer"}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return httpErr.Code, errorBody{Code: "http_error", Message: msg}
	}
	body := bodyFor(err)
	return statusFor(errs.Code(body.Code)), body
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", "error", err)
		}
	}
}
