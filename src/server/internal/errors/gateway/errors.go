package gateway

import (
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/stem-remixer/src/server/api_error"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/auth"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                  http.StatusInternalServerError,
	auth.NotGoogleAuthorizedCode:          http.StatusUnauthorized,
	auth.BadAuthorizationHeaderCode:       http.StatusBadRequest,
	remixerrors.InvalidRemixRequestCode:   http.StatusBadRequest,
	remixerrors.BadRemixDataCode:          http.StatusBadRequest,
	remixerrors.RemixNotFoundCode:         http.StatusNotFound,
	remixerrors.RemixQueueUnavailableCode: http.StatusServiceUnavailable,
	remixerrors.RemixRateLimitedCode:      http.StatusTooManyRequests,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	if statusCode >= http.StatusInternalServerError {
		log.WithError(err).
			WithField("code", err.ErrorCode).
			Error("Request failed")
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
