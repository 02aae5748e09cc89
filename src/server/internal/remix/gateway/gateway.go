package remixgateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/gateway"
	"github.com/veedubyou/stem-remixer/src/server/internal/lib/request"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/errors"
	"github.com/veedubyou/stem-remixer/src/server/internal/remix/usecase"
)

type Gateway struct {
	usecase remixusecase.Usecase
}

func NewGateway(usecase remixusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateRemix(c echo.Context) error {
	ctx := request.Context(c)
	authHeader, apiErr := request.AuthHeader(c)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	body := remixusecase.CreateRemixRequest{}
	err := c.Bind(&body)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to remix request")
		apiErr := api.CommitError(err,
			remixerrors.BadRemixDataCode,
			"The remix request was malformed")
		return gateway.ErrorResponse(c, apiErr)
	}

	job, apiErr := g.usecase.CreateRemix(ctx, authHeader, body)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to create remix")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusCreated, job.View())
}

func (g Gateway) GetRemix(c echo.Context, jobID string) error {
	ctx := request.Context(c)

	job, apiErr := g.usecase.GetRemix(ctx, jobID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get remix")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, job.View())
}
