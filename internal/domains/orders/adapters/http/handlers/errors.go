package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	app "github.com/Apurer/pallet-labels/internal/domains/orders/application"
	"github.com/Apurer/pallet-labels/internal/domains/orders/domain"
	"github.com/Apurer/pallet-labels/internal/domains/orders/ports"
	"github.com/Apurer/pallet-labels/internal/platform/spreadsheet"
	apierrors "github.com/Apurer/pallet-labels/internal/shared/errors"
)

// orderErrorMapper turns order use case errors into problem details.
func orderErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrMissingActualCount):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()).WithExtension("field", "actualTotalPallets"), true
	case errors.Is(err, app.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, app.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func (api *OrderAPI) respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	api.responder.Respond(c, problem)
}

func (api *OrderAPI) respondError(c *gin.Context, err error) {
	if problem, ok := orderErrorMapper(err); !ok || problem.Status >= 500 {
		api.logger.ErrorContext(c.Request.Context(), "order request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err.Error())
	}
	api.responder.RespondError(c, err)
}
