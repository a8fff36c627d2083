package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/service"
)

const (
	defaultPage = 0
	defaultSize = 20
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// respondServiceError maps service sentinels onto HTTP codes: not found
// 404, authorization 403, invalid state 400, lost accept race 409,
// duplicate bid 409, bid cap 429.
func respondServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrBidNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{err.Error()})

	case errors.Is(err, service.ErrCustomerRoleRequired),
		errors.Is(err, service.ErrWorkerRoleRequired),
		errors.Is(err, service.ErrAdminRoleRequired),
		errors.Is(err, service.ErrTaskAccessDenied),
		errors.Is(err, service.ErrBidAccessDenied),
		errors.Is(err, service.ErrOwnTaskBid):
		return c.JSON(http.StatusForbidden, errorResponse{err.Error()})

	case errors.Is(err, service.ErrDuplicateBid):
		return c.JSON(http.StatusConflict, errorResponse{err.Error()})

	case errors.Is(err, service.ErrBidLimitReached):
		return c.JSON(http.StatusTooManyRequests, errorResponse{err.Error()})

	case errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTaskNotEditable),
		errors.Is(err, service.ErrTaskNotCancellable),
		errors.Is(err, service.ErrTaskNotOpen),
		errors.Is(err, service.ErrBidNotPending),
		errors.Is(err, service.ErrFixedPricingTask),
		errors.Is(err, service.ErrDirectClaimOnBiddingTask):
		return c.JSON(http.StatusBadRequest, errorResponse{err.Error()})
	}

	return c.JSON(http.StatusInternalServerError, errorResponse{"internal error"})
}

func bindError(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"})
}

func getAllErrorMessages(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "incorrect value passed"
	}

	var builder strings.Builder
	for _, fe := range validationErrs {
		builder.WriteString(fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe)))
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "oneof":
		return "should have value in: " + fe.Param()
	case "dive":
		return "contains an incorrect element"
	}

	return "incorrect value passed"
}
