package controller

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/service"
)

type bidRoutes struct {
	bidService service.Bid
	validate   *validator.Validate
}

func newBidRoutes(tasks *echo.Group, bids *echo.Group, bidService service.Bid, validate *validator.Validate) {
	r := &bidRoutes{
		bidService: bidService,
		validate:   validate,
	}

	tasks.POST("/:taskId/bids", r.submit)
	tasks.GET("/:taskId/bids", r.listForTask)

	bids.GET("/my", r.getMy)
	bids.PUT("/:bidId/accept", r.accept)
	bids.PUT("/:bidId/reject", r.reject)
	bids.DELETE("/:bidId", r.withdraw)
}

type createBidInput struct {
	ProposedPrice float64 `json:"proposedPrice" validate:"required,gt=0"`
	Message       string  `json:"message" validate:"max=1000"`
}

func (r *bidRoutes) submit(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	var input createBidInput
	if err := c.Bind(&input); err != nil {
		return bindError(c)
	}
	if err := r.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	bid, err := r.bidService.SubmitBid(c.Request().Context(), &entity.CreateBidInput{
		TaskID:        taskID,
		ProposedPrice: input.ProposedPrice,
		Message:       input.Message,
	}, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, bid)
}

func (r *bidRoutes) listForTask(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	bids, err := r.bidService.ListBidsForTask(c.Request().Context(), taskID, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (r *bidRoutes) accept(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	bidID, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id is not a valid uuid"})
	}

	bid, err := r.bidService.AcceptBid(c.Request().Context(), bidID, caller)
	if err != nil {
		// A task no longer open here usually means a concurrent accept won.
		if errors.Is(err, service.ErrTaskNotOpen) {
			return c.JSON(http.StatusConflict, errorResponse{err.Error()})
		}

		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (r *bidRoutes) reject(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	bidID, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id is not a valid uuid"})
	}

	bid, err := r.bidService.RejectBid(c.Request().Context(), bidID, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (r *bidRoutes) withdraw(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	bidID, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id is not a valid uuid"})
	}

	bid, err := r.bidService.WithdrawBid(c.Request().Context(), bidID, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (r *bidRoutes) getMy(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	bids, err := r.bidService.GetMyBids(c.Request().Context(), caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}
