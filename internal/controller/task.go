package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/service"
)

type taskRoutes struct {
	taskService   service.Task
	searchService service.Search
	validate      *validator.Validate
}

func newTaskRoutes(g *echo.Group, taskService service.Task, searchService service.Search, validate *validator.Validate) {
	r := &taskRoutes{
		taskService:   taskService,
		searchService: searchService,
		validate:      validate,
	}

	g.POST("", r.create)
	g.GET("", r.search)
	g.GET("/my", r.getMy)
	g.GET("/:taskId", r.getByID)
	g.GET("/:taskId/status", r.getStatus)
	g.PUT("/:taskId", r.update)
	g.PUT("/:taskId/status", r.transition)
	g.PUT("/:taskId/force-status", r.forceTransition)
	g.DELETE("/:taskId", r.cancel)
}

type createTaskInput struct {
	Title        string     `json:"title" validate:"required,min=5,max=200"`
	Description  string     `json:"description" validate:"required,min=10,max=5000"`
	Domain       string     `json:"domain" validate:"required,oneof=PLUMBING ELECTRICIAN CARPENTRY CLEANING PAINTING DELIVERY APPLIANCE_REPAIR OTHER"`
	PricingModel string     `json:"pricingModel" validate:"required,oneof=FIXED BIDDING"`
	Budget       float64    `json:"budget" validate:"required,gt=0"`
	Latitude     float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Address      string     `json:"address" validate:"required,max=500"`
	Images       []string   `json:"images" validate:"max=10,dive,max=2000"`
	ScheduledAt  *time.Time `json:"scheduledAt"`
}

func (r *taskRoutes) create(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	var input createTaskInput
	if err := c.Bind(&input); err != nil {
		return bindError(c)
	}
	if err := r.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	task, err := r.taskService.CreateTask(c.Request().Context(), &entity.CreateTaskInput{
		Title:        input.Title,
		Description:  input.Description,
		Domain:       common.TaskDomain(input.Domain),
		PricingModel: common.PricingModel(input.PricingModel),
		Budget:       input.Budget,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Address:      input.Address,
		Images:       input.Images,
		ScheduledAt:  input.ScheduledAt,
	}, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, task)
}

func (r *taskRoutes) getByID(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	task, err := r.taskService.GetTaskByID(c.Request().Context(), taskID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

type taskStatusOutput struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

func (r *taskRoutes) getStatus(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	status, err := r.taskService.GetTaskStatus(c.Request().Context(), taskID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, taskStatusOutput{TaskID: taskID.String(), Status: string(status)})
}

type updateTaskInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=5,max=200"`
	Description *string    `json:"description" validate:"omitempty,min=10,max=5000"`
	Budget      *float64   `json:"budget" validate:"omitempty,gt=0"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
	Images      []string   `json:"images" validate:"omitempty,max=10,dive,max=2000"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

func (r *taskRoutes) update(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	var input updateTaskInput
	if err := c.Bind(&input); err != nil {
		return bindError(c)
	}
	if err := r.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	task, err := r.taskService.UpdateTask(c.Request().Context(), taskID, &entity.UpdateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Budget:      input.Budget,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     input.Address,
		Images:      input.Images,
		ScheduledAt: input.ScheduledAt,
	}, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

type transitionInput struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

func (r *taskRoutes) transition(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	var input transitionInput
	if err := c.Bind(&input); err != nil {
		return bindError(c)
	}
	if err := r.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	task, err := r.taskService.Transition(c.Request().Context(), taskID,
		common.TaskStatus(input.Status), caller, input.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

func (r *taskRoutes) forceTransition(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	var input transitionInput
	if err := c.Bind(&input); err != nil {
		return bindError(c)
	}
	if err := r.validate.Struct(input); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)})
	}

	task, err := r.taskService.ForceTransition(c.Request().Context(), taskID,
		common.TaskStatus(input.Status), caller, input.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

func (r *taskRoutes) cancel(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id is not a valid uuid"})
	}

	reason := c.QueryParam("reason")
	if reason == "" {
		reason = "Cancelled by user"
	}

	task, err := r.taskService.Cancel(c.Request().Context(), taskID, reason, caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, task)
}

// search serves both paths: with lat+lng it is the geo radius search,
// otherwise the filtered paged listing.
func (r *taskRoutes) search(c echo.Context) error {
	if c.QueryParam("lat") != "" || c.QueryParam("lng") != "" {
		return r.searchNearby(c)
	}

	filter := &entity.TaskFilter{}
	if raw := c.QueryParam("status"); raw != "" {
		status := common.TaskStatus(raw)
		if !status.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{"Unknown status filter"})
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("domain"); raw != "" {
		domain := common.TaskDomain(raw)
		filter.Domain = &domain
	}
	if raw := c.QueryParam("pricingModel"); raw != "" {
		model := common.PricingModel(raw)
		filter.PricingModel = &model
	}

	sortInput := &entity.SortInput{
		Field:      c.QueryParam("sortBy"),
		Descending: c.QueryParam("sortDir") == "desc",
	}
	if sortInput.Field == "" {
		sortInput.Field = "createdAt"
		sortInput.Descending = true
	}

	tasks, err := r.searchService.Search(c.Request().Context(), filter, sortInput, paginationFromQuery(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, tasks)
}

func (r *taskRoutes) searchNearby(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Query parameter 'lat' must be a latitude"})
	}

	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Query parameter 'lng' must be a longitude"})
	}

	var radius float64
	if raw := c.QueryParam("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil || radius < 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{"Query parameter 'radius' must be a non-negative number"})
		}
	}

	q := &entity.GeoQuery{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := common.TaskStatus(raw)
		if !status.Valid() {
			return c.JSON(http.StatusBadRequest, errorResponse{"Unknown status filter"})
		}
		q.Status = status
	}
	if raw := c.QueryParam("domain"); raw != "" {
		domain := common.TaskDomain(raw)
		q.Domain = &domain
	}

	tasks, err := r.searchService.Nearby(c.Request().Context(), q)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, tasks)
}

func (r *taskRoutes) getMy(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	tasks, err := r.taskService.GetMyTasks(c.Request().Context(), caller, paginationFromQuery(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, tasks)
}

func paginationFromQuery(c echo.Context) *entity.PaginationInput {
	page := defaultPage
	if raw := c.QueryParam("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			page = parsed
		}
	}

	size := defaultSize
	if raw := c.QueryParam("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			size = parsed
		}
	}

	return entity.NewPaginationInput(size, page*size)
}
