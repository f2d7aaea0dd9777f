package http

import (
	"context"
	"net/http"
	"strconv"

	"golang-backtest/config"
	"golang-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

const defaultJobRunsLimit = 20

type jobsResponse struct {
	Jobs []config.SchedulerJob `json:"jobs"`
	Runs []dto.JobRunResponse  `json:"runs"`
}

func (h *HttpAPIHandler) SetupJobs(base *echo.Group) {
	jobGroup := base.Group("/jobs")
	{
		jobGroup.GET("", h.getJobs)
		jobGroup.POST("/:name/run", h.runJob)
	}
}

func (h *HttpAPIHandler) getJobs(c echo.Context) error {
	ctx := c.Request().Context()

	limit := defaultJobRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			resp := dto.NewBadRequestResponse("limit must be a positive integer")
			return c.JSON(resp.Code, resp)
		}
		limit = v
	}

	runs, err := h.service.SchedulerService.GetRecentRuns(ctx, c.QueryParam("name"), limit)
	if err != nil {
		resp := errorResponse(err)
		return c.JSON(resp.Code, resp)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Jobs", jobsResponse{
		Jobs: h.service.SchedulerService.Jobs(),
		Runs: dto.NewJobRunResponses(runs),
	}))
}

func (h *HttpAPIHandler) runJob(c echo.Context) error {
	name := c.Param("name")
	known := false
	for _, j := range h.service.SchedulerService.Jobs() {
		if j.Name == name {
			known = true
			break
		}
	}
	if !known {
		resp := dto.NewBaseResponse(http.StatusNotFound, "unknown job "+name, nil)
		return c.JSON(resp.Code, resp)
	}

	return h.runAsync(c, "job "+name, func(ctx context.Context) error {
		return h.service.SchedulerService.RunJob(ctx, name)
	})
}
