package controller

import (
	"errors"
	"strconv"

	"habitloop_backend/internal/service"
	"habitloop_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HabitController struct {
	HabitService *service.HabitService
}

func NewHabitController(habitService *service.HabitService) *HabitController {
	return &HabitController{HabitService: habitService}
}

// @Summary 创建习惯
// @Tags 习惯
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param habit body service.HabitRequest true "习惯信息"
// @Success 201 {object} util.Response
// @Router /api/habits [post]
func (c *HabitController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.HabitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	habit, err := c.HabitService.Create(user.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, habit)
}

// @Summary 习惯列表
// @Tags 习惯
// @Produce json
// @Security BearerAuth
// @Param archived query bool false "包含已归档" default(false)
// @Success 200 {object} util.Response
// @Router /api/habits [get]
func (c *HabitController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	includeArchived := ctx.Query("archived") == "true"

	habits, err := c.HabitService.List(user.UserID, includeArchived)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, habits)
}

// @Summary 习惯详情
// @Tags 习惯
// @Produce json
// @Security BearerAuth
// @Param habitId path int true "习惯ID"
// @Success 200 {object} util.Response
// @Router /api/habits/{habitId} [get]
func (c *HabitController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	habitID, err := strconv.Atoi(ctx.Param("habitId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid habit ID")
		return
	}

	habit, err := c.HabitService.Get(user.UserID, uint(habitID))
	if err != nil {
		if errors.Is(err, util.ErrHabitNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, habit)
}

// @Summary 更新习惯
// @Tags 习惯
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param habitId path int true "习惯ID"
// @Param habit body service.HabitRequest true "习惯信息"
// @Success 200 {object} util.Response
// @Router /api/habits/{habitId} [put]
func (c *HabitController) Update(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	habitID, err := strconv.Atoi(ctx.Param("habitId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid habit ID")
		return
	}

	var req service.HabitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	habit, err := c.HabitService.Update(user.UserID, uint(habitID), req)
	if err != nil {
		if errors.Is(err, util.ErrHabitNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, habit)
}

// @Summary 归档习惯
// @Tags 习惯
// @Produce json
// @Security BearerAuth
// @Param habitId path int true "习惯ID"
// @Success 200 {object} util.Response
// @Router /api/habits/{habitId} [delete]
func (c *HabitController) Archive(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	habitID, err := strconv.Atoi(ctx.Param("habitId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid habit ID")
		return
	}

	if err := c.HabitService.Archive(user.UserID, uint(habitID)); err != nil {
		if errors.Is(err, util.ErrHabitNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Habit archived"})
}

type CompleteRequest struct {
	Note string `json:"note"`
}

// @Summary 打卡
// @Description 完成今日打卡，并更新相关成就进度
// @Tags 习惯
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param habitId path int true "习惯ID"
// @Param body body CompleteRequest false "备注"
// @Success 200 {object} util.Response
// @Router /api/habits/{habitId}/complete [post]
func (c *HabitController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	habitID, err := strconv.Atoi(ctx.Param("habitId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid habit ID")
		return
	}

	var req CompleteRequest
	_ = ctx.ShouldBindJSON(&req)

	result, err := c.HabitService.Complete(ctx.Request.Context(), user.UserID, uint(habitID), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrHabitNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyCheckedIn), errors.Is(err, util.ErrHabitArchived):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
