package controller

import (
	"errors"
	"strconv"

	"habitloop_backend/internal/service"
	"habitloop_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 成就列表
// @Description 成就目录及当前用户的状态，隐藏成就仅在解锁后出现
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	views, err := c.AchievementService.ListWithStatus(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, views)
}

// @Summary 已解锁成就
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/mine [get]
func (c *AchievementController) GetMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	awards, err := c.AchievementService.ListAwards(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, awards)
}

// @Summary 成就进度
// @Description 返回三态之一：COMPLETED / IN_PROGRESS / NOT_STARTED
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Param achievementId path int true "成就ID"
// @Success 200 {object} util.Response
// @Router /api/achievements/{achievementId}/progress [get]
func (c *AchievementController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievementID, err := strconv.Atoi(ctx.Param("achievementId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid achievement ID")
		return
	}

	view, err := c.AchievementService.GetProgress(ctx.Request.Context(), user.UserID, uint(achievementID))
	if err != nil {
		if errors.Is(err, util.ErrAchievementNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

type AddProgressRequest struct {
	Amount int64 `json:"amount" binding:"min=0"`
}

// @Summary 上报进度
// @Description 为当前用户累计一次进度增量，越过阈值时同步颁发
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param achievementId path int true "成就ID"
// @Param body body AddProgressRequest true "进度增量"
// @Success 200 {object} util.Response
// @Router /api/achievements/{achievementId}/progress [post]
func (c *AchievementController) AddProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievementID, err := strconv.Atoi(ctx.Param("achievementId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid achievement ID")
		return
	}

	var req AddProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AchievementService.AddProgress(ctx.Request.Context(), user.UserID, uint(achievementID), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAchievementNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidProgressInput):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// @Summary 批量上报进度
// @Description 逐条应用，单条失败不影响其余条目
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param updates body []service.BulkProgressUpdate true "进度增量列表"
// @Success 200 {object} util.Response
// @Router /api/achievements/progress/bulk [post]
func (c *AchievementController) AddProgressBulk(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var updates []service.BulkProgressUpdate
	if err := ctx.ShouldBindJSON(&updates); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result := c.AchievementService.AddProgressBulk(ctx.Request.Context(), user.UserID, updates)
	util.Success(ctx, result)
}

type DirectAwardRequest struct {
	Metadata string `json:"metadata"`
}

// @Summary 直接颁发成就
// @Description 管理端接口，用于外部判定逻辑直接颁发
// @Tags 成就系统
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param achievementId path int true "成就ID"
// @Param userId path int true "用户ID"
// @Param body body DirectAwardRequest false "附加信息"
// @Success 200 {object} util.Response
// @Router /api/admin/achievements/{achievementId}/award/{userId} [post]
func (c *AchievementController) DirectAward(ctx *gin.Context) {
	achievementID, err := strconv.Atoi(ctx.Param("achievementId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid achievement ID")
		return
	}

	userID, err := strconv.Atoi(ctx.Param("userId"))
	if err != nil {
		util.BadRequest(ctx, "Invalid user ID")
		return
	}

	var req DirectAwardRequest
	_ = ctx.ShouldBindJSON(&req)

	var opts *service.AwardOptions
	if req.Metadata != "" {
		opts = &service.AwardOptions{Metadata: req.Metadata}
	}

	result, err := c.AchievementService.Award(ctx.Request.Context(), uint(userID), uint(achievementID), opts)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAchievementNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidProgressInput):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
