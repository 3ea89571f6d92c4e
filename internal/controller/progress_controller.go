package controller

import (
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progress *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progress}
}

// MyProgress godoc
// @Summary 我的学习进度
// @Description 按课件包汇总当前用户的 attempt：最近一次、累计次数、最高分与完成状态
// @Tags 进度
// @Produce json
// @Success 200 {object} util.Response{data=service.ProgressSummary} "成功"
// @Router /api/scorm/progress [get]
func (c *ProgressController) MyProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	summary, err := c.ProgressService.Summarize(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// AttemptDetail godoc
// @Summary attempt 详情
// @Description 返回单次 attempt 的 CMI 数据、交互与目标记录
// @Tags 进度
// @Produce json
// @Param   id path int true "attempt ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/scorm/attempts/{id} [get]
func (c *ProgressController) AttemptDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	attempt, err := c.ProgressService.AttemptRepo.FindByIDAndUser(id, claims.UserID)
	if err != nil {
		util.NotFound(ctx, "attempt not found")
		return
	}

	interactions, err := c.ProgressService.AttemptRepo.GetInteractions(attempt.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	objectives, err := c.ProgressService.AttemptRepo.GetObjectives(attempt.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"attempt":      attempt,
		"interactions": interactions,
		"objectives":   objectives,
	})
}
