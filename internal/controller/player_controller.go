package controller

import (
	"errors"

	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PlayerController struct {
	PackageRepo    *repository.PackageRepository
	AttemptService *service.AttemptService
}

func NewPlayerController(pkgRepo *repository.PackageRepository, attemptService *service.AttemptService) *PlayerController {
	return &PlayerController{
		PackageRepo:    pkgRepo,
		AttemptService: attemptService,
	}
}

// Launch godoc
// @Summary 启动课件播放
// @Description 复用未结束的 attempt 或新建一次，返回播放器上下文
// @Tags 播放器
// @Produce json
// @Param   slug path string true "课件 slug"
// @Success 200 {object} util.Response{data=service.PlayerContext} "成功"
// @Failure 403 {object} util.Response "无权访问或重试被策略拒绝"
// @Failure 404 {object} util.Response "不存在"
// @Failure 409 {object} util.Response "课件未就绪"
// @Router /api/scorm/packages/{slug}/launch [post]
func (c *PlayerController) Launch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	pkg, err := c.PackageRepo.FindBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, "package not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	attempt, err := c.AttemptService.Launch(pkg, claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseAccessDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrMultipleAttemptsNotAllowed):
			util.Error(ctx, 403, "you have already completed this module and retakes are not allowed")
		case errors.Is(err, util.ErrPackageNotReady):
			util.Error(ctx, 409, "package is not ready for launch")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	player, err := c.AttemptService.BuildPlayerContext(pkg, attempt, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, player)
}
