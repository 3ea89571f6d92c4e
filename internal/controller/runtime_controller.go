package controller

import (
	"net/http"

	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// RuntimeController SCORM 播放器运行时端点。
// 响应不走统一 Response 包装：播放器侧 API 适配层按
// {success, value} / {error} 的裸结构解析。
type RuntimeController struct {
	AttemptRepo    *repository.AttemptRepository
	RuntimeService *service.RuntimeService
}

func NewRuntimeController(attemptRepo *repository.AttemptRepository, runtime *service.RuntimeService) *RuntimeController {
	return &RuntimeController{
		AttemptRepo:    attemptRepo,
		RuntimeService: runtime,
	}
}

// RuntimeRequest 播放器请求体
// swagger:model RuntimeRequest
type RuntimeRequest struct {
	Method     string   `json:"method"`
	Parameters []string `json:"parameters"`
	AttemptID  uint     `json:"attempt_id"`
}

// Dispatch godoc
// @Summary SCORM 运行时调用
// @Description 处理播放器的 LMSGetValue/LMSSetValue/LMSCommit/LMSFinish
// @Tags 播放器
// @Accept  json
// @Produce json
// @Param   body body RuntimeRequest true "运行时调用"
// @Success 200 {object} object "成功"
// @Failure 400 {object} object "请求体非法或缺少 attempt_id"
// @Failure 404 {object} object "attempt 不存在或不属于当前用户"
// @Router /api/scorm/runtime [post]
func (c *RuntimeController) Dispatch(ctx *gin.Context) {
	var req RuntimeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if req.AttemptID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No attempt ID provided"})
		return
	}

	claims := util.GetUserFromContext(ctx)
	attempt, err := c.AttemptRepo.FindByIDAndUser(req.AttemptID, claims.UserID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid attempt"})
		return
	}

	param := func(i int) string {
		if i < len(req.Parameters) {
			return req.Parameters[i]
		}
		return ""
	}

	switch req.Method {
	case "LMSGetValue":
		value := c.RuntimeService.GetValue(ctx, attempt, param(0))
		monitoring.RuntimeCallCounter.WithLabelValues(req.Method, "ok").Inc()
		ctx.JSON(http.StatusOK, gin.H{"success": true, "value": value})

	case "LMSSetValue":
		ok := c.RuntimeService.SetValue(ctx, attempt, param(0), param(1))
		result := "ok"
		if !ok {
			result = "rejected"
		}
		monitoring.RuntimeCallCounter.WithLabelValues(req.Method, result).Inc()
		ctx.JSON(http.StatusOK, gin.H{"success": ok})

	case "LMSCommit":
		if err := c.RuntimeService.Commit(ctx, attempt); err != nil {
			monitoring.RuntimeCallCounter.WithLabelValues(req.Method, "error").Inc()
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		monitoring.RuntimeCallCounter.WithLabelValues(req.Method, "ok").Inc()
		ctx.JSON(http.StatusOK, gin.H{"success": true})

	case "LMSFinish":
		if err := c.RuntimeService.Finish(ctx, attempt); err != nil {
			monitoring.RuntimeCallCounter.WithLabelValues(req.Method, "error").Inc()
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		monitoring.RuntimeCallCounter.WithLabelValues(req.Method, "ok").Inc()
		ctx.JSON(http.StatusOK, gin.H{"success": true})

	default:
		// 未知方法按无操作处理，保持播放器侧不报错
		monitoring.RuntimeCallCounter.WithLabelValues("unknown", "ok").Inc()
		ctx.JSON(http.StatusOK, gin.H{"success": true, "value": ""})
	}
}
