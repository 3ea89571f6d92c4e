package controller

import (
	"errors"
	"strconv"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PackageController struct {
	PackageRepo   *repository.PackageRepository
	AttemptRepo   *repository.AttemptRepository
	CourseRepo    *repository.CourseRepository
	IngestService *service.IngestService
}

func NewPackageController(pkgRepo *repository.PackageRepository, attemptRepo *repository.AttemptRepository, courseRepo *repository.CourseRepository, ingest *service.IngestService) *PackageController {
	return &PackageController{
		PackageRepo:   pkgRepo,
		AttemptRepo:   attemptRepo,
		CourseRepo:    courseRepo,
		IngestService: ingest,
	}
}

// Upload godoc
// @Summary 上传 SCORM 课件包
// @Description 上传 ZIP 归档并同步解压、解析清单
// @Tags 课件
// @Accept  multipart/form-data
// @Produce json
// @Param   packageFile formData file true "SCORM ZIP 归档"
// @Param   title formData string true "课件标题"
// @Param   courseId formData int true "课程ID"
// @Param   description formData string false "课件描述"
// @Param   version formData string false "SCORM 版本（1.2 或 2004）"
// @Success 201 {object} util.Response{data=model.ScormPackage} "创建成功"
// @Failure 400 {object} util.Response "校验失败"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/scorm/packages [post]
func (c *PackageController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	title := ctx.PostForm("title")
	if title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}

	courseID, err := strconv.ParseUint(ctx.PostForm("courseId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid courseId")
		return
	}
	if _, err := c.CourseRepo.FindByID(uint(courseID)); err != nil {
		util.NotFound(ctx, "course not found")
		return
	}

	fileHeader, err := ctx.FormFile("packageFile")
	if err != nil {
		util.BadRequest(ctx, "packageFile is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	// 扩展名之外再嗅探内容类型，拦截改名伪装的非 ZIP 文件
	mimeType, err := util.ValidateMimeType(file, []string{util.MimeZip, util.MimeOctetStream})
	if err != nil || !util.IsZip(mimeType) {
		util.BadRequest(ctx, "packageFile must be a ZIP archive")
		return
	}

	if err := c.IngestService.ValidateUpload(fileHeader.Filename, fileHeader.Size, file); err != nil {
		if util.IsValidationError(err) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	version := model.ScormVersion(ctx.PostForm("version"))
	if version != model.Scorm2004 {
		version = model.Scorm12
	}

	pkg := &model.ScormPackage{
		CourseID:     uint(courseID),
		Title:        title,
		Slug:         util.UniqueSlug(title, c.PackageRepo.SlugExists),
		Description:  ctx.PostForm("description"),
		Version:      version,
		Status:       model.PackagePending,
		UploadedByID: claims.UserID,
	}
	if err := c.PackageRepo.Create(pkg); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if _, err := file.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	key, err := c.IngestService.StoreArchive(ctx, pkg, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	pkg.PackageFile = key

	// 同步解压：失败只反映在包状态上，上传本身总是成功
	c.IngestService.Ingest(ctx, pkg, file, fileHeader.Size)

	util.Created(ctx, pkg)
}

// List godoc
// @Summary 课件包列表
// @Description 分页列出课件包，学生仅见已选课程下 ready 的包
// @Tags 课件
// @Produce json
// @Param   search query string false "标题/描述模糊搜索"
// @Param   courseId query int false "按课程过滤"
// @Param   status query string false "按状态过滤（管理端）"
// @Param   version query string false "按 SCORM 版本过滤"
// @Param   page query int false "页码"
// @Param   limit query int false "每页条数"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/scorm/packages [get]
func (c *PackageController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	courseID, _ := strconv.ParseUint(ctx.Query("courseId"), 10, 64)

	filter := repository.PackageFilter{
		Search:   ctx.Query("search"),
		CourseID: uint(courseID),
		Version:  model.ScormVersion(ctx.Query("version")),
		Page:     page,
		Limit:    limit,
	}

	if claims.Role == model.Student {
		// 学生端：只看已选课程下 ready 的包
		filter.Status = model.PackageReady
		courseIDs, err := c.CourseRepo.EnrolledCourseIDs(claims.UserID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		if len(courseIDs) == 0 {
			util.Success(ctx, gin.H{"items": []model.ScormPackage{}, "total": 0})
			return
		}
		filter.CourseIDs = courseIDs
	} else {
		filter.Status = model.PackageStatus(ctx.Query("status"))
	}

	items, total, err := c.PackageRepo.List(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"items": items, "total": total, "page": page, "limit": limit})
}

// Detail godoc
// @Summary 课件包详情
// @Description 返回课件包、当前用户的 attempt 历史；管理端附带聚合统计
// @Tags 课件
// @Produce json
// @Param   slug path string true "课件 slug"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/scorm/packages/{slug} [get]
func (c *PackageController) Detail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	pkg, err := c.PackageRepo.FindBySlug(ctx.Param("slug"))
	if err != nil {
		util.NotFound(ctx, "package not found")
		return
	}

	attempts, err := c.AttemptRepo.ListByPackageAndUser(pkg.ID, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	resp := gin.H{"package": pkg, "attempts": attempts}
	if claims.Role == model.Admin || claims.Role == model.Teacher {
		stats, err := c.AttemptRepo.StatsByPackage(pkg.ID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp["stats"] = stats
	}

	util.Success(ctx, resp)
}

// UpdateSettingsRequest 仅开放设置项，文件与解压结果不可改
// swagger:model UpdateSettingsRequest
type UpdateSettingsRequest struct {
	Title                 *string  `json:"title"`
	Description           *string  `json:"description"`
	AllowMultipleAttempts *bool    `json:"allowMultipleAttempts"`
	PassingScore          *int     `json:"passingScore" binding:"omitempty,min=0,max=100"`
	WeightInCourse        *float64 `json:"weightInCourse" binding:"omitempty,min=0,max=100"`
}

// Update godoc
// @Summary 修改课件设置
// @Description 仅管理员可改标题、描述、重试策略、及格线与权重
// @Tags 课件
// @Accept  json
// @Produce json
// @Param   slug path string true "课件 slug"
// @Param   body body UpdateSettingsRequest true "设置项"
// @Success 200 {object} util.Response{data=model.ScormPackage} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/scorm/packages/{slug} [put]
func (c *PackageController) Update(ctx *gin.Context) {
	pkg, err := c.PackageRepo.FindBySlug(ctx.Param("slug"))
	if err != nil {
		util.NotFound(ctx, "package not found")
		return
	}

	var req UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if req.Title != nil {
		pkg.Title = *req.Title
	}
	if req.Description != nil {
		pkg.Description = *req.Description
	}
	if req.AllowMultipleAttempts != nil {
		pkg.AllowMultipleAttempts = *req.AllowMultipleAttempts
	}
	if req.PassingScore != nil {
		pkg.PassingScore = *req.PassingScore
	}
	if req.WeightInCourse != nil {
		pkg.WeightInCourse = *req.WeightInCourse
	}

	if err := c.PackageRepo.Save(pkg); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, pkg)
}

// Delete godoc
// @Summary 删除课件包
// @Description 级联删除 attempt 记录，并清理解压目录与归档
// @Tags 课件
// @Produce json
// @Param   slug path string true "课件 slug"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/scorm/packages/{slug} [delete]
func (c *PackageController) Delete(ctx *gin.Context) {
	pkg, err := c.PackageRepo.FindBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, "package not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	c.IngestService.Cleanup(ctx, pkg)

	if err := c.PackageRepo.Delete(pkg); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": pkg.Slug})
}
