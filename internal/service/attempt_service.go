package service

import (
	"time"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccessChecker 课程访问能力，显式注入而非从请求环境里捞
type AccessChecker interface {
	CanAccess(userID uint, role model.UserRole, pkg *model.ScormPackage) (bool, error)
}

// EnrollmentAccessChecker 管理员/教师放行，学生要求选课关系
type EnrollmentAccessChecker struct {
	CourseRepo *repository.CourseRepository
}

func NewEnrollmentAccessChecker(courseRepo *repository.CourseRepository) *EnrollmentAccessChecker {
	return &EnrollmentAccessChecker{CourseRepo: courseRepo}
}

func (c *EnrollmentAccessChecker) CanAccess(userID uint, role model.UserRole, pkg *model.ScormPackage) (bool, error) {
	if role == model.Admin || role == model.Teacher {
		return true, nil
	}
	return c.CourseRepo.IsEnrolled(pkg.CourseID, userID)
}

// AttemptService 学习记录的创建与续学
type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	PackageRepo *repository.PackageRepository
	Access      AccessChecker
	Cfg         *config.Config
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, pkgRepo *repository.PackageRepository, access AccessChecker, cfg *config.Config) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		PackageRepo: pkgRepo,
		Access:      access,
		Cfg:         cfg,
	}
}

// Launch 启动或续学。多次启动未完成的 attempt 返回同一条记录；
// 禁止多次学习且已有终态 attempt 时拒绝并返回策略错误。
func (s *AttemptService) Launch(pkg *model.ScormPackage, userID uint, role model.UserRole) (*model.ScormAttempt, error) {
	ok, err := s.Access.CanAccess(userID, role, pkg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrCourseAccessDenied
	}

	if !pkg.IsLaunchable() {
		return nil, util.ErrPackageNotReady
	}

	if !pkg.AllowMultipleAttempts {
		done, err := s.AttemptRepo.HasTerminal(pkg.ID, userID)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, util.ErrMultipleAttemptsNotAllowed
		}
	}

	now := time.Now()

	attempt, err := s.AttemptRepo.LatestNonTerminal(pkg.ID, userID)
	if err == nil {
		attempt.Entry = model.EntryResume
		attempt.LastAccessed = now
		if err := s.AttemptRepo.Save(attempt); err != nil {
			return nil, err
		}
		return attempt, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	attempt = &model.ScormAttempt{
		PackageID:    pkg.ID,
		UserID:       userID,
		StartedAt:    now,
		LastAccessed: now,
		LessonStatus: model.LessonIncomplete,
		Entry:        model.EntryAbInitio,
		Credit:       "credit",
		ScoreMax:     100,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}

	logger.Log.Info("scorm attempt started",
		zap.Uint("package", pkg.ID),
		zap.Uint("user", userID),
		zap.Uint("attempt", attempt.ID))
	return attempt, nil
}

// PlayerContext 播放器启动所需的上下文
type PlayerContext struct {
	Package           *model.ScormPackage  `json:"package"`
	AttemptID         uint                 `json:"attemptId"`
	Entry             string               `json:"entry"`
	LaunchURL         string               `json:"launchUrl"`
	APIURL            string               `json:"apiUrl"`
	AttemptCount      int64                `json:"attemptCount"`
	OtherPackages     []model.ScormPackage `json:"otherPackages"`
	CompletedPackages []uint               `json:"completedPackages"`
}

// BuildPlayerContext 按需计算，不做缓存
func (s *AttemptService) BuildPlayerContext(pkg *model.ScormPackage, attempt *model.ScormAttempt, userID uint) (*PlayerContext, error) {
	count, err := s.AttemptRepo.CountByPackageAndUser(pkg.ID, userID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.PackageRepo.SiblingsReady(pkg.CourseID, pkg.ID, s.Cfg.Scorm.SiblingLimit)
	if err != nil {
		return nil, err
	}

	completed, err := s.AttemptRepo.CompletedPackageIDs(pkg.CourseID, userID)
	if err != nil {
		return nil, err
	}

	return &PlayerContext{
		Package:           pkg,
		AttemptID:         attempt.ID,
		Entry:             attempt.Entry,
		LaunchURL:         s.Cfg.Scorm.MediaURL + "/" + pkg.ExtractedPath + "/" + pkg.EntryPoint,
		APIURL:            "/api/scorm/runtime",
		AttemptCount:      count,
		OtherPackages:     siblings,
		CompletedPackages: completed,
	}, nil
}
