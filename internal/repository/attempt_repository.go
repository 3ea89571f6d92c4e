package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.ScormAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) Save(attempt *model.ScormAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.ScormAttempt, error) {
	var a model.ScormAttempt
	if err := r.DB.Preload("Package").Preload("User").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDAndUser 运行时 API 的归属校验入口
func (r *AttemptRepository) FindByIDAndUser(id, userID uint) (*model.ScormAttempt, error) {
	var a model.ScormAttempt
	err := r.DB.Preload("Package").Preload("User").
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LatestNonTerminal 最近一次未完成的 attempt，续学用
func (r *AttemptRepository) LatestNonTerminal(packageID, userID uint) (*model.ScormAttempt, error) {
	var a model.ScormAttempt
	err := r.DB.Where("package_id = ? AND user_id = ? AND lesson_status NOT IN ?",
		packageID, userID, []model.LessonStatus{model.LessonCompleted, model.LessonPassed}).
		Order("started_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HasTerminal 是否已有完成/通过的 attempt
func (r *AttemptRepository) HasTerminal(packageID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.ScormAttempt{}).
		Where("package_id = ? AND user_id = ? AND lesson_status IN ?",
			packageID, userID, []model.LessonStatus{model.LessonCompleted, model.LessonPassed}).
		Count(&count).Error
	return count > 0, err
}

func (r *AttemptRepository) CountByPackageAndUser(packageID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ScormAttempt{}).
		Where("package_id = ? AND user_id = ?", packageID, userID).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) ListByPackageAndUser(packageID, userID uint) ([]model.ScormAttempt, error) {
	var attempts []model.ScormAttempt
	err := r.DB.Where("package_id = ? AND user_id = ?", packageID, userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListByUser 学员全量 attempt，按开始时间倒序，进度汇总用
func (r *AttemptRepository) ListByUser(userID uint) ([]model.ScormAttempt, error) {
	var attempts []model.ScormAttempt
	err := r.DB.Preload("Package").Preload("Package.Course").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// CompletedPackageIDs 学员在某课程内已完成/通过的包 id 集合
func (r *AttemptRepository) CompletedPackageIDs(courseID, userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.ScormAttempt{}).
		Distinct("scorm_attempts.package_id").
		Joins("JOIN scorm_packages ON scorm_packages.id = scorm_attempts.package_id").
		Where("scorm_attempts.user_id = ? AND scorm_packages.course_id = ? AND scorm_attempts.lesson_status IN ?",
			userID, courseID, []model.LessonStatus{model.LessonCompleted, model.LessonPassed}).
		Pluck("scorm_attempts.package_id", &ids).Error
	return ids, err
}

// AttemptStats 包级聚合（管理端统计）
type AttemptStats struct {
	TotalAttempts     int64 `json:"totalAttempts"`
	CompletedAttempts int64 `json:"completedAttempts"`
}

func (r *AttemptRepository) StatsByPackage(packageID uint) (*AttemptStats, error) {
	var stats AttemptStats
	if err := r.DB.Model(&model.ScormAttempt{}).
		Where("package_id = ?", packageID).
		Count(&stats.TotalAttempts).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.ScormAttempt{}).
		Where("package_id = ? AND lesson_status IN ?",
			packageID, []model.LessonStatus{model.LessonCompleted, model.LessonPassed}).
		Count(&stats.CompletedAttempts).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *AttemptRepository) CountInteractions(attemptID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ScormInteraction{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) CountObjectives(attemptID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ScormObjective{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) FindInteraction(attemptID uint, index int) (*model.ScormInteraction, error) {
	var row model.ScormInteraction
	err := r.DB.Where("attempt_id = ? AND `index` = ?", attemptID, index).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *AttemptRepository) FindObjective(attemptID uint, index int) (*model.ScormObjective, error) {
	var row model.ScormObjective
	err := r.DB.Where("attempt_id = ? AND `index` = ?", attemptID, index).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *AttemptRepository) GetInteractions(attemptID uint) ([]model.ScormInteraction, error) {
	var out []model.ScormInteraction
	err := r.DB.Where("attempt_id = ?", attemptID).Order("`index` ASC").Find(&out).Error
	return out, err
}

func (r *AttemptRepository) GetObjectives(attemptID uint) ([]model.ScormObjective, error) {
	var out []model.ScormObjective
	err := r.DB.Where("attempt_id = ?", attemptID).Order("`index` ASC").Find(&out).Error
	return out, err
}
