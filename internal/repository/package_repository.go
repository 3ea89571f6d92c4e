package repository

import (
	"scorm_lms_backend/internal/model"

	"gorm.io/gorm"
)

type PackageRepository struct {
	DB *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{DB: db}
}

func (r *PackageRepository) Create(pkg *model.ScormPackage) error {
	return r.DB.Create(pkg).Error
}

func (r *PackageRepository) Save(pkg *model.ScormPackage) error {
	return r.DB.Save(pkg).Error
}

func (r *PackageRepository) FindByID(id uint) (*model.ScormPackage, error) {
	var pkg model.ScormPackage
	if err := r.DB.Preload("Course").First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepository) FindBySlug(slug string) (*model.ScormPackage, error) {
	var pkg model.ScormPackage
	if err := r.DB.Preload("Course").Where("slug = ?", slug).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepository) SlugExists(slug string) bool {
	var count int64
	r.DB.Model(&model.ScormPackage{}).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// PackageFilter 列表过滤条件，零值字段忽略
type PackageFilter struct {
	Search    string
	CourseID  uint
	Status    model.PackageStatus
	Version   model.ScormVersion
	CourseIDs []uint // 非空时限定可见课程范围（学生端）
	Page      int
	Limit     int
}

func (r *PackageRepository) List(f PackageFilter) ([]model.ScormPackage, int64, error) {
	query := r.DB.Model(&model.ScormPackage{}).Preload("Course").Preload("UploadedBy")

	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if f.CourseID != 0 {
		query = query.Where("course_id = ?", f.CourseID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Version != "" {
		query = query.Where("version = ?", f.Version)
	}
	if f.CourseIDs != nil {
		query = query.Where("course_id IN ?", f.CourseIDs)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 12
	}

	var pkgs []model.ScormPackage
	err := query.Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&pkgs).Error
	return pkgs, total, err
}

// SiblingsReady 同课程下其它可启动的包，播放器侧栏用
func (r *PackageRepository) SiblingsReady(courseID, excludeID uint, limit int) ([]model.ScormPackage, error) {
	var pkgs []model.ScormPackage
	err := r.DB.Where("course_id = ? AND status = ? AND id <> ?", courseID, model.PackageReady, excludeID).
		Order("created_at ASC").
		Limit(limit).
		Find(&pkgs).Error
	return pkgs, err
}

// Delete 级联删除包与其下属 attempt/interaction/objective
func (r *PackageRepository) Delete(pkg *model.ScormPackage) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var attemptIDs []uint
		if err := tx.Model(&model.ScormAttempt{}).
			Where("package_id = ?", pkg.ID).
			Pluck("id", &attemptIDs).Error; err != nil {
			return err
		}
		if len(attemptIDs) > 0 {
			if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&model.ScormInteraction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("attempt_id IN ?", attemptIDs).Delete(&model.ScormObjective{}).Error; err != nil {
				return err
			}
			if err := tx.Where("package_id = ?", pkg.ID).Delete(&model.ScormAttempt{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(pkg).Error
	})
}
