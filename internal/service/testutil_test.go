package service

import (
	"fmt"
	"testing"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/pkg/database"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Scorm: config.ScormConfig{
			MediaRoot:    t.TempDir(),
			MediaURL:     "/media",
			SiblingLimit: 5,
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: t.TempDir(),
		},
	}
}

func seedUser(t *testing.T, db *gorm.DB, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Name:     "Test " + string(role),
		Email:    fmt.Sprintf("%s-%s@example.com", role, t.Name()),
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCourse(t *testing.T, db *gorm.DB) *model.Course {
	t.Helper()
	course := &model.Course{Title: "Course " + t.Name(), Code: "course-" + t.Name()}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func enroll(t *testing.T, db *gorm.DB, courseID, userID uint) {
	t.Helper()
	if err := repository.NewCourseRepository(db).Enroll(courseID, userID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
}

func seedReadyPackage(t *testing.T, db *gorm.DB, courseID uint) *model.ScormPackage {
	t.Helper()
	pkg := &model.ScormPackage{
		CourseID:              courseID,
		Title:                 "Pkg " + t.Name(),
		Slug:                  "pkg-" + t.Name(),
		Version:               model.Scorm12,
		Status:                model.PackageReady,
		EntryPoint:            "index.html",
		ExtractedPath:         "scorm_extracted/1/pkg",
		AllowMultipleAttempts: true,
		PassingScore:          70,
	}
	if err := db.Create(pkg).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	return pkg
}
