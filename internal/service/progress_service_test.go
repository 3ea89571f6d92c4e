package service

import (
	"testing"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"

	"gorm.io/gorm"
)

func seedAttempt(t *testing.T, db *gorm.DB, pkgID, userID uint, status model.LessonStatus, score *float64, started time.Time) *model.ScormAttempt {
	t.Helper()
	attempt := &model.ScormAttempt{
		PackageID:    pkgID,
		UserID:       userID,
		StartedAt:    started,
		LastAccessed: started,
		LessonStatus: status,
		ScoreRaw:     score,
		ScoreMax:     100,
	}
	if err := db.Create(attempt).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return attempt
}

func f64(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewAttemptRepository(db))

	user := seedUser(t, db, model.Student)
	course := seedCourse(t, db)
	pkgA := seedReadyPackage(t, db, course.ID)
	pkgB := &model.ScormPackage{
		CourseID: course.ID, Title: "B", Slug: "pkg-b-" + t.Name(),
		Status: model.PackageReady, EntryPoint: "index.html", ExtractedPath: "x",
	}
	if err := db.Create(pkgB).Error; err != nil {
		t.Fatalf("seed pkgB: %v", err)
	}

	base := time.Now().Add(-3 * time.Hour)
	// 包A：两次学习，先 failed 60 分，后 passed 90 分
	seedAttempt(t, db, pkgA.ID, user.ID, model.LessonFailed, f64(60), base)
	seedAttempt(t, db, pkgA.ID, user.ID, model.LessonPassed, f64(90), base.Add(time.Hour))
	// 包B：一次未完成，无成绩
	seedAttempt(t, db, pkgB.ID, user.ID, model.LessonIncomplete, nil, base.Add(2*time.Hour))

	summary, err := svc.Summarize(user.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if summary.TotalPackages != 2 {
		t.Fatalf("TotalPackages = %d, want 2", summary.TotalPackages)
	}
	if summary.CompletedPackages != 1 {
		t.Errorf("CompletedPackages = %d, want 1", summary.CompletedPackages)
	}

	byPkg := make(map[uint]*PackageProgress)
	for _, p := range summary.Packages {
		byPkg[p.LatestAttempt.PackageID] = p
	}

	a := byPkg[pkgA.ID]
	if a == nil {
		t.Fatal("package A missing from summary")
	}
	if a.TotalAttempts != 2 {
		t.Errorf("A TotalAttempts = %d, want 2", a.TotalAttempts)
	}
	if a.BestScore != 90 {
		t.Errorf("A BestScore = %v, want 90", a.BestScore)
	}
	if !a.Completed {
		t.Error("A should be completed")
	}
	if a.LatestAttempt.LessonStatus != model.LessonPassed {
		t.Errorf("A latest status = %q, want passed", a.LatestAttempt.LessonStatus)
	}

	b := byPkg[pkgB.ID]
	if b == nil {
		t.Fatal("package B missing from summary")
	}
	if b.Completed {
		t.Error("B should not be completed")
	}
	if b.BestScore != 0 {
		t.Errorf("B BestScore = %v, want 0", b.BestScore)
	}
}

func TestSummarizeCountsAnyTerminalAttempt(t *testing.T) {
	// 通过后又重学且未完成：包仍算已完成
	db := newTestDB(t)
	svc := NewProgressService(repository.NewAttemptRepository(db))

	user := seedUser(t, db, model.Student)
	course := seedCourse(t, db)
	pkg := seedReadyPackage(t, db, course.ID)

	base := time.Now().Add(-2 * time.Hour)
	seedAttempt(t, db, pkg.ID, user.ID, model.LessonPassed, f64(80), base)
	seedAttempt(t, db, pkg.ID, user.ID, model.LessonIncomplete, nil, base.Add(time.Hour))

	summary, err := svc.Summarize(user.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.CompletedPackages != 1 {
		t.Errorf("CompletedPackages = %d, want 1", summary.CompletedPackages)
	}
	if summary.Packages[0].LatestAttempt.LessonStatus != model.LessonIncomplete {
		t.Errorf("latest attempt should be the incomplete one")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewAttemptRepository(db))
	user := seedUser(t, db, model.Student)

	summary, err := svc.Summarize(user.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalPackages != 0 || summary.CompletedPackages != 0 || len(summary.Packages) != 0 {
		t.Errorf("unexpected summary for no attempts: %+v", summary)
	}
}
