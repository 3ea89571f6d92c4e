package service

import (
	"context"
	"sync"
	"testing"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"

	"gorm.io/gorm"
)

type runtimeFixture struct {
	db      *gorm.DB
	svc     *RuntimeService
	attempt *model.ScormAttempt
	pkg     *model.ScormPackage
	user    *model.User
}

func newRuntimeFixture(t *testing.T) *runtimeFixture {
	t.Helper()
	db := newTestDB(t)

	user := seedUser(t, db, model.Student)
	course := seedCourse(t, db)
	enroll(t, db, course.ID, user.ID)
	pkg := seedReadyPackage(t, db, course.ID)

	attemptSvc := newAttemptService(t, db)
	attempt, err := attemptSvc.Launch(pkg, user.ID, user.Role)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	attempt.User = user
	attempt.Package = pkg

	svc := NewRuntimeService(repository.NewAttemptRepository(db), NewMemoryStateStore(), db)
	return &runtimeFixture{db: db, svc: svc, attempt: attempt, pkg: pkg, user: user}
}

func TestGetValueCoreElements(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	cases := map[string]string{
		scorm.ElemLessonStatus: "incomplete",
		scorm.ElemEntry:        model.EntryAbInitio,
		scorm.ElemCredit:       "credit",
		scorm.ElemScoreMax:     "100",
		scorm.ElemScoreMin:     "0",
		scorm.ElemScoreRaw:     "",
		scorm.ElemTotalTime:    "00:00:00",
		scorm.ElemVersion:      "3.4",
		scorm.ElemStudentName:  f.user.FullName(),
		"cmi.not.an.element":   "",
	}
	for element, want := range cases {
		if got := f.svc.GetValue(ctx, f.attempt, element); got != want {
			t.Errorf("GetValue(%s) = %q, want %q", element, got, want)
		}
	}
}

func TestSetValueStagesUntilCommit(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	if !f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "85") {
		t.Fatal("SetValue score.raw rejected")
	}

	// 提交前读到的是暂存值
	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemScoreRaw); got != "85" {
		t.Errorf("staged read = %q, want 85", got)
	}

	// 但库里还没有
	var row model.ScormAttempt
	if err := f.db.First(&row, f.attempt.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.ScoreRaw != nil {
		t.Error("score persisted before commit")
	}

	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := f.db.First(&row, f.attempt.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.ScoreRaw == nil || *row.ScoreRaw != 85 {
		t.Errorf("persisted score = %v, want 85", row.ScoreRaw)
	}
	if row.ScoreScaled == nil || *row.ScoreScaled != 0.85 {
		t.Errorf("scaled score = %v, want 0.85", row.ScoreScaled)
	}
}

func TestSetValueValidation(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	rejected := []struct{ element, value string }{
		{scorm.ElemLessonStatus, "finished"},
		{scorm.ElemLessonStatus, "Completed"},
		{scorm.ElemScoreRaw, "eighty"},
		{scorm.ElemSessionTime, "junk"},
		{scorm.ElemEntry, "resume"},
		{scorm.ElemTotalTime, "00:10:00"},
		{scorm.ElemStudentID, "42"},
		{scorm.ElemVersion, "4.0"},
	}
	for _, c := range rejected {
		if f.svc.SetValue(ctx, f.attempt, c.element, c.value) {
			t.Errorf("SetValue(%s, %q) accepted, want reject", c.element, c.value)
		}
	}

	// 被拒绝的写入不留痕
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if f.attempt.LessonStatus != model.LessonIncomplete {
		t.Errorf("status changed to %q after rejected set", f.attempt.LessonStatus)
	}

	accepted := []struct{ element, value string }{
		{scorm.ElemLessonStatus, "completed"},
		{scorm.ElemScoreRaw, " 90 "},
		{scorm.ElemSessionTime, "00:05:00"},
		{scorm.ElemSuspendData, `{"page":3}`},
		{"cmi.student_preference.audio", "1"}, // 未实现元素宽容放行
	}
	for _, c := range accepted {
		if !f.svc.SetValue(ctx, f.attempt, c.element, c.value) {
			t.Errorf("SetValue(%s, %q) rejected, want accept", c.element, c.value)
		}
	}
}

func TestSetValueTruncation(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	if !f.svc.SetValue(ctx, f.attempt, scorm.ElemLessonLocation, string(long)) {
		t.Fatal("SetValue lesson_location rejected")
	}
	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemLessonLocation); len(got) != scorm.MaxLessonLocationLen {
		t.Errorf("lesson_location length = %d, want %d", len(got), scorm.MaxLessonLocationLen)
	}

	if !f.svc.SetValue(ctx, f.attempt, scorm.ElemExit, "suspend-and-then-some-more") {
		t.Fatal("SetValue exit rejected")
	}
	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemExit); len(got) != scorm.MaxExitLen {
		t.Errorf("exit length = %d, want %d", len(got), scorm.MaxExitLen)
	}
}

func TestSessionTimeAccumulates(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	f.svc.SetValue(ctx, f.attempt, scorm.ElemSessionTime, "00:10:00")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	f.svc.SetValue(ctx, f.attempt, scorm.ElemSessionTime, "00:05:30")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if f.attempt.TotalTimeSecs != 930 {
		t.Errorf("TotalTimeSecs = %v, want 930", f.attempt.TotalTimeSecs)
	}
	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemTotalTime); got != "00:15:30" {
		t.Errorf("total_time = %q, want 00:15:30", got)
	}
}

func TestCommitWithoutSetsIsNoOp(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	before := f.attempt.LessonStatus
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if f.attempt.LessonStatus != before {
		t.Errorf("status changed by empty commit: %q", f.attempt.LessonStatus)
	}
}

func TestFinishDerivesPassed(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	// 及格线 70，75 分应判 passed
	f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "75")
	if err := f.svc.Finish(ctx, f.attempt); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if f.attempt.LessonStatus != model.LessonPassed {
		t.Errorf("status = %q, want passed", f.attempt.LessonStatus)
	}
	if f.attempt.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestFinishDerivesFailed(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "40")
	if err := f.svc.Finish(ctx, f.attempt); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if f.attempt.LessonStatus != model.LessonFailed {
		t.Errorf("status = %q, want failed", f.attempt.LessonStatus)
	}
}

func TestFinishKeepsExplicitStatus(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	// 课件自己报了 failed，低于及格线的成绩不应翻盘
	f.svc.SetValue(ctx, f.attempt, scorm.ElemLessonStatus, "failed")
	f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "95")
	if err := f.svc.Finish(ctx, f.attempt); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if f.attempt.LessonStatus != model.LessonFailed {
		t.Errorf("status = %q, want failed", f.attempt.LessonStatus)
	}
}

func TestFinishWithoutScoreCompletes(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	if err := f.svc.Finish(ctx, f.attempt); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if f.attempt.LessonStatus != model.LessonCompleted {
		t.Errorf("status = %q, want completed", f.attempt.LessonStatus)
	}
}

func TestInteractionsPersistByIndex(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	sets := map[string]string{
		"cmi.interactions.0.id":                           "q1",
		"cmi.interactions.0.type":                         "choice",
		"cmi.interactions.0.result":                       "wrong",
		"cmi.interactions.0.student_response":             "b",
		"cmi.interactions.0.correct_responses.0.pattern":  "a",
		"cmi.interactions.1.id":                           "q2",
		"cmi.interactions.1.type":                         "true-false",
		"cmi.interactions.1.result":                       "correct",
		"cmi.interactions.1.latency":                      "00:00:12",
	}
	for element, value := range sets {
		if !f.svc.SetValue(ctx, f.attempt, element, value) {
			t.Fatalf("SetValue(%s) rejected", element)
		}
	}

	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemInteractionsCount); got != "2" {
		t.Errorf("_count before commit = %q, want 2", got)
	}

	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rows, err := repository.NewAttemptRepository(f.db).GetInteractions(f.attempt.ID)
	if err != nil {
		t.Fatalf("GetInteractions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d interactions, want 2", len(rows))
	}

	first := rows[0]
	if first.InteractionID != "q1" || first.Type != model.InteractionChoice {
		t.Errorf("unexpected first interaction: %+v", first)
	}
	if first.Result != model.ResultIncorrect {
		t.Errorf("result = %q, want incorrect (normalized from wrong)", first.Result)
	}
	if first.CorrectResponses != `["a"]` {
		t.Errorf("correct responses = %q", first.CorrectResponses)
	}
	if rows[1].LatencySecs != 12 {
		t.Errorf("latency = %v, want 12", rows[1].LatencySecs)
	}

	// 第二次 commit 同一索引是更新不是追加
	f.svc.SetValue(ctx, f.attempt, "cmi.interactions.0.result", "correct")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("recommit: %v", err)
	}
	rows, _ = repository.NewAttemptRepository(f.db).GetInteractions(f.attempt.ID)
	if len(rows) != 2 {
		t.Fatalf("upsert appended: %d rows", len(rows))
	}
	if rows[0].Result != model.ResultCorrect {
		t.Errorf("updated result = %q, want correct", rows[0].Result)
	}
}

func TestObjectivesPersistByIndex(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	sets := map[string]string{
		"cmi.objectives.0.id":        "obj-intro",
		"cmi.objectives.0.status":    "passed",
		"cmi.objectives.0.score.raw": "88",
		"cmi.objectives.1.id":        "obj-quiz",
		"cmi.objectives.1.status":    "incomplete",
	}
	for element, value := range sets {
		if !f.svc.SetValue(ctx, f.attempt, element, value) {
			t.Fatalf("SetValue(%s) rejected", element)
		}
	}
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	rows, err := repository.NewAttemptRepository(f.db).GetObjectives(f.attempt.ID)
	if err != nil {
		t.Fatalf("GetObjectives: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d objectives, want 2", len(rows))
	}
	if rows[0].ObjectiveID != "obj-intro" || rows[0].SuccessStatus != model.SuccessSatisfied {
		t.Errorf("unexpected first objective: %+v", rows[0])
	}
	if rows[0].ScoreRaw == nil || *rows[0].ScoreRaw != 88 {
		t.Errorf("objective score = %v, want 88", rows[0].ScoreRaw)
	}

	if got := f.svc.GetValue(ctx, f.attempt, scorm.ElemObjectivesCount); got != "2" {
		t.Errorf("_count = %q, want 2", got)
	}
}

func TestCommittedSubElementsReadBack(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	sets := map[string]string{
		"cmi.interactions.0.id":                          "q1",
		"cmi.interactions.0.type":                        "choice",
		"cmi.interactions.0.result":                      "wrong",
		"cmi.interactions.0.student_response":            "b",
		"cmi.interactions.0.correct_responses.0.pattern": "a",
		"cmi.interactions.0.latency":                     "00:01:05",
		"cmi.objectives.0.id":                            "obj-intro",
		"cmi.objectives.0.status":                        "passed",
		"cmi.objectives.0.score.raw":                     "88",
	}
	for element, value := range sets {
		if !f.svc.SetValue(ctx, f.attempt, element, value) {
			t.Fatalf("SetValue(%s) rejected", element)
		}
	}
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// 暂存已清空，这里读到的必须来自落库的行
	reads := map[string]string{
		"cmi.interactions.0.id":                          "q1",
		"cmi.interactions.0.type":                        "choice",
		"cmi.interactions.0.result":                      "incorrect",
		"cmi.interactions.0.student_response":            "b",
		"cmi.interactions.0.correct_responses.0.pattern": "a",
		"cmi.interactions.0.latency":                     "00:01:05",
		"cmi.objectives.0.id":                            "obj-intro",
		"cmi.objectives.0.status":                        "passed",
		"cmi.objectives.0.score.raw":                     "88",
		"cmi.interactions.5.id":                          "",
		"cmi.interactions.0.correct_responses.9.pattern": "",
	}
	for element, want := range reads {
		if got := f.svc.GetValue(ctx, f.attempt, element); got != want {
			t.Errorf("GetValue(%s) = %q, want %q", element, got, want)
		}
	}
}

func TestScoreMaxZeroClearsScaled(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "80")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if f.attempt.ScoreScaled == nil || *f.attempt.ScoreScaled != 0.8 {
		t.Fatalf("scaled = %v, want 0.8", f.attempt.ScoreScaled)
	}

	// max 归零后除法无意义，旧的 scaled 不能残留
	f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreMax, "0")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if f.attempt.ScoreScaled != nil {
		t.Errorf("scaled = %v, want nil after score.max 0", *f.attempt.ScoreScaled)
	}

	var row model.ScormAttempt
	if err := f.db.First(&row, f.attempt.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.ScoreScaled != nil {
		t.Errorf("persisted scaled = %v, want nil", *row.ScoreScaled)
	}
}

func TestConcurrentSetsBothSurviveCommit(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.svc.SetValue(ctx, f.attempt, scorm.ElemScoreRaw, "77")
	}()
	go func() {
		defer wg.Done()
		f.svc.SetValue(ctx, f.attempt, scorm.ElemLessonLocation, "page-9")
	}()
	wg.Wait()

	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if f.attempt.ScoreRaw == nil || *f.attempt.ScoreRaw != 77 {
		t.Errorf("score lost: %v", f.attempt.ScoreRaw)
	}
	if f.attempt.LessonLocation != "page-9" {
		t.Errorf("location lost: %q", f.attempt.LessonLocation)
	}
}

func TestCommitClearsStagedState(t *testing.T) {
	f := newRuntimeFixture(t)
	ctx := context.Background()

	f.svc.SetValue(ctx, f.attempt, scorm.ElemSuspendData, "state-1")
	if err := f.svc.Commit(ctx, f.attempt); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	staged, err := f.svc.State.Staged(ctx, f.attempt.ID)
	if err != nil {
		t.Fatalf("Staged: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("staged state not cleared: %v", staged)
	}
}
