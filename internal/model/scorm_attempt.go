package model

import "time"

type LessonStatus string

const (
	LessonNotAttempted LessonStatus = "not_attempted"
	LessonBrowsed      LessonStatus = "browsed"
	LessonIncomplete   LessonStatus = "incomplete"
	LessonCompleted    LessonStatus = "completed"
	LessonFailed       LessonStatus = "failed"
	LessonPassed       LessonStatus = "passed"
)

// ValidLessonStatus 校验 cmi.core.lesson_status 的取值
func ValidLessonStatus(s string) bool {
	switch LessonStatus(s) {
	case LessonNotAttempted, LessonBrowsed, LessonIncomplete,
		LessonCompleted, LessonFailed, LessonPassed:
		return true
	}
	return false
}

const (
	EntryAbInitio = "ab-initio"
	EntryResume   = "resume"
)

// ScormAttempt 学员对某个 SCORM 包的一次学习记录
// swagger:model ScormAttempt
type ScormAttempt struct {
	BaseModel
	PackageID uint          `gorm:"index;type:bigint unsigned;not null" json:"packageId"`
	Package   *ScormPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	UserID    uint          `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	User      *User         `gorm:"foreignKey:UserID" json:"-"`

	StartedAt    time.Time  `json:"startedAt"`
	LastAccessed time.Time  `json:"lastAccessed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	// SCORM 运行时数据
	LessonStatus LessonStatus `gorm:"type:varchar(20);default:'not_attempted'" json:"lessonStatus"`
	ScoreRaw     *float64     `json:"scoreRaw,omitempty"`
	ScoreMin     float64      `gorm:"default:0" json:"scoreMin"`
	ScoreMax     float64      `gorm:"default:100" json:"scoreMax"`
	ScoreScaled  *float64     `json:"scoreScaled,omitempty"`

	ProgressMeasure  float64 `gorm:"default:0" json:"progressMeasure"`
	TotalTimeSecs    float64 `gorm:"default:0" json:"totalTimeSecs"`
	SessionTimeSecs  float64 `gorm:"default:0" json:"sessionTimeSecs"`
	SuspendData      string  `gorm:"type:text" json:"suspendData"`
	LessonLocation   string  `gorm:"size:255" json:"lessonLocation"`
	ExitMode         string  `gorm:"size:20" json:"exitMode"`
	Credit           string  `gorm:"size:20;default:'credit'" json:"credit"`
	Entry            string  `gorm:"size:20;default:'ab-initio'" json:"entry"`

	Interactions []ScormInteraction `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"-"`
	Objectives   []ScormObjective   `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ScormAttempt) TableName() string {
	return "scorm_attempts"
}

// PercentageScore 百分制成绩，ScoreMax 为 0 时返回 0，避免除零
func (a *ScormAttempt) PercentageScore() float64 {
	if a.ScoreRaw == nil || a.ScoreMax == 0 {
		return 0
	}
	return *a.ScoreRaw / a.ScoreMax * 100
}

// IsPassed 状态为 passed，或百分制成绩达到包的及格线
func (a *ScormAttempt) IsPassed(passingScore int) bool {
	if a.LessonStatus == LessonPassed {
		return true
	}
	if a.ScoreRaw == nil {
		return false
	}
	return a.PercentageScore() >= float64(passingScore)
}

// IsTerminal 已完成或已通过，不可再作为续学目标
func (a *ScormAttempt) IsTerminal() bool {
	return a.LessonStatus == LessonCompleted || a.LessonStatus == LessonPassed
}
