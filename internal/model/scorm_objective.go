package model

type SuccessStatus string

const (
	SuccessUnknown      SuccessStatus = "unknown"
	SuccessSatisfied    SuccessStatus = "satisfied"
	SuccessNotSatisfied SuccessStatus = "not_satisfied"
)

// ScormObjective 课件上报的学习目标，按 objective_id 在单次 attempt 内去重
// swagger:model ScormObjective
type ScormObjective struct {
	BaseModel
	AttemptID uint `gorm:"index:idx_attempt_objective,unique;type:bigint unsigned;not null" json:"attemptId"`
	Index     int  `gorm:"not null" json:"index"` // cmi.objectives.n 中的 n

	ObjectiveID      string        `gorm:"size:255;index:idx_attempt_objective,unique" json:"objectiveId"`
	SuccessStatus    SuccessStatus `gorm:"size:20;default:'unknown'" json:"successStatus"`
	CompletionStatus LessonStatus  `gorm:"size:20;default:'not_attempted'" json:"completionStatus"`

	ScoreRaw    *float64 `json:"scoreRaw,omitempty"`
	ScoreMin    float64  `gorm:"default:0" json:"scoreMin"`
	ScoreMax    float64  `gorm:"default:100" json:"scoreMax"`
	ScoreScaled *float64 `json:"scoreScaled,omitempty"`

	ProgressMeasure float64 `gorm:"default:0" json:"progressMeasure"`
	Description     string  `gorm:"type:text" json:"description"`
}

func (ScormObjective) TableName() string {
	return "scorm_objectives"
}
