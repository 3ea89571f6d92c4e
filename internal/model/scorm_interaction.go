package model

import "time"

type InteractionType string

const (
	InteractionTrueFalse   InteractionType = "true-false"
	InteractionChoice      InteractionType = "choice"
	InteractionFillIn      InteractionType = "fill-in"
	InteractionLongFillIn  InteractionType = "long-fill-in"
	InteractionMatching    InteractionType = "matching"
	InteractionPerformance InteractionType = "performance"
	InteractionSequencing  InteractionType = "sequencing"
	InteractionLikert      InteractionType = "likert"
	InteractionNumeric     InteractionType = "numeric"
	InteractionOther       InteractionType = "other"
)

type InteractionResult string

const (
	ResultCorrect       InteractionResult = "correct"
	ResultIncorrect     InteractionResult = "incorrect"
	ResultUnanticipated InteractionResult = "unanticipated"
	ResultNeutral       InteractionResult = "neutral"
)

// ScormInteraction 课件上报的单次交互（append-only，按 SCORM 索引定位）
// swagger:model ScormInteraction
type ScormInteraction struct {
	BaseModel
	AttemptID uint `gorm:"index:idx_attempt_interaction,unique;type:bigint unsigned;not null" json:"attemptId"`
	Index     int  `gorm:"index:idx_attempt_interaction,unique;not null" json:"index"` // cmi.interactions.n 中的 n

	InteractionID    string            `gorm:"size:255" json:"interactionId"`
	Type             InteractionType   `gorm:"size:20" json:"type"`
	Timestamp        time.Time         `json:"timestamp"`
	LearnerResponse  string            `gorm:"type:text" json:"learnerResponse"`
	CorrectResponses string            `gorm:"type:json" json:"correctResponses"`
	Result           InteractionResult `gorm:"size:20" json:"result"`
	Weighting        float64           `gorm:"default:1" json:"weighting"`
	LatencySecs      float64           `gorm:"default:0" json:"latencySecs"`
	Description      string            `gorm:"type:text" json:"description"`
	Objectives       string            `gorm:"type:json" json:"objectives"`
}

func (ScormInteraction) TableName() string {
	return "scorm_interactions"
}
